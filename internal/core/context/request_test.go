package context

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))
	assert.Empty(t, GetUserID(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: "u-1"})
	assert.Equal(t, "u-1", GetUserID(ctx))
}

func TestNewBackgroundTrace(t *testing.T) {
	trace := NewBackgroundTrace("idempotency-cleanup")
	assert.True(t, strings.HasPrefix(trace.RequestID, "idempotency-cleanup-"))
	assert.Len(t, trace.SpanID, 16)
	assert.Same(t, trace, GetTrace(WithTrace(context.Background(), trace)))
}
