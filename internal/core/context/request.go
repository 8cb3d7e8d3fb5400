// Package context carries the authenticated caller and request identifiers
// through a request.
package context

import (
	"context"

	"github.com/google/uuid"
)

// UserContext is the caller as read from a validated bearer token.
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

// TraceContext identifies one request or background run in logs.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type (
	userKey  struct{}
	traceKey struct{}
)

func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns nil for unauthenticated contexts.
func GetUser(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userKey{}).(*UserContext)
	return user
}

// GetUserID returns "" for unauthenticated contexts.
func GetUserID(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.UserID
	}
	return ""
}

func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

func GetTrace(ctx context.Context) *TraceContext {
	trace, _ := ctx.Value(traceKey{}).(*TraceContext)
	return trace
}

// NewBackgroundTrace tags work that has no inbound request, such as a
// worker tick. The request id is prefixed so such runs stand out in logs.
func NewBackgroundTrace(job string) *TraceContext {
	runID := uuid.NewString()
	return &TraceContext{
		TraceID:   runID,
		SpanID:    runID[:16],
		RequestID: job + "-" + runID,
	}
}
