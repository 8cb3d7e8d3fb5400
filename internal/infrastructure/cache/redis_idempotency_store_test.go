package cache

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
)

const operation = "POST /api/v1/export/materials"

func newTestStore(t *testing.T) (*RedisIdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisIdempotencyStore(client, time.Hour), mr
}

func TestRedisIdempotencyStore_AcquireCompleteReplay(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	replay, err := store.AcquireKey(ctx, "k1", "u1", operation, "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)
	assert.True(t, mr.Exists(defaultKeyPrefix+"k1"))
	assert.Equal(t, time.Hour, mr.TTL(defaultKeyPrefix+"k1"))

	_, err = store.AcquireKey(ctx, "k1", "u1", operation, "h1")
	assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency), "in-flight duplicate must conflict")

	body := map[string]string{"status": "PENDING_APPROVED", "code": "EXPM15102600001"}
	require.NoError(t, store.CompleteKey(ctx, "k1", http.StatusCreated, "application/json", body))
	assert.Equal(t, time.Hour, mr.TTL(defaultKeyPrefix+"k1"))

	replay, err = store.AcquireKey(ctx, "k1", "u1", operation, "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusCreated, replay.StatusCode)
	assert.JSONEq(t, `{"status":"PENDING_APPROVED","code":"EXPM15102600001"}`, string(replay.Body))
}

func TestRedisIdempotencyStore_MismatchedBody(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.AcquireKey(ctx, "k2", "u1", operation, "h1")
	require.NoError(t, err)

	_, err = store.AcquireKey(ctx, "k2", "u1", operation, "other")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Idempotency key mismatch", appErr.Message)
}

func TestRedisIdempotencyStore_FailedResponseReplays(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.AcquireKey(ctx, "k3", "u1", operation, "h1")
	require.NoError(t, err)
	require.NoError(t, store.FailKey(ctx, "k3", http.StatusBadRequest, "", map[string]string{"code": "INSUFFICIENT_STOCK"}))

	replay, err := store.AcquireKey(ctx, "k3", "u1", operation, "h1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	assert.Equal(t, http.StatusBadRequest, replay.StatusCode)
	assert.Equal(t, "application/json", replay.ContentType)
}

func TestRedisIdempotencyStore_StalePendingIsReclaimed(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	start := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return start }
	_, err := store.AcquireKey(ctx, "k4", "u1", operation, "h1")
	require.NoError(t, err)

	store.now = func() time.Time { return start.Add(2 * time.Minute) }
	replay, err := store.AcquireKey(ctx, "k4", "u1", operation, "h1")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestRedisIdempotencyStore_KeyExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	_, err := store.AcquireKey(ctx, "k5", "u1", operation, "h1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	replay, err := store.AcquireKey(ctx, "k5", "u2", operation, "h9")
	require.NoError(t, err)
	assert.Nil(t, replay)
}

func TestRedisIdempotencyStore_ReleaseOnlyPending(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	_, err := store.AcquireKey(ctx, "k6", "u1", operation, "h1")
	require.NoError(t, err)
	require.NoError(t, store.ReleaseKey(ctx, "k6"))
	assert.False(t, mr.Exists(defaultKeyPrefix+"k6"))

	replay, err := store.AcquireKey(ctx, "k6", "u1", operation, "h1")
	require.NoError(t, err)
	assert.Nil(t, replay, "a released key is acquired afresh")

	require.NoError(t, store.CompleteKey(ctx, "k6", http.StatusCreated, "application/json", map[string]string{"code": "EXPM15102600001"}))
	require.NoError(t, store.ReleaseKey(ctx, "k6"))
	assert.True(t, mr.Exists(defaultKeyPrefix+"k6"), "completed keys are kept for replay")

	require.NoError(t, store.ReleaseKey(ctx, "missing"))
}
