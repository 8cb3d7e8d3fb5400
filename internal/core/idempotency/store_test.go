package idempotency

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
)

func TestRecordResolve(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	base := Record{
		Key:         "k1",
		UserID:      "u1",
		Operation:   "POST /api/v1/export/products",
		RequestHash: "h1",
		Status:      StatusPending,
		CreatedAt:   now.Add(-10 * time.Second),
		UpdatedAt:   now.Add(-10 * time.Second),
		ExpiresAt:   now.Add(time.Hour),
	}

	t.Run("in flight duplicate conflicts", func(t *testing.T) {
		replay, reclaim, err := base.Resolve("u1", base.Operation, "h1", now)
		assert.Nil(t, replay)
		assert.False(t, reclaim)
		assert.True(t, apperror.HasCode(err, apperror.CodeIdempotency))
	})

	t.Run("different body is a mismatch", func(t *testing.T) {
		_, _, err := base.Resolve("u1", base.Operation, "h2", now)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, "Idempotency key mismatch", appErr.Message)
	})

	t.Run("completed key replays", func(t *testing.T) {
		rec := base
		rec.Status = StatusSuccess
		rec.StatusCode = http.StatusCreated
		rec.Response = []byte(`{"code":"EXPP15102600001"}`)

		replay, reclaim, err := rec.Resolve("u1", base.Operation, "h1", now)
		require.NoError(t, err)
		assert.False(t, reclaim)
		require.NotNil(t, replay)
		assert.Equal(t, http.StatusCreated, replay.StatusCode)
		assert.Equal(t, "application/json", replay.ContentType)
		assert.JSONEq(t, `{"code":"EXPP15102600001"}`, string(replay.Body))
	})

	t.Run("stale pending key is reclaimed", func(t *testing.T) {
		rec := base
		rec.UpdatedAt = now.Add(-2 * StaleAfter)

		replay, reclaim, err := rec.Resolve("u1", base.Operation, "h1", now)
		require.NoError(t, err)
		assert.Nil(t, replay)
		assert.True(t, reclaim)
	})

	t.Run("expired key is reclaimed whatever it stored", func(t *testing.T) {
		rec := base
		rec.UserID = "someone-else"
		rec.ExpiresAt = now.Add(-time.Second)

		_, reclaim, err := rec.Resolve("u1", base.Operation, "h1", now)
		require.NoError(t, err)
		assert.True(t, reclaim)
	})
}
