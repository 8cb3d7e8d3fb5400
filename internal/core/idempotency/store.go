// Package idempotency defines the contract for replay-safe mutating requests.
// Implementations live in storage/postgres and cache (Redis).
package idempotency

import (
	"context"
	"time"

	"storehouse/internal/core/apperror"
)

// StaleAfter is how long a pending key may go without an update before
// another request may reclaim it.
const StaleAfter = time.Minute

// Status represents the state of an idempotent operation.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Replay is the cached HTTP response for a completed operation.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store manages idempotency keys.
type Store interface {
	// AcquireKey attempts to acquire a key.
	// Returns:
	//   - (nil, nil) if key acquired successfully
	//   - (replay, nil) if operation already completed (success or failed)
	//   - (nil, error) if key is locked by another request or reused for a different request
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*Replay, error)

	// CompleteKey marks a key as completed with the response to replay.
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error

	// FailKey marks a key as failed with the response to replay.
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error

	// ReleaseKey drops a pending key so the same request can be retried.
	ReleaseKey(ctx context.Context, key string) error
}

// NormalizeStatus defaults a missing stored status to 200.
func NormalizeStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

// NormalizeContentType defaults a missing stored content type to JSON.
func NormalizeContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

// Record is the stored state of a key, shared by the backends.
type Record struct {
	Key         string    `db:"idempotency_key" json:"key"`
	UserID      string    `db:"user_id" json:"user_id"`
	Operation   string    `db:"operation" json:"operation"`
	RequestHash string    `db:"request_hash" json:"request_hash"`
	Status      Status    `db:"status" json:"status"`
	Response    []byte    `db:"response" json:"response,omitempty"`
	StatusCode  int       `db:"response_status" json:"response_status"`
	ContentType string    `db:"response_content_type" json:"response_content_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
}

// Resolve decides what a request presenting an already stored key gets.
// reclaim is true when the stored key is expired or a stale pending key and
// the caller may take it over.
func (r Record) Resolve(userID, operation, requestHash string, now time.Time) (replay *Replay, reclaim bool, err error) {
	if !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt) {
		return nil, true, nil
	}

	if r.UserID != userID || r.Operation != operation || r.RequestHash != requestHash {
		return nil, false, apperror.NewIdempotencyMismatch(r.Key).
			WithDetail("stored_operation", r.Operation).
			WithDetail("request_operation", operation)
	}

	switch r.Status {
	case StatusSuccess, StatusFailed:
		return &Replay{
			StatusCode:  NormalizeStatus(r.StatusCode),
			ContentType: NormalizeContentType(r.ContentType),
			Body:        r.Response,
		}, false, nil
	default:
		if now.Sub(r.UpdatedAt) > StaleAfter {
			return nil, true, nil
		}
		return nil, false, apperror.NewIdempotencyConflict(r.Key)
	}
}
