// Package cache provides Redis-backed infrastructure.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/idempotency"
	"storehouse/internal/infrastructure/config"
)

const defaultKeyPrefix = "storehouse:idempotency:"

var _ idempotency.Store = (*RedisIdempotencyStore)(nil)

// RedisIdempotencyStore keeps idempotency records as JSON values whose TTL
// matches the replay window. Suitable when several API instances share state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	now       func() time.Time
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisIdempotencyStore creates a store on an existing client.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisIdempotencyStore) redisKey(key string) string {
	return s.keyPrefix + key
}

// AcquireKey claims key with SET NX. An existing record is replayed,
// rejected, or reclaimed under WATCH when stale.
func (s *RedisIdempotencyStore) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*idempotency.Replay, error) {
	now := s.now()
	fresh := idempotency.Record{
		Key:         key,
		UserID:      userID,
		Operation:   operation,
		RequestHash: requestHash,
		Status:      idempotency.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}
	raw, err := json.Marshal(fresh)
	if err != nil {
		return nil, fmt.Errorf("marshal idempotency record: %w", err)
	}

	rk := s.redisKey(key)
	acquired, err := s.client.SetNX(ctx, rk, raw, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if acquired {
		return nil, nil
	}

	var replay *idempotency.Replay
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET.
			return apperror.NewIdempotencyConflict(key)
		}
		if err != nil {
			return err
		}

		var record idempotency.Record
		if err := json.Unmarshal(stored, &record); err != nil {
			return fmt.Errorf("decode idempotency record: %w", err)
		}

		var reclaim bool
		replay, reclaim, err = record.Resolve(userID, operation, requestHash, now)
		if err != nil || replay != nil {
			return err
		}
		if !reclaim {
			return apperror.NewIdempotencyConflict(key)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, rk, raw, s.ttl)
			return nil
		})
		return err
	}, rk)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("resolve idempotency key: %w", err)
	}
	return replay, nil
}

// CompleteKey stores the successful response for replay.
func (s *RedisIdempotencyStore) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	return s.finish(ctx, key, idempotency.StatusSuccess, statusCode, contentType, body)
}

// FailKey stores the failed response for replay.
func (s *RedisIdempotencyStore) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	return s.finish(ctx, key, idempotency.StatusFailed, statusCode, contentType, body)
}

// ReleaseKey deletes the record unless it already holds a response.
func (s *RedisIdempotencyStore) ReleaseKey(ctx context.Context, key string) error {
	rk := s.redisKey(key)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		var record idempotency.Record
		if err := json.Unmarshal(stored, &record); err != nil {
			return fmt.Errorf("decode idempotency record: %w", err)
		}
		if record.Status != idempotency.StatusPending {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, rk)
			return nil
		})
		return err
	}, rk)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) finish(ctx context.Context, key string, status idempotency.Status, statusCode int, contentType string, body []byte) error {
	rk := s.redisKey(key)
	stored, err := s.client.Get(ctx, rk).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load idempotency key: %w", err)
	}

	var record idempotency.Record
	if err := json.Unmarshal(stored, &record); err != nil {
		return fmt.Errorf("decode idempotency record: %w", err)
	}
	record.Status = status
	record.StatusCode = statusCode
	record.ContentType = contentType
	record.Response = body
	record.UpdatedAt = s.now()

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, rk, raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}
