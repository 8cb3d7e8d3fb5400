// Package main is the entry point for the storehouse background worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	appctx "storehouse/internal/core/context"
	"storehouse/internal/infrastructure/config"
	"storehouse/internal/infrastructure/storage/postgres"
	"storehouse/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting storehouse worker")

	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool, cfg.Database.StatementTimeout)
	worker := NewWorker(postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL), pool, cfg.Worker.CleanupInterval, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// expiredKeyCleaner deletes idempotency keys past their TTL.
type expiredKeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs periodic maintenance against the database.
type Worker struct {
	keys     expiredKeyCleaner
	pool     *postgres.Pool
	interval time.Duration
	log      *logger.Logger
}

func NewWorker(keys expiredKeyCleaner, pool *postgres.Pool, interval time.Duration, log *logger.Logger) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		keys:     keys,
		pool:     pool,
		interval: interval,
		log:      log.WithComponent("worker"),
	}
}

// Run cleans up once at start, then on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.cleanupIdempotency(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanupIdempotency(ctx)
			if w.pool != nil {
				w.pool.LogStats(ctx)
			}
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	ctx = appctx.WithTrace(ctx, appctx.NewBackgroundTrace("idempotency-cleanup"))
	log := w.log.WithContext(ctx)

	deleted, err := w.keys.CleanupExpired(ctx)
	if err != nil {
		log.Errorw("failed to cleanup idempotency keys", "error", err)
		return
	}
	if deleted > 0 {
		log.Infow("cleaned up expired idempotency keys", "count", deleted)
	}
}
