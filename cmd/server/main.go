// Package main is the entry point for the storehouse API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storehouse/internal/core/idempotency"
	"storehouse/internal/domain/auth"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/cache"
	"storehouse/internal/infrastructure/config"
	v1 "storehouse/internal/infrastructure/http/v1"
	"storehouse/internal/infrastructure/http/v1/handlers"
	"storehouse/internal/infrastructure/numerator"
	"storehouse/internal/infrastructure/storage/postgres"
	"storehouse/internal/infrastructure/storage/postgres/inventory_repo"
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
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	log.Infow("starting storehouse server", "env", cfg.App.Env)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool, cfg.Database.StatementTimeout)

	audit, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Inventory ---
	service := inventory.NewService(
		inventory.Repositories{
			Items:      inventory_repo.NewItemRepo(txManager),
			Ledger:     inventory_repo.NewLedgerRepo(txManager),
			Receipts:   inventory_repo.NewReceiptRepo(txManager),
			References: inventory_repo.NewReferenceRepo(txManager),
		},
		numerator.New(txManager),
		audit,
		txManager,
	)

	healthChecks := map[string]handlers.HealthCheck{
		"database": pool.Ping,
	}

	// --- Idempotency ---
	var store idempotency.Store
	if cfg.Idempotency.Enabled {
		switch cfg.Idempotency.Backend {
		case config.BackendRedis:
			client, err := cache.NewRedisClient(ctx, cfg.Redis)
			if err != nil {
				log.Fatalw("failed to connect to redis", "error", err)
			}
			defer func() { _ = client.Close() }()
			healthChecks["redis"] = redisPing(client)
			store = cache.NewRedisIdempotencyStore(client, cfg.Idempotency.TTL)
		default:
			store = postgres.NewIdempotencyStore(txManager, cfg.Idempotency.TTL)
		}
		log.Infow("idempotency enabled", "backend", cfg.Idempotency.Backend, "ttl", cfg.Idempotency.TTL)
	}

	// --- Auth ---
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})

	router := v1.NewRouter(v1.RouterConfig{
		Logger:           log,
		TokenValidator:   jwtService,
		Service:          service,
		IdempotencyStore: store,
		HealthChecks:     healthChecks,
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	pool.LogStats(shutdownCtx)

	log.Info("server stopped")
}

func redisPing(client *redis.Client) handlers.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
