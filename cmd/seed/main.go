// Package main provides a CLI tool for seeding the database with development
// reference data and printing a bearer token for the seeded admin.
package main

import (
	"context"
	"fmt"
	"os"

	"storehouse/internal/core/id"
	"storehouse/internal/domain/auth"
	"storehouse/internal/domain/inventory"
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

	log, err := logger.New(logger.Config{Level: "info", Format: logger.FormatConsole})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.App.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("jwt secret is required to mint the development token")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@storehouse.local"
	}

	adminID, err := seedAdminUser(ctx, pool, adminEmail)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}
	log.Infow("admin user ready", "email", adminEmail, "user_id", adminID)

	if err := seedReferenceData(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed reference data", "error", err)
	}

	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})
	token, expiresAt, err := jwtService.GenerateAccessToken(adminID, adminEmail, []string{"admin"})
	if err != nil {
		log.Fatalw("failed to mint token", "error", err)
	}

	log.Infow("seeding completed successfully", "token_expires_at", expiresAt)
	fmt.Println(token)
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, email string) (id.ID, error) {
	var userID id.ID
	err := pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, is_active, deleted)
		VALUES ($1, 'System Admin', $2, true, false)
		ON CONFLICT (email) DO UPDATE SET is_active = true, deleted = false
		RETURNING id
	`, id.New(), email).Scan(&userID)
	if err != nil {
		return id.Nil(), fmt.Errorf("upsert admin user: %w", err)
	}
	return userID, nil
}

// seedReferenceData fills an empty database with storage areas, a provider,
// a receiver and a few items. A database that already has storage areas is
// left alone.
func seedReferenceData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM storage_areas`).Scan(&existing); err != nil {
		return fmt.Errorf("count storage areas: %w", err)
	}
	if existing > 0 {
		log.Infow("reference data already present, skipping", "storage_areas", existing)
		return nil
	}

	areas := []struct {
		name     string
		areaType inventory.AreaType
	}{
		{"Finished goods A", inventory.AreaTypeProduct},
		{"Finished goods B", inventory.AreaTypeProduct},
		{"Raw materials", inventory.AreaTypeMaterial},
	}
	for _, a := range areas {
		if _, err := pool.Exec(ctx,
			`INSERT INTO storage_areas (id, name, type) VALUES ($1, $2, $3)`,
			id.New(), a.name, a.areaType,
		); err != nil {
			return fmt.Errorf("insert storage area %q: %w", a.name, err)
		}
	}

	if _, err := pool.Exec(ctx,
		`INSERT INTO providers (id, name) VALUES ($1, 'Default supplier')`, id.New(),
	); err != nil {
		return fmt.Errorf("insert provider: %w", err)
	}
	if _, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, is_active) VALUES ($1, 'Warehouse receiver', true)`, id.New(),
	); err != nil {
		return fmt.Errorf("insert receiver: %w", err)
	}

	for _, name := range []string{"Office chair", "Desk lamp", "Bookshelf"} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, minimum_stock_level) VALUES ($1, $2, 5)`, id.New(), name,
		); err != nil {
			return fmt.Errorf("insert product %q: %w", name, err)
		}
	}
	for _, name := range []string{"Oak board", "Steel tube", "Fabric roll"} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO materials (id, name) VALUES ($1, $2)`, id.New(), name,
		); err != nil {
			return fmt.Errorf("insert material %q: %w", name, err)
		}
	}

	log.Info("reference data seeded")
	return nil
}
