// Package main applies the embedded schema migrations.
//
// Usage:
//
//	migrate up          apply all pending migrations
//	migrate down [n]    roll back n migrations (default 1)
//	migrate version     print the current version
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"storehouse/internal/infrastructure/config"
	"storehouse/migrations"
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

	if len(os.Args) < 2 {
		log.Fatal("usage: migrate up | down [n] | version")
	}
	if cfg.Database.DSN == "" {
		log.Fatal("database dsn is required")
	}

	m, db, err := newMigrate(cfg.Database)
	if err != nil {
		log.Fatalw("failed to initialize migrations", "error", err)
	}
	defer func() {
		_, _ = m.Close()
		_ = db.Close()
	}()

	switch cmd := os.Args[1]; cmd {
	case "up":
		err = ignoreNoChange(m.Up())
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps < 1 {
				log.Fatalw("invalid step count", "value", os.Args[2])
			}
		}
		err = ignoreNoChange(m.Steps(-steps))
	case "version":
	default:
		log.Fatalw("unknown command", "command", cmd)
	}
	if err != nil {
		log.Fatalw("migration failed", "command", os.Args[1], "error", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("no migrations applied")
		return
	}
	if err != nil {
		log.Fatalw("failed to read migration version", "error", err)
	}
	log.Infow("migration state", "version", version, "dirty", dirty)
}

func newMigrate(cfg config.DatabaseConfig) (*migrate.Migrate, *sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{StatementTimeout: cfg.StatementTimeout})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create embedded source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, db, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
