// Package inventory_repo provides PostgreSQL implementations of the
// inventory repositories. Every query runs on the transaction carried by
// the context, or on the pool outside one.
package inventory_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"storehouse/internal/core/apperror"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/storage/postgres"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNumericOutOfRange   = "22003"
)

// builder returns a squirrel builder with PostgreSQL placeholder format.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// base holds the transaction manager shared by all repositories.
type base struct {
	txManager *postgres.TxManager
}

func (b base) get(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, b.txManager.GetQuerier(ctx), dst, sql, args...)
}

func (b base) selectAll(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, b.txManager.GetQuerier(ctx), dst, sql, args...)
}

func (b base) exec(ctx context.Context, q squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build query: %w", err)
	}
	return b.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
}

// mapWriteError turns constraint violations into client errors.
func mapWriteError(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewConflict(what + " already exists").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgForeignKeyViolation:
			return apperror.NewValidation(what + " references a missing row").
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgNumericOutOfRange:
			return apperror.NewValidation(what + ": quantity out of range").WithCause(err)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func itemTable(kind inventory.ItemKind) string {
	return string(kind) + "s"
}

func locationTable(kind inventory.ItemKind) string {
	return string(kind) + "_storage_locations"
}
