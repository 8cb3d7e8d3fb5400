// Package numerator provides the PostgreSQL receipt code sequencer.
// It implements core/numerator.Generator.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"storehouse/internal/core/apperror"
	corenumerator "storehouse/internal/core/numerator"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/storage/postgres"
	"storehouse/pkg/logger"
)

var _ corenumerator.Generator = (*Service)(nil)

const (
	advanceSQL = `
		UPDATE sys_receipt_sequences
		SET last_value = last_value + 1
		WHERE prefix = $1
		RETURNING last_value`

	seedSQL = `
		INSERT INTO sys_receipt_sequences (prefix, last_value)
		VALUES ($1, $2)
		ON CONFLICT (prefix) DO UPDATE SET last_value = sys_receipt_sequences.last_value + 1
		RETURNING last_value`
)

// Service hands out receipt codes from per-prefix counter rows in
// sys_receipt_sequences. The row lock taken by the increment serializes
// creators of the same prefix until their transaction ends, and a rollback
// returns the number.
type Service struct {
	txManager *postgres.TxManager
	tables    map[corenumerator.Series]string
}

// New creates a sequencer that knows the receipt table of every series.
func New(txManager *postgres.TxManager) *Service {
	return &Service{txManager: txManager, tables: receiptTables()}
}

// receiptTables maps each series to the header table whose codes it numbers.
func receiptTables() map[corenumerator.Series]string {
	tables := make(map[corenumerator.Series]string, len(inventory.ReceiptKinds))
	for _, k := range inventory.ReceiptKinds {
		tables[k.Series()] = k.Collection()
	}
	return tables
}

// NextCode returns the next code of series for the day of at.
func (s *Service) NextCode(ctx context.Context, series corenumerator.Series, at time.Time) (string, error) {
	prefix := corenumerator.BuildPrefix(series, at)
	q := s.txManager.GetQuerier(ctx)

	var last int64
	err := q.QueryRow(ctx, advanceSQL, prefix).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		last, err = s.seed(ctx, q, series, prefix)
	}
	if err != nil {
		return "", fmt.Errorf("next code for %s: %w", prefix, err)
	}

	if last > corenumerator.MaxSequence {
		return "", apperror.NewConflict(fmt.Sprintf("receipt code sequence exhausted for %s", prefix)).
			WithDetail("prefix", prefix)
	}
	return corenumerator.FormatCode(prefix, last), nil
}

// seed creates the counter row for a new prefix, continuing after any codes
// already stored under it.
func (s *Service) seed(ctx context.Context, q postgres.Querier, series corenumerator.Series, prefix string) (int64, error) {
	table, ok := s.tables[series]
	if !ok {
		return 0, fmt.Errorf("unknown code series %q", series)
	}

	var lastCode string
	err := q.QueryRow(ctx,
		"SELECT code FROM "+table+" WHERE code LIKE $1 ORDER BY code DESC LIMIT 1",
		prefix+"%").Scan(&lastCode)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("scan existing codes: %w", err)
	}

	next, err := corenumerator.NextSequence(prefix, lastCode)
	if err != nil {
		return 0, err
	}
	if lastCode != "" {
		logger.Info(ctx, "receipt sequence seeded from existing codes", "prefix", prefix, "last_code", lastCode)
	}

	var last int64
	if err := q.QueryRow(ctx, seedSQL, prefix, next).Scan(&last); err != nil {
		return 0, fmt.Errorf("seed sequence: %w", err)
	}
	return last, nil
}
