// Package numerator provides domain contracts for receipt code numbering.
// Implementations live in infrastructure layer.
//
// A code is a prefix followed by a zero-padded sequence, for example
// IMPM15102600001: series "IMPM", day 15.10.26, sequence 1.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// PadWidth is the fixed width of the sequence suffix.
const PadWidth = 5

// MaxSequence is the largest sequence that fits into PadWidth digits.
const MaxSequence = 99999

// Series identifies one family of codes (item kind x movement direction).
type Series string

// Generator produces unique, sortable receipt codes.
// This is the domain contract - implementations live in infrastructure layer.
type Generator interface {
	// NextCode returns the next code of the series for the calendar day of at.
	// It must be called inside the transaction that persists the receipt so
	// that a rollback releases the number.
	NextCode(ctx context.Context, series Series, at time.Time) (string, error)
}

// BuildPrefix returns series letters followed by ddmmyy of the day.
func BuildPrefix(series Series, at time.Time) string {
	return string(series) + at.Format("020106")
}

// FormatCode appends the zero-padded sequence to prefix.
func FormatCode(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, PadWidth, seq)
}

// ParseSequence extracts the trailing sequence of a code carrying prefix.
func ParseSequence(prefix, code string) (int64, error) {
	if len(code) != len(prefix)+PadWidth || code[:len(prefix)] != prefix {
		return 0, fmt.Errorf("code %q does not match prefix %q", code, prefix)
	}
	n, err := strconv.ParseInt(code[len(prefix):], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse sequence of %q: %w", code, err)
	}
	return n, nil
}

// NextSequence derives the sequence that follows lastCode, the greatest
// existing code sharing prefix. An empty lastCode starts the series at 1.
func NextSequence(prefix, lastCode string) (int64, error) {
	if lastCode == "" {
		return 1, nil
	}
	n, err := ParseSequence(prefix, lastCode)
	if err != nil {
		return 0, err
	}
	if n >= MaxSequence {
		return 0, fmt.Errorf("sequence exhausted for prefix %q", prefix)
	}
	return n + 1, nil
}
