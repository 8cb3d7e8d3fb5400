package numerator

import (
	"context"
	"sync"
	"time"
)

// MockGenerator is an in-memory Generator for unit tests.
// It keeps one counter per prefix, the same contract as the database counter row.
type MockGenerator struct {
	mu       sync.Mutex
	counters map[string]int64

	// NextCodeFunc overrides the default behaviour when set.
	NextCodeFunc func(ctx context.Context, series Series, at time.Time) (string, error)
}

// NextCode implements Generator.
func (m *MockGenerator) NextCode(ctx context.Context, series Series, at time.Time) (string, error) {
	if m.NextCodeFunc != nil {
		return m.NextCodeFunc(ctx, series, at)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}
	prefix := BuildPrefix(series, at)
	m.counters[prefix]++
	return FormatCode(prefix, m.counters[prefix]), nil
}

// Rewind undoes the last number of the prefix. Test transaction fakes call it
// on rollback to mirror the database counter behaviour.
func (m *MockGenerator) Rewind(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counters[prefix] > 0 {
		m.counters[prefix]--
	}
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
