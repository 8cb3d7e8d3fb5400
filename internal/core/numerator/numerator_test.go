package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrefix(t *testing.T) {
	day := time.Date(2026, time.October, 5, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "IMPM051026", BuildPrefix("IMPM", day))
}

func TestFormatCode(t *testing.T) {
	assert.Equal(t, "EXPP05102600001", FormatCode("EXPP051026", 1))
	assert.Equal(t, "EXPP05102612345", FormatCode("EXPP051026", 12345))
}

func TestNextSequence(t *testing.T) {
	tests := []struct {
		name     string
		lastCode string
		want     int64
		wantErr  bool
	}{
		{name: "empty series starts at one", lastCode: "", want: 1},
		{name: "increments last code", lastCode: "IMPM05102600041", want: 42},
		{name: "foreign prefix", lastCode: "EXPM05102600041", wantErr: true},
		{name: "non numeric suffix", lastCode: "IMPM0510260004x", wantErr: true},
		{name: "exhausted", lastCode: "IMPM05102699999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextSequence("IMPM051026", tt.lastCode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMockGenerator_MonotonicPerPrefix(t *testing.T) {
	gen := &MockGenerator{}
	ctx := context.Background()
	day := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

	var codes []string
	for i := 0; i < 3; i++ {
		code, err := gen.NextCode(ctx, "IMPM", day)
		require.NoError(t, err)
		codes = append(codes, code)
	}
	other, err := gen.NextCode(ctx, "IMPM", day.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, []string{"IMPM15102600001", "IMPM15102600002", "IMPM15102600003"}, codes)
	assert.Equal(t, "IMPM16102600001", other)

	gen.Rewind("IMPM151026")
	again, err := gen.NextCode(ctx, "IMPM", day)
	require.NoError(t, err)
	assert.Equal(t, "IMPM15102600003", again)
}
