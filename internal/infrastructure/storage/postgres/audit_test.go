package postgres

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditService_PackSmallChangesStayPlain(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	e := svc.pack(AuditEntry{Changes: json.RawMessage(`{"code":"IMPM15102600001"}`)})

	assert.Equal(t, CompressionNone, e.CompressionAlgo)
	assert.Nil(t, e.ChangesCompressed)
	assert.JSONEq(t, `{"code":"IMPM15102600001"}`, string(e.Changes))
}

func TestAuditService_PackUnpackLargeChanges(t *testing.T) {
	svc, err := NewAuditService(nil)
	require.NoError(t, err)

	lines := make([]map[string]any, 0, 400)
	for i := 0; i < 400; i++ {
		lines = append(lines, map[string]any{"item_id": strings.Repeat("a", 36), "quantity": i})
	}
	raw, err := json.Marshal(map[string]any{"lines": lines})
	require.NoError(t, err)
	require.Greater(t, len(raw), DefaultCompressThreshold)

	packed := svc.pack(AuditEntry{Changes: raw})
	require.Equal(t, CompressionZstd, packed.CompressionAlgo)
	assert.Nil(t, packed.Changes)
	assert.Less(t, len(packed.ChangesCompressed), len(raw))

	unpacked, err := svc.unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(unpacked.Changes))
	assert.Nil(t, unpacked.ChangesCompressed)
}
