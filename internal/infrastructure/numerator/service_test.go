package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	corenumerator "storehouse/internal/core/numerator"
)

func TestReceiptTables_CoverEverySeries(t *testing.T) {
	tables := receiptTables()

	assert.Equal(t, map[corenumerator.Series]string{
		"IMPM": "material_import_receipts",
		"IMPP": "product_import_receipts",
		"EXPM": "material_export_receipts",
		"EXPP": "product_export_receipts",
	}, tables)
}
