package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/id"
	"storehouse/internal/core/types"
	"storehouse/internal/domain/inventory"
)

func TestExtractDBColumns_Receipt(t *testing.T) {
	cols := ExtractDBColumns[inventory.Receipt]()

	assert.Equal(t, []string{
		"id", "code", "type", "status", "storage_area_id", "created_by",
		"receiver_id", "approved_by", "provider_id", "total_price", "note",
		"deleted", "created_at", "updated_at",
	}, cols)
	assert.NotContains(t, cols, "kind")
}

type BaseRow struct {
	ID id.ID `db:"id"`
}

type embeddingRow struct {
	BaseRow
	Name    string `db:"name"`
	Ignored string `db:"-"`
	Plain   string
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, ExtractDBColumns[embeddingRow]())
}

func TestStructToMap_ReceiptDetail(t *testing.T) {
	price := types.MustMoney("12.50")
	d := inventory.ReceiptDetail{
		ID:                id.New(),
		ReceiptID:         id.New(),
		ItemID:            id.New(),
		StorageAreaID:     id.New(),
		StorageLocationID: id.New(),
		Quantity:          4,
		Price:             &price,
	}

	m := StructToMap(&d)

	assert.Equal(t, d.ID, m["id"])
	assert.Equal(t, int64(4), m["quantity"])
	assert.Equal(t, &price, m["price"])
	assert.Nil(t, m["minimum_stock_level"])
}

func TestValuesOf_FollowsColumnOrder(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	r := inventory.Receipt{ID: id.New(), Code: "EXPM15102600001", CreatedAt: now}

	values := ValuesOf(r, []string{"code", "created_at", "id"})

	require.Len(t, values, 3)
	assert.Equal(t, "EXPM15102600001", values[0])
	assert.Equal(t, now, values[1])
	assert.Equal(t, r.ID, values[2])
}
