package inventory_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
)

func toSQL(t *testing.T, q squirrel.Sqlizer) (string, []any) {
	t.Helper()
	sql, args, err := q.ToSql()
	require.NoError(t, err)
	return sql, args
}

func TestLedgerQueries(t *testing.T) {
	areaID, itemID, locID := id.New(), id.New(), id.New()
	itemIDs := []id.ID{itemID}

	tests := []struct {
		name     string
		query    squirrel.Sqlizer
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "lock locations in item order",
			query:    lockLocationsQuery(inventory.KindProduct, areaID, itemIDs),
			wantSQL:  "SELECT id, item_id, storage_area_id, quantity, deleted FROM product_storage_locations WHERE storage_area_id = $1 AND item_id = ANY($2) AND deleted = false ORDER BY item_id FOR UPDATE",
			wantArgs: []any{areaID, itemIDs},
		},
		{
			name:     "guarded subtract",
			query:    subtractQuery(inventory.KindMaterial, locID, 3),
			wantSQL:  "UPDATE material_storage_locations SET quantity = quantity - $1 WHERE id = $2 AND deleted = false AND quantity >= $3",
			wantArgs: []any{int64(3), locID, int64(3)},
		},
		{
			name:     "sum of active rows",
			query:    sumQuery(inventory.KindProduct, itemID),
			wantSQL:  "SELECT COALESCE(SUM(quantity), 0)::bigint FROM product_storage_locations WHERE item_id = $1 AND deleted = false",
			wantArgs: []any{itemID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := toSQL(t, tt.query)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestAddQuantityQuery_UpsertsAndReactivates(t *testing.T) {
	itemID, areaID := id.New(), id.New()

	sql, args := toSQL(t, addQuantityQuery(inventory.KindMaterial, itemID, areaID, 7))

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO material_storage_locations "))
	assert.Contains(t, sql, "ON CONFLICT (item_id, storage_area_id) DO UPDATE SET")
	assert.Contains(t, sql, "CASE WHEN material_storage_locations.deleted THEN EXCLUDED.quantity ELSE material_storage_locations.quantity + EXCLUDED.quantity END")
	assert.Contains(t, sql, "deleted = false RETURNING id, item_id, storage_area_id, quantity, deleted")
	require.Len(t, args, 5)
	assert.Equal(t, itemID, args[1])
	assert.Equal(t, areaID, args[2])
	assert.Equal(t, int64(7), args[3])
	assert.Equal(t, false, args[4])
}

func TestItemQueries(t *testing.T) {
	itemID := id.New()

	sql, args := toSQL(t, adjustQuery(inventory.KindProduct, itemID, -2))
	assert.Equal(t, "UPDATE products SET quantity_available = quantity_available + $1 WHERE id = $2 AND quantity_available + $3 >= 0", sql)
	assert.Equal(t, []any{int64(-2), itemID, int64(-2)}, args)

	sql, _ = toSQL(t, selectItems(inventory.KindMaterial).Where("id = ?", itemID))
	assert.Equal(t, "SELECT id, name, quantity_available, NULL::bigint AS minimum_stock_level, deleted FROM materials WHERE id = $1", sql)

	sql, _ = toSQL(t, selectItems(inventory.KindProduct).Where("id = ?", itemID))
	assert.Equal(t, "SELECT id, name, quantity_available, minimum_stock_level, deleted FROM products WHERE id = $1", sql)
}

func TestTransitionQuery_IsGuardedByStatus(t *testing.T) {
	receiptID, approver := id.New(), id.New()
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	sql, args := toSQL(t, transitionQuery(inventory.MaterialImport, receiptID,
		inventory.StatusPendingApproved, inventory.StatusCompleted, approver, at))

	assert.Equal(t, "UPDATE material_import_receipts SET approved_by = $1, status = $2, updated_at = $3 WHERE id = $4 AND status = $5 AND deleted = false", sql)
	assert.Equal(t, []any{approver, inventory.StatusCompleted, at, receiptID, inventory.StatusPendingApproved}, args)
}

func TestInsertDetailsQuery_MultiRow(t *testing.T) {
	details := []inventory.ReceiptDetail{
		{ID: id.New(), ReceiptID: id.New(), ItemID: id.New(), Quantity: 1},
		{ID: id.New(), ReceiptID: id.New(), ItemID: id.New(), Quantity: 2},
	}

	sql, args := toSQL(t, insertDetailsQuery(inventory.ProductExport, details))

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO product_export_receipt_details (id,receipt_id,item_id,storage_area_id,storage_location_id,quantity,price,minimum_stock_level) VALUES "))
	assert.Len(t, args, 2*len(detailColumns))
	assert.Equal(t, details[1].ID, args[len(detailColumns)])
}

func TestMapWriteError(t *testing.T) {
	outOfRange := mapWriteError(&pgconn.PgError{Code: pgNumericOutOfRange}, "add product stock")
	assert.True(t, apperror.HasCode(outOfRange, apperror.CodeValidation))

	dup := mapWriteError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "uq"}, "receipt X")
	assert.True(t, apperror.HasCode(dup, apperror.CodeConflict))

	other := mapWriteError(&pgconn.PgError{Code: "57014"}, "add product stock")
	assert.False(t, apperror.IsAppError(other))
}
