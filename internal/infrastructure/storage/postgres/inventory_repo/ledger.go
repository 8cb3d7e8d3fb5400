package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/storage/postgres"
)

var _ inventory.LedgerRepository = (*LedgerRepo)(nil)

var locationColumns = postgres.ExtractDBColumns[inventory.StockLocation]()

// LedgerRepo maintains product_storage_locations and material_storage_locations.
type LedgerRepo struct {
	base
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{base{txManager: txManager}}
}

// lockLocationsQuery locks rows in item id order so that concurrent exports
// touching overlapping items always acquire locks in the same sequence.
func lockLocationsQuery(kind inventory.ItemKind, areaID id.ID, itemIDs []id.ID) squirrel.SelectBuilder {
	return builder().Select(locationColumns...).
		From(locationTable(kind)).
		Where("storage_area_id = ?", areaID).
		Where("item_id = ANY(?)", itemIDs).
		Where("deleted = false").
		OrderBy("item_id").
		Suffix("FOR UPDATE")
}

func (r *LedgerRepo) LockLocations(ctx context.Context, kind inventory.ItemKind, areaID id.ID, itemIDs []id.ID) (map[id.ID]inventory.StockLocation, error) {
	out := make(map[id.ID]inventory.StockLocation, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	var rows []inventory.StockLocation
	if err := r.selectAll(ctx, &rows, lockLocationsQuery(kind, areaID, itemIDs)); err != nil {
		return nil, fmt.Errorf("lock %s locations: %w", kind, err)
	}
	for _, loc := range rows {
		out[loc.ItemID] = loc
	}
	return out, nil
}

// addQuantityQuery upserts the (item, area) row. A soft-deleted row comes
// back to life holding only the new quantity.
func addQuantityQuery(kind inventory.ItemKind, itemID, areaID id.ID, qty int64) squirrel.InsertBuilder {
	table := locationTable(kind)
	return builder().Insert(table).
		Columns("id", "item_id", "storage_area_id", "quantity", "deleted").
		Values(id.New(), itemID, areaID, qty, false).
		Suffix(fmt.Sprintf(
			"ON CONFLICT (item_id, storage_area_id) DO UPDATE SET "+
				"quantity = CASE WHEN %[1]s.deleted THEN EXCLUDED.quantity ELSE %[1]s.quantity + EXCLUDED.quantity END, "+
				"deleted = false "+
				"RETURNING id, item_id, storage_area_id, quantity, deleted", table))
}

func (r *LedgerRepo) AddQuantity(ctx context.Context, kind inventory.ItemKind, itemID, areaID id.ID, qty int64) (*inventory.StockLocation, error) {
	var loc inventory.StockLocation
	if err := r.get(ctx, &loc, addQuantityQuery(kind, itemID, areaID, qty)); err != nil {
		return nil, mapWriteError(err, "add "+string(kind)+" stock")
	}
	return &loc, nil
}

// subtractQuery only matches while the row still holds qty.
func subtractQuery(kind inventory.ItemKind, locationID id.ID, qty int64) squirrel.UpdateBuilder {
	return builder().Update(locationTable(kind)).
		Set("quantity", squirrel.Expr("quantity - ?", qty)).
		Where("id = ?", locationID).
		Where("deleted = false").
		Where("quantity >= ?", qty)
}

func (r *LedgerRepo) SubtractQuantity(ctx context.Context, kind inventory.ItemKind, locationID id.ID, qty int64) error {
	tag, err := r.exec(ctx, subtractQuery(kind, locationID, qty))
	if err != nil {
		return fmt.Errorf("subtract %s stock: %w", kind, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var loc inventory.StockLocation
	q := builder().Select(locationColumns...).From(locationTable(kind)).Where("id = ?", locationID)
	if err := r.get(ctx, &loc, q); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound("stock location", locationID)
		}
		return fmt.Errorf("load %s location: %w", kind, err)
	}
	available := loc.Quantity
	if loc.Deleted {
		available = 0
	}
	return apperror.NewInsufficientStock([]apperror.StockShortage{{
		ItemKind:  string(kind),
		ItemID:    loc.ItemID.String(),
		Available: available,
		Requested: qty,
	}})
}

func (r *LedgerRepo) ListByItem(ctx context.Context, kind inventory.ItemKind, itemID id.ID) ([]inventory.StockLocation, error) {
	q := builder().Select(locationColumns...).
		From(locationTable(kind)).
		Where("item_id = ?", itemID).
		Where("deleted = false").
		OrderBy("storage_area_id")

	var rows []inventory.StockLocation
	if err := r.selectAll(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list %s locations: %w", kind, err)
	}
	return rows, nil
}

func sumQuery(kind inventory.ItemKind, itemID id.ID) squirrel.SelectBuilder {
	return builder().Select("COALESCE(SUM(quantity), 0)::bigint").
		From(locationTable(kind)).
		Where("item_id = ?", itemID).
		Where("deleted = false")
}

func (r *LedgerRepo) SumByItem(ctx context.Context, kind inventory.ItemKind, itemID id.ID) (int64, error) {
	var sum int64
	if err := r.get(ctx, &sum, sumQuery(kind, itemID)); err != nil {
		return 0, fmt.Errorf("sum %s stock: %w", kind, err)
	}
	return sum, nil
}
