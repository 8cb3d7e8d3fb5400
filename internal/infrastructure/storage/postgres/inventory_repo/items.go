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

var _ inventory.ItemRepository = (*ItemRepo)(nil)

// ItemRepo reads products and materials and maintains quantity_available.
type ItemRepo struct {
	base
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{base{txManager: txManager}}
}

// itemColumns differ per kind: materials carry no minimum stock level.
func itemColumns(kind inventory.ItemKind) []string {
	minLevel := "minimum_stock_level"
	if kind != inventory.KindProduct {
		minLevel = "NULL::bigint AS minimum_stock_level"
	}
	return []string{"id", "name", "quantity_available", minLevel, "deleted"}
}

func selectItems(kind inventory.ItemKind) squirrel.SelectBuilder {
	return builder().Select(itemColumns(kind)...).From(itemTable(kind))
}

func (r *ItemRepo) GetItems(ctx context.Context, kind inventory.ItemKind, ids []id.ID) (map[id.ID]inventory.Item, error) {
	out := make(map[id.ID]inventory.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := selectItems(kind).
		Where("id = ANY(?)", ids).
		Where("deleted = false")

	var items []inventory.Item
	if err := r.selectAll(ctx, &items, q); err != nil {
		return nil, fmt.Errorf("get %ss: %w", kind, err)
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *ItemRepo) GetItem(ctx context.Context, kind inventory.ItemKind, itemID id.ID) (*inventory.Item, error) {
	return r.getOne(ctx, kind, selectItems(kind).Where("id = ?", itemID), itemID)
}

func (r *ItemRepo) LockItem(ctx context.Context, kind inventory.ItemKind, itemID id.ID) (*inventory.Item, error) {
	q := selectItems(kind).Where("id = ?", itemID).Suffix("FOR UPDATE")
	return r.getOne(ctx, kind, q, itemID)
}

func (r *ItemRepo) getOne(ctx context.Context, kind inventory.ItemKind, q squirrel.SelectBuilder, itemID id.ID) (*inventory.Item, error) {
	var it inventory.Item
	if err := r.get(ctx, &it, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(string(kind), itemID)
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return &it, nil
}

// adjustQuery refuses to take the mirror below zero.
func adjustQuery(kind inventory.ItemKind, itemID id.ID, delta int64) squirrel.UpdateBuilder {
	return builder().Update(itemTable(kind)).
		Set("quantity_available", squirrel.Expr("quantity_available + ?", delta)).
		Where("id = ?", itemID).
		Where("quantity_available + ? >= 0", delta)
}

func (r *ItemRepo) AdjustQuantity(ctx context.Context, kind inventory.ItemKind, itemID id.ID, delta int64) error {
	tag, err := r.exec(ctx, adjustQuery(kind, itemID, delta))
	if err != nil {
		return mapWriteError(err, "adjust "+string(kind)+" quantity")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetItem(ctx, kind, itemID); err != nil {
			return err
		}
		return apperror.NewConflict(fmt.Sprintf("aggregate quantity of %s %s would become negative", kind, itemID))
	}
	return nil
}

func (r *ItemRepo) SetQuantity(ctx context.Context, kind inventory.ItemKind, itemID id.ID, quantity int64) error {
	q := builder().Update(itemTable(kind)).
		Set("quantity_available", quantity).
		Where("id = ?", itemID)
	tag, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("set %s quantity: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(string(kind), itemID)
	}
	return nil
}

func (r *ItemRepo) SetMinimumStockLevel(ctx context.Context, productID id.ID, level int64) error {
	q := builder().Update(itemTable(inventory.KindProduct)).
		Set("minimum_stock_level", level).
		Where("id = ?", productID)
	tag, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("set minimum stock level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(string(inventory.KindProduct), productID)
	}
	return nil
}
