package inventory

import (
	"context"
	"fmt"

	"storehouse/internal/core/id"
	"storehouse/internal/core/tx"
	"storehouse/pkg/logger"
)

// StockView compares an item's aggregate mirror with its ledger rows, read
// from one snapshot.
func (s *Service) StockView(ctx context.Context, kind ItemKind, itemID id.ID) (*StockView, error) {
	var result *StockView
	err := tx.ReadOnly(ctx, s.txManager, func(ctx context.Context) error {
		item, err := s.items.GetItem(ctx, kind, itemID)
		if err != nil {
			return err
		}
		result, err = s.view(ctx, kind, item)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile rewrites the mirror from the ledger when they disagree and
// returns the view as it was before the correction.
func (s *Service) Reconcile(ctx context.Context, actor Actor, kind ItemKind, itemID id.ID) (*StockView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var result *StockView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.LockItem(ctx, kind, itemID)
		if err != nil {
			return err
		}
		v, err := s.view(ctx, kind, item)
		if err != nil {
			return err
		}
		result = v
		if v.Drift == 0 {
			return nil
		}

		if err := s.items.SetQuantity(ctx, kind, itemID, v.LedgerSum); err != nil {
			return fmt.Errorf("set mirror: %w", err)
		}
		err = s.audit.LogChange(ctx, string(kind)+"s", itemID, string(AuditReconcile), actor.UserID, map[string]any{
			"mirror":     v.Mirror,
			"ledger_sum": v.LedgerSum,
		})
		if err != nil {
			return fmt.Errorf("audit reconcile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Drift != 0 {
		logger.Warn(ctx, "aggregate quantity corrected",
			"kind", kind,
			"item_id", itemID,
			"mirror", result.Mirror,
			"ledger_sum", result.LedgerSum,
		)
	}
	return result, nil
}

func (s *Service) view(ctx context.Context, kind ItemKind, item *Item) (*StockView, error) {
	locations, err := s.ledger.ListByItem(ctx, kind, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list stock locations: %w", err)
	}
	sum, err := s.ledger.SumByItem(ctx, kind, item.ID)
	if err != nil {
		return nil, fmt.Errorf("sum stock locations: %w", err)
	}
	return &StockView{
		Kind:      kind,
		Item:      *item,
		Mirror:    item.QuantityAvailable,
		LedgerSum: sum,
		Drift:     item.QuantityAvailable - sum,
		Locations: locations,
	}, nil
}
