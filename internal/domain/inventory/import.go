package inventory

import (
	"context"
	"fmt"

	"storehouse/internal/core/id"
	"storehouse/internal/core/types"
	"storehouse/pkg/logger"
)

// ImportMaterials records incoming materials. NORMAL imports carry a provider
// and prices and wait for approval; RETURN imports complete immediately.
func (s *Service) ImportMaterials(ctx context.Context, actor Actor, cmd ImportMaterialsCommand) (*Receipt, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	receipt := s.newReceipt(MaterialImport, cmd.StorageAreaID, actor, cmd.Note)
	receipt.Type = cmd.Type
	receipt.ReceiverID = &cmd.ReceiverID
	receipt.Status = StatusCompleted
	receipt.TotalPrice = types.Zero()

	lines := cmd.Lines
	if cmd.Type == ReceiptTypeNormal {
		receipt.Status = StatusPendingApproved
		receipt.ProviderID = cmd.ProviderID
		for _, line := range lines {
			receipt.TotalPrice = receipt.TotalPrice.Add(types.LineAmount(*line.Price, line.Quantity))
		}
	} else {
		lines = withoutPrices(lines)
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkStorageArea(ctx, cmd.StorageAreaID, KindMaterial); err != nil {
			return err
		}
		if err := s.checkActiveUser(ctx, cmd.ReceiverID, "receiver"); err != nil {
			return err
		}
		if cmd.Type == ReceiptTypeNormal {
			if err := s.checkProvider(ctx, *cmd.ProviderID); err != nil {
				return err
			}
		}
		return s.createImport(ctx, receipt, lines)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material import receipt created",
		"receipt_id", receipt.ID,
		"code", receipt.Code,
		"type", receipt.Type,
		"status", receipt.Status,
		"lines", len(receipt.Details),
	)
	return receipt, nil
}

// ImportProducts records incoming products. Product imports complete immediately.
func (s *Service) ImportProducts(ctx context.Context, actor Actor, cmd ImportProductsCommand) (*Receipt, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	receipt := s.newReceipt(ProductImport, cmd.StorageAreaID, actor, cmd.Note)
	receipt.ReceiverID = &cmd.ReceiverID
	receipt.Status = StatusCompleted
	receipt.TotalPrice = types.Zero()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkStorageArea(ctx, cmd.StorageAreaID, KindProduct); err != nil {
			return err
		}
		if err := s.checkActiveUser(ctx, cmd.ReceiverID, "receiver"); err != nil {
			return err
		}
		return s.createImport(ctx, receipt, withoutPrices(cmd.Lines))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product import receipt created",
		"receipt_id", receipt.ID,
		"code", receipt.Code,
		"lines", len(receipt.Details),
	)
	return receipt, nil
}

// createImport writes the receipt and adds every line to ledger and mirror.
// Stock rows are touched in ascending item order.
func (s *Service) createImport(ctx context.Context, receipt *Receipt, lines []ImportLine) error {
	kind := receipt.Kind.ItemKind()
	wanted := importDemand(lines)

	if err := s.checkItems(ctx, kind, wanted); err != nil {
		return err
	}
	if err := s.assignCode(ctx, receipt); err != nil {
		return err
	}
	if err := s.receipts.Create(ctx, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}

	locations := make(map[id.ID]id.ID, len(wanted))
	for _, d := range sortedDemand(wanted) {
		loc, err := s.ledger.AddQuantity(ctx, kind, d.ItemID, receipt.StorageAreaID, d.Quantity)
		if err != nil {
			return fmt.Errorf("add stock of %s %s: %w", kind, d.ItemID, err)
		}
		locations[d.ItemID] = loc.ID

		if err := s.items.AdjustQuantity(ctx, kind, d.ItemID, d.Quantity); err != nil {
			return fmt.Errorf("adjust %s %s: %w", kind, d.ItemID, err)
		}
	}

	details := make([]ReceiptDetail, len(lines))
	for i, line := range lines {
		details[i] = ReceiptDetail{
			ID:                id.New(),
			ReceiptID:         receipt.ID,
			ItemID:            line.ItemID,
			StorageAreaID:     receipt.StorageAreaID,
			StorageLocationID: locations[line.ItemID],
			Quantity:          line.Quantity,
			Price:             line.Price,
			MinimumStockLevel: line.MinimumStockLevel,
		}
		if kind == KindProduct && line.MinimumStockLevel != nil {
			if err := s.items.SetMinimumStockLevel(ctx, line.ItemID, *line.MinimumStockLevel); err != nil {
				return fmt.Errorf("set minimum stock level of %s: %w", line.ItemID, err)
			}
		}
	}
	if err := s.receipts.SaveDetails(ctx, receipt.Kind, details); err != nil {
		return fmt.Errorf("save details: %w", err)
	}
	receipt.Details = details

	return s.logCreate(ctx, receipt)
}

// withoutPrices drops prices from lines where they carry no meaning.
func withoutPrices(lines []ImportLine) []ImportLine {
	out := make([]ImportLine, len(lines))
	for i, line := range lines {
		line.Price = nil
		out[i] = line
	}
	return out
}
