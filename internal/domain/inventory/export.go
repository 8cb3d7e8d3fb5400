package inventory

import (
	"context"
	"fmt"

	"storehouse/internal/core/id"
	"storehouse/internal/core/types"
	"storehouse/pkg/logger"
)

// ExportMaterials takes materials out of a storage area. The receipt waits
// for approval; stock leaves the ledger and the mirror immediately.
func (s *Service) ExportMaterials(ctx context.Context, actor Actor, cmd ExportMaterialsCommand) (*Receipt, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	receipt := s.newReceipt(MaterialExport, cmd.StorageAreaID, actor, cmd.Note)
	receipt.Status = StatusPendingApproved
	receipt.TotalPrice = types.Zero()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkStorageArea(ctx, cmd.StorageAreaID, KindMaterial); err != nil {
			return err
		}
		return s.createExport(ctx, receipt, cmd.Lines)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "material export receipt created",
		"receipt_id", receipt.ID,
		"code", receipt.Code,
		"lines", len(receipt.Details),
	)
	return receipt, nil
}

// ExportProducts ships products to a receiver. The creator is recorded as
// the approver up front.
func (s *Service) ExportProducts(ctx context.Context, actor Actor, cmd ExportProductsCommand) (*Receipt, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	receipt := s.newReceipt(ProductExport, cmd.StorageAreaID, actor, cmd.Note)
	receipt.Status = StatusPendingApproved
	receipt.ReceiverID = &cmd.ReceiverID
	approver := actor.UserID
	receipt.ApprovedBy = &approver
	receipt.TotalPrice = types.Zero()

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkStorageArea(ctx, cmd.StorageAreaID, KindProduct); err != nil {
			return err
		}
		if err := s.checkActiveUser(ctx, cmd.ReceiverID, "receiver"); err != nil {
			return err
		}
		return s.createExport(ctx, receipt, cmd.Lines)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "product export receipt created",
		"receipt_id", receipt.ID,
		"code", receipt.Code,
		"lines", len(receipt.Details),
	)
	return receipt, nil
}

// createExport locks the locations, rejects the whole receipt on any
// shortfall, then writes the receipt and subtracts every line.
func (s *Service) createExport(ctx context.Context, receipt *Receipt, lines []ExportLine) error {
	kind := receipt.Kind.ItemKind()
	wanted := exportDemand(lines)

	if err := s.checkItems(ctx, kind, wanted); err != nil {
		return err
	}

	ordered := sortedDemand(wanted)
	locations, err := s.ledger.LockLocations(ctx, kind, receipt.StorageAreaID, demandIDs(ordered))
	if err != nil {
		return fmt.Errorf("lock stock locations: %w", err)
	}
	if err := checkDemand(kind, wanted, locations); err != nil {
		return err
	}

	if err := s.assignCode(ctx, receipt); err != nil {
		return err
	}
	if err := s.receipts.Create(ctx, receipt); err != nil {
		return fmt.Errorf("create receipt: %w", err)
	}

	for _, d := range ordered {
		if err := s.ledger.SubtractQuantity(ctx, kind, locations[d.ItemID].ID, d.Quantity); err != nil {
			return fmt.Errorf("subtract stock of %s %s: %w", kind, d.ItemID, err)
		}
		if err := s.items.AdjustQuantity(ctx, kind, d.ItemID, -d.Quantity); err != nil {
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
			StorageLocationID: locations[line.ItemID].ID,
			Quantity:          line.Quantity,
		}
	}
	if err := s.receipts.SaveDetails(ctx, receipt.Kind, details); err != nil {
		return fmt.Errorf("save details: %w", err)
	}
	receipt.Details = details

	return s.logCreate(ctx, receipt)
}
