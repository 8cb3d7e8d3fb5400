package inventory

import (
	"context"
	"fmt"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/pkg/logger"
)

// Get returns a receipt with its lines. Soft-deleted receipts are not found.
func (s *Service) Get(ctx context.Context, kind ReceiptKind, receiptID id.ID) (*Receipt, error) {
	receipt, err := s.load(ctx, kind, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.Deleted {
		return nil, apperror.NewNotFound(kind.Collection(), receiptID)
	}
	return receipt, nil
}

// Delete soft-deletes a receipt. Ledger and mirror are not reversed.
func (s *Service) Delete(ctx context.Context, actor Actor, kind ReceiptKind, receiptID id.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	var code string
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		receipt, err := s.receipts.GetByID(ctx, kind, receiptID)
		if err != nil {
			return err
		}
		if receipt.Deleted {
			return apperror.NewNotFound(kind.Collection(), receiptID)
		}
		receipt.Kind = kind
		code = receipt.Code

		if err := s.receipts.SoftDelete(ctx, kind, receiptID); err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		return s.logChange(ctx, receipt, AuditDelete, actor.UserID, map[string]any{
			"code":   receipt.Code,
			"status": receipt.Status,
		})
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "receipt deleted", "kind", kind, "receipt_id", receiptID, "code", code)
	return nil
}

// load reads header and lines.
func (s *Service) load(ctx context.Context, kind ReceiptKind, receiptID id.ID) (*Receipt, error) {
	receipt, err := s.receipts.GetByID(ctx, kind, receiptID)
	if err != nil {
		return nil, err
	}
	details, err := s.receipts.GetDetails(ctx, kind, receiptID)
	if err != nil {
		return nil, fmt.Errorf("get details: %w", err)
	}
	receipt.Kind = kind
	receipt.Details = details
	return receipt, nil
}
