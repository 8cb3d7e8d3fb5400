package inventory

import (
	"context"
	"fmt"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/pkg/logger"
)

// Approve completes a pending receipt on behalf of approverID.
// Any other current state is an INVALID_STATE error and nothing changes.
func (s *Service) Approve(ctx context.Context, kind ReceiptKind, receiptID, approverID id.ID) (*Receipt, error) {
	return s.decide(ctx, kind, receiptID, approverID, StatusCompleted, AuditApprove)
}

// Reject closes a pending receipt without completing it.
// Stock moved at creation stays where it is.
func (s *Service) Reject(ctx context.Context, kind ReceiptKind, receiptID, approverID id.ID) (*Receipt, error) {
	return s.decide(ctx, kind, receiptID, approverID, StatusRejected, AuditReject)
}

func (s *Service) decide(
	ctx context.Context,
	kind ReceiptKind,
	receiptID, approverID id.ID,
	to Status,
	action AuditAction,
) (*Receipt, error) {
	if id.IsNil(approverID) {
		return nil, required("approved_by")
	}

	var result *Receipt
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		receipt, err := s.receipts.GetByID(ctx, kind, receiptID)
		if err != nil {
			return err
		}
		receipt.Kind = kind
		if err := s.checkActiveUser(ctx, approverID, "approver"); err != nil {
			return err
		}
		if err := pendingGuard(receipt); err != nil {
			return err
		}

		ok, err := s.receipts.TransitionStatus(ctx, kind, receiptID, StatusPendingApproved, to, approverID)
		if err != nil {
			return fmt.Errorf("transition receipt: %w", err)
		}
		if !ok {
			// Lost a race with a concurrent decision; report what won.
			current, err := s.receipts.GetByID(ctx, kind, receiptID)
			if err != nil {
				return err
			}
			current.Kind = kind
			return invalidState(current)
		}

		changes := map[string]any{
			"code":        receipt.Code,
			"from":        receipt.Status,
			"to":          to,
			"approved_by": approverID,
		}
		if err := s.logChange(ctx, receipt, action, approverID, changes); err != nil {
			return err
		}

		result, err = s.load(ctx, kind, receiptID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "receipt status changed",
		"kind", kind,
		"status", to,
		"receipt_id", receiptID,
		"code", result.Code,
		"approved_by", approverID,
	)
	return result, nil
}

func pendingGuard(r *Receipt) error {
	if r.Deleted || !r.IsPending() {
		return invalidState(r)
	}
	return nil
}

func invalidState(r *Receipt) error {
	current := string(r.Status)
	if r.Deleted {
		current = "DELETED"
	}
	return apperror.NewInvalidState(r.Kind.Collection(), r.ID, current, string(StatusPendingApproved)).
		WithDetail("code", r.Code)
}
