package inventory

import (
	"context"
	"fmt"
	"time"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/core/numerator"
	"storehouse/internal/core/tx"
)

// Service runs every receipt operation in its own transaction:
// validate, lock, number, write header and lines, move stock, audit, commit.
type Service struct {
	items     ItemRepository
	ledger    LedgerRepository
	receipts  ReceiptRepository
	refs      ReferenceRepository
	codes     numerator.Generator
	audit     AuditLogger
	txManager tx.Manager
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for codes and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the inventory movement service.
func NewService(
	repos Repositories,
	codes numerator.Generator,
	audit AuditLogger,
	txManager tx.Manager,
	opts ...Option,
) *Service {
	s := &Service{
		items:     repos.Items,
		ledger:    repos.Ledger,
		receipts:  repos.Receipts,
		refs:      repos.References,
		codes:     codes,
		audit:     audit,
		txManager: txManager,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func requireActor(actor Actor) error {
	if id.IsNil(actor.UserID) {
		return apperror.NewUnauthorized("authenticated user is required")
	}
	return nil
}

// newReceipt prepares a header stamped with the current time.
func (s *Service) newReceipt(kind ReceiptKind, areaID id.ID, actor Actor, note string) *Receipt {
	now := s.now()
	return &Receipt{
		ID:            id.New(),
		Kind:          kind,
		Type:          ReceiptTypeNormal,
		StorageAreaID: areaID,
		CreatedBy:     actor.UserID,
		Note:          note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// assignCode draws the next code for the receipt's series and creation day.
func (s *Service) assignCode(ctx context.Context, r *Receipt) error {
	code, err := s.codes.NextCode(ctx, r.Kind.Series(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("generate receipt code: %w", err)
	}
	r.Code = code
	return nil
}

// --- reference checks ---

func referenceError(err error, entity string, ref id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewUnknownReference(entity, ref, "does not exist")
	}
	return fmt.Errorf("get %s: %w", entity, err)
}

func (s *Service) checkStorageArea(ctx context.Context, areaID id.ID, kind ItemKind) error {
	area, err := s.refs.GetStorageArea(ctx, areaID)
	if err != nil {
		return referenceError(err, "storage area", areaID)
	}
	if area.Deleted {
		return apperror.NewUnknownReference("storage area", areaID, "is deleted")
	}
	if area.Type != kind.AreaType() {
		return apperror.NewUnknownReference("storage area", areaID,
			fmt.Sprintf("holds %s items, not %s", area.Type, kind.AreaType())).
			WithDetail("area_type", area.Type)
	}
	return nil
}

// checkActiveUser validates a receiver or approver reference.
func (s *Service) checkActiveUser(ctx context.Context, userID id.ID, role string) error {
	user, err := s.refs.GetUser(ctx, userID)
	if err != nil {
		return referenceError(err, role, userID)
	}
	if user.Deleted || !user.IsActive {
		return apperror.NewUnknownReference(role, userID, "is not active")
	}
	return nil
}

func (s *Service) checkProvider(ctx context.Context, providerID id.ID) error {
	provider, err := s.refs.GetProvider(ctx, providerID)
	if err != nil {
		return referenceError(err, "provider", providerID)
	}
	if provider.Deleted {
		return apperror.NewUnknownReference("provider", providerID, "is deleted")
	}
	return nil
}

// checkItems fails on the first referenced item that does not exist.
func (s *Service) checkItems(ctx context.Context, kind ItemKind, wanted []demand) error {
	found, err := s.items.GetItems(ctx, kind, demandIDs(wanted))
	if err != nil {
		return fmt.Errorf("get %ss: %w", kind, err)
	}
	for _, d := range wanted {
		if _, ok := found[d.ItemID]; !ok {
			return apperror.NewUnknownReference(string(kind), d.ItemID, "does not exist")
		}
	}
	return nil
}

// sortedDemand returns a copy of wanted in lock order.
func sortedDemand(wanted []demand) []demand {
	byID := make(map[id.ID]demand, len(wanted))
	for _, d := range wanted {
		byID[d.ItemID] = d
	}
	ids := id.SortedUnique(demandIDs(wanted))
	out := make([]demand, len(ids))
	for i, itemID := range ids {
		out[i] = byID[itemID]
	}
	return out
}

func (s *Service) logCreate(ctx context.Context, r *Receipt) error {
	lines := make([]map[string]any, len(r.Details))
	for i, d := range r.Details {
		line := map[string]any{
			"item_id":             d.ItemID,
			"quantity":            d.Quantity,
			"storage_location_id": d.StorageLocationID,
		}
		if d.Price != nil {
			line["price"] = d.Price.String()
		}
		lines[i] = line
	}
	changes := map[string]any{
		"code":            r.Code,
		"type":            r.Type,
		"status":          r.Status,
		"storage_area_id": r.StorageAreaID,
		"total_price":     r.TotalPrice.String(),
		"lines":           lines,
	}
	return s.logChange(ctx, r, AuditCreate, r.CreatedBy, changes)
}

func (s *Service) logChange(ctx context.Context, r *Receipt, action AuditAction, actorID id.ID, changes map[string]any) error {
	if err := s.audit.LogChange(ctx, r.Kind.Collection(), r.ID, string(action), actorID, changes); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}
