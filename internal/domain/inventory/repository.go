package inventory

import (
	"context"

	"storehouse/internal/core/id"
)

// ItemRepository reads items and maintains the aggregate quantity mirror.
// Only the engine writes quantity_available.
type ItemRepository interface {
	// GetItems returns the non-deleted items among ids, keyed by id.
	GetItems(ctx context.Context, kind ItemKind, ids []id.ID) (map[id.ID]Item, error)

	// GetItem returns one item; NOT_FOUND when missing.
	GetItem(ctx context.Context, kind ItemKind, itemID id.ID) (*Item, error)

	// LockItem selects the item FOR UPDATE.
	LockItem(ctx context.Context, kind ItemKind, itemID id.ID) (*Item, error)

	// AdjustQuantity adds delta to the mirror. It refuses to go below zero.
	AdjustQuantity(ctx context.Context, kind ItemKind, itemID id.ID, delta int64) error

	// SetQuantity overwrites the mirror (reconciliation only).
	SetQuantity(ctx context.Context, kind ItemKind, itemID id.ID, quantity int64) error

	// SetMinimumStockLevel updates a product's threshold.
	SetMinimumStockLevel(ctx context.Context, productID id.ID, level int64) error
}

// LedgerRepository maintains per (item, storage area) stock locations.
type LedgerRepository interface {
	// LockLocations selects the active locations of itemIDs in areaID FOR UPDATE,
	// in ascending item id order. Missing pairs are absent from the result.
	LockLocations(ctx context.Context, kind ItemKind, areaID id.ID, itemIDs []id.ID) (map[id.ID]StockLocation, error)

	// AddQuantity adds qty to the location, creating it on first use.
	// A deleted location is reactivated from zero. Returns the updated row.
	AddQuantity(ctx context.Context, kind ItemKind, itemID, areaID id.ID, qty int64) (*StockLocation, error)

	// SubtractQuantity removes qty only when the location holds at least qty.
	// Otherwise it reports INSUFFICIENT_STOCK and changes nothing.
	SubtractQuantity(ctx context.Context, kind ItemKind, locationID id.ID, qty int64) error

	// ListByItem returns the active locations of an item across all areas.
	ListByItem(ctx context.Context, kind ItemKind, itemID id.ID) ([]StockLocation, error)

	// SumByItem returns the total active quantity of an item.
	SumByItem(ctx context.Context, kind ItemKind, itemID id.ID) (int64, error)
}

// ReceiptRepository persists receipt headers and lines.
type ReceiptRepository interface {
	// Create inserts the header.
	Create(ctx context.Context, r *Receipt) error

	// SaveDetails inserts lines of a receipt created in the same transaction.
	SaveDetails(ctx context.Context, kind ReceiptKind, details []ReceiptDetail) error

	// GetByID returns the header, including soft-deleted ones; NOT_FOUND when missing.
	GetByID(ctx context.Context, kind ReceiptKind, receiptID id.ID) (*Receipt, error)

	// GetDetails returns the lines of a receipt.
	GetDetails(ctx context.Context, kind ReceiptKind, receiptID id.ID) ([]ReceiptDetail, error)

	// TransitionStatus moves a non-deleted receipt from one status to another and
	// records the approver. It reports false when the receipt was not in from.
	TransitionStatus(ctx context.Context, kind ReceiptKind, receiptID id.ID, from, to Status, approver id.ID) (bool, error)

	// SoftDelete marks the receipt deleted. Ledger effects stay in place.
	SoftDelete(ctx context.Context, kind ReceiptKind, receiptID id.ID) error
}

// ReferenceRepository provides existence checks for referenced rows.
// Each getter returns NOT_FOUND when the row does not exist.
type ReferenceRepository interface {
	GetStorageArea(ctx context.Context, areaID id.ID) (*StorageArea, error)
	GetUser(ctx context.Context, userID id.ID) (*User, error)
	GetProvider(ctx context.Context, providerID id.ID) (*Provider, error)
}

// AuditAction names an audited receipt event.
type AuditAction string

const (
	AuditCreate    AuditAction = "create"
	AuditApprove   AuditAction = "approve"
	AuditReject    AuditAction = "reject"
	AuditDelete    AuditAction = "delete"
	AuditReconcile AuditAction = "reconcile"
)

// AuditLogger records receipt events in the same transaction as the change.
type AuditLogger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, actorID id.ID, changes map[string]any) error
}

// Repositories groups the storage collaborators of the Service.
type Repositories struct {
	Items      ItemRepository
	Ledger     LedgerRepository
	Receipts   ReceiptRepository
	References ReferenceRepository
}
