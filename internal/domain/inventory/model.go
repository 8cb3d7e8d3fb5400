// Package inventory implements the inventory movement engine: import and
// export receipts for products and materials, per-location stock ledger,
// aggregate quantity mirror, receipt codes and the approval workflow.
package inventory

import (
	"time"

	"storehouse/internal/core/id"
	"storehouse/internal/core/numerator"
	"storehouse/internal/core/types"
)

// ItemKind distinguishes products from raw materials.
type ItemKind string

const (
	KindProduct  ItemKind = "product"
	KindMaterial ItemKind = "material"
)

// Valid reports whether k is a known kind.
func (k ItemKind) Valid() bool {
	return k == KindProduct || k == KindMaterial
}

// AreaType returns the storage area type that may hold items of this kind.
func (k ItemKind) AreaType() AreaType {
	if k == KindProduct {
		return AreaTypeProduct
	}
	return AreaTypeMaterial
}

// ParseItemKind accepts both the singular and the plural form
// ("product", "products").
func ParseItemKind(s string) (ItemKind, bool) {
	switch s {
	case "product", "products":
		return KindProduct, true
	case "material", "materials":
		return KindMaterial, true
	}
	return "", false
}

// AreaType tags a storage area with the item kind it accepts.
type AreaType string

const (
	AreaTypeProduct  AreaType = "PRODUCT"
	AreaTypeMaterial AreaType = "MATERIAL"
)

// Direction of a stock movement.
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// ReceiptType is the import subtype. Exports are always NORMAL.
type ReceiptType string

const (
	ReceiptTypeNormal ReceiptType = "NORMAL"
	ReceiptTypeReturn ReceiptType = "RETURN"
)

// Status is the approval workflow state of a receipt.
type Status string

const (
	StatusPendingApproved Status = "PENDING_APPROVED"
	StatusCompleted       Status = "COMPLETED"
	StatusRejected        Status = "REJECTED"
)

// ReceiptKind identifies one of the four receipt families.
// The value doubles as the table prefix: "<kind>_receipts", "<kind>_receipt_details".
type ReceiptKind string

const (
	MaterialImport ReceiptKind = "material_import"
	ProductImport  ReceiptKind = "product_import"
	MaterialExport ReceiptKind = "material_export"
	ProductExport  ReceiptKind = "product_export"
)

// ReceiptKinds lists every receipt family.
var ReceiptKinds = []ReceiptKind{MaterialImport, ProductImport, MaterialExport, ProductExport}

// ParseCollection resolves a collection name such as "material_import_receipts".
func ParseCollection(collection string) (ReceiptKind, bool) {
	for _, k := range ReceiptKinds {
		if k.Collection() == collection {
			return k, true
		}
	}
	return "", false
}

// ItemKind returns the kind of items moved by receipts of this family.
func (k ReceiptKind) ItemKind() ItemKind {
	switch k {
	case ProductImport, ProductExport:
		return KindProduct
	default:
		return KindMaterial
	}
}

// Direction returns the movement direction of the family.
func (k ReceiptKind) Direction() Direction {
	switch k {
	case MaterialExport, ProductExport:
		return DirectionExport
	default:
		return DirectionImport
	}
}

// Collection is the header table and REST collection name.
func (k ReceiptKind) Collection() string {
	return string(k) + "_receipts"
}

// DetailsTable is the table holding receipt lines.
func (k ReceiptKind) DetailsTable() string {
	return string(k) + "_receipt_details"
}

// Series returns the code series letters: IMPM, IMPP, EXPM, EXPP.
func (k ReceiptKind) Series() numerator.Series {
	dir := "IMP"
	if k.Direction() == DirectionExport {
		dir = "EXP"
	}
	item := "M"
	if k.ItemKind() == KindProduct {
		item = "P"
	}
	return numerator.Series(dir + item)
}

// Item is a product or material with its aggregate quantity mirror.
type Item struct {
	ID                id.ID  `db:"id" json:"id"`
	Name              string `db:"name" json:"name"`
	QuantityAvailable int64  `db:"quantity_available" json:"quantity_available"`
	MinimumStockLevel *int64 `db:"minimum_stock_level" json:"minimum_stock_level,omitempty"` // products only
	Deleted           bool   `db:"deleted" json:"deleted"`
}

// StorageArea is a physical place holding items of one kind.
type StorageArea struct {
	ID      id.ID    `db:"id"`
	Name    string   `db:"name"`
	Type    AreaType `db:"type"`
	Deleted bool     `db:"deleted"`
}

// StockLocation is the ledger row for one (item, storage area) pair.
type StockLocation struct {
	ID            id.ID `db:"id" json:"id"`
	ItemID        id.ID `db:"item_id" json:"item_id"`
	StorageAreaID id.ID `db:"storage_area_id" json:"storage_area_id"`
	Quantity      int64 `db:"quantity" json:"quantity"`
	Deleted       bool  `db:"deleted" json:"deleted"`
}

// User is the read-only view of an account referenced as receiver or approver.
type User struct {
	ID       id.ID  `db:"id"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
	Deleted  bool   `db:"deleted"`
}

// Provider supplies materials on NORMAL imports.
type Provider struct {
	ID      id.ID  `db:"id"`
	Name    string `db:"name"`
	Deleted bool   `db:"deleted"`
}

// Receipt is the header of one import or export event.
type Receipt struct {
	ID            id.ID       `db:"id"`
	Kind          ReceiptKind `db:"-"`
	Code          string      `db:"code"`
	Type          ReceiptType `db:"type"`
	Status        Status      `db:"status"`
	StorageAreaID id.ID       `db:"storage_area_id"`
	CreatedBy     id.ID       `db:"created_by"`
	ReceiverID    *id.ID      `db:"receiver_id"`
	ApprovedBy    *id.ID      `db:"approved_by"`
	ProviderID    *id.ID      `db:"provider_id"`
	TotalPrice    types.Money `db:"total_price"`
	Note          string      `db:"note"`
	Deleted       bool        `db:"deleted"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`

	Details []ReceiptDetail `db:"-"`
}

// IsPending reports whether the receipt awaits a decision.
func (r *Receipt) IsPending() bool {
	return r.Status == StatusPendingApproved
}

// ReceiptDetail is one line of a receipt.
type ReceiptDetail struct {
	ID                id.ID        `db:"id"`
	ReceiptID         id.ID        `db:"receipt_id"`
	ItemID            id.ID        `db:"item_id"`
	StorageAreaID     id.ID        `db:"storage_area_id"`
	StorageLocationID id.ID        `db:"storage_location_id"`
	Quantity          int64        `db:"quantity"`
	Price             *types.Money `db:"price"`
	MinimumStockLevel *int64       `db:"minimum_stock_level"`
}

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID id.ID
}

// NewActor builds an Actor from a validated user id.
func NewActor(userID id.ID) Actor {
	return Actor{UserID: userID}
}

// StockView compares the aggregate mirror of an item with its ledger rows.
type StockView struct {
	Kind      ItemKind        `json:"kind"`
	Item      Item            `json:"item"`
	Mirror    int64           `json:"mirror"`
	LedgerSum int64           `json:"ledger_sum"`
	Drift     int64           `json:"drift"`
	Locations []StockLocation `json:"locations"`
}
