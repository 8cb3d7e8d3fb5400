package dto

import (
	"time"

	"storehouse/internal/core/types"
	"storehouse/internal/domain/inventory"
)

// ReceiptResponse is a receipt header with its lines.
type ReceiptResponse struct {
	ID            string                  `json:"id"`
	Collection    string                  `json:"collection"`
	Code          string                  `json:"code"`
	Type          string                  `json:"type"`
	Status        string                  `json:"status"`
	StorageAreaID string                  `json:"storage_area_id"`
	CreatedBy     string                  `json:"created_by"`
	ReceiverID    *string                 `json:"receiver_id"`
	ApprovedBy    *string                 `json:"approved_by"`
	ProviderID    *string                 `json:"provider_id"`
	TotalPrice    types.Money             `json:"total_price"`
	Note          string                  `json:"note"`
	Deleted       bool                    `json:"deleted"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
	Details       []ReceiptDetailResponse `json:"details"`
}

type ReceiptDetailResponse struct {
	ID                string       `json:"id"`
	ItemID            string       `json:"item_id"`
	StorageAreaID     string       `json:"storage_area_id"`
	StorageLocationID string       `json:"storage_location_id"`
	Quantity          int64        `json:"quantity"`
	Price             *types.Money `json:"price,omitempty"`
	MinimumStockLevel *int64       `json:"minimum_stock_level,omitempty"`
}

func FromReceipt(r *inventory.Receipt) ReceiptResponse {
	details := make([]ReceiptDetailResponse, len(r.Details))
	for i, d := range r.Details {
		details[i] = ReceiptDetailResponse{
			ID:                d.ID.String(),
			ItemID:            d.ItemID.String(),
			StorageAreaID:     d.StorageAreaID.String(),
			StorageLocationID: d.StorageLocationID.String(),
			Quantity:          d.Quantity,
			Price:             d.Price,
			MinimumStockLevel: d.MinimumStockLevel,
		}
	}
	return ReceiptResponse{
		ID:            r.ID.String(),
		Collection:    r.Kind.Collection(),
		Code:          r.Code,
		Type:          string(r.Type),
		Status:        string(r.Status),
		StorageAreaID: r.StorageAreaID.String(),
		CreatedBy:     r.CreatedBy.String(),
		ReceiverID:    formatOptionalID(r.ReceiverID),
		ApprovedBy:    formatOptionalID(r.ApprovedBy),
		ProviderID:    formatOptionalID(r.ProviderID),
		TotalPrice:    r.TotalPrice,
		Note:          r.Note,
		Deleted:       r.Deleted,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Details:       details,
	}
}
