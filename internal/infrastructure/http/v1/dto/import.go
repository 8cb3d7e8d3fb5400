package dto

import (
	"storehouse/internal/core/types"
	"storehouse/internal/domain/inventory"
)

// --- Request DTOs ---

type ImportMaterialsRequest struct {
	Type          string               `json:"type" binding:"required,oneof=NORMAL RETURN"`
	ProviderID    *string              `json:"provider_id" binding:"omitempty,uuid"`
	StorageAreaID string               `json:"material_storage_location_id" binding:"required,uuid"`
	ReceiverID    string               `json:"receiver_id" binding:"required,uuid"`
	Note          string               `json:"note" binding:"max=1000"`
	Materials     []MaterialImportLine `json:"materials" binding:"required,min=1,dive"`
}

type MaterialImportLine struct {
	MaterialID string       `json:"material_id" binding:"required,uuid"`
	Quantity   int64        `json:"quantity" binding:"required,gt=0"`
	Price      *types.Money `json:"price"`
}

func (r *ImportMaterialsRequest) ToCommand() inventory.ImportMaterialsCommand {
	lines := make([]inventory.ImportLine, len(r.Materials))
	for i, m := range r.Materials {
		lines[i] = inventory.ImportLine{
			ItemID:   parseID(m.MaterialID),
			Quantity: m.Quantity,
			Price:    m.Price,
		}
	}
	return inventory.ImportMaterialsCommand{
		Type:          inventory.ReceiptType(r.Type),
		ProviderID:    parseOptionalID(r.ProviderID),
		StorageAreaID: parseID(r.StorageAreaID),
		ReceiverID:    parseID(r.ReceiverID),
		Note:          r.Note,
		Lines:         lines,
	}
}

type ImportProductsRequest struct {
	StorageAreaID string              `json:"storage_area_id" binding:"required,uuid"`
	ReceiverID    string              `json:"receiver_id" binding:"required,uuid"`
	Note          string              `json:"note" binding:"max=1000"`
	Products      []ProductImportLine `json:"products" binding:"required,min=1,dive"`
}

type ProductImportLine struct {
	ProductID         string `json:"product_id" binding:"required,uuid"`
	Quantity          int64  `json:"quantity" binding:"required,gt=0"`
	MinimumStockLevel *int64 `json:"minimum_stock_level" binding:"omitempty,gte=0"`
}

func (r *ImportProductsRequest) ToCommand() inventory.ImportProductsCommand {
	lines := make([]inventory.ImportLine, len(r.Products))
	for i, p := range r.Products {
		lines[i] = inventory.ImportLine{
			ItemID:            parseID(p.ProductID),
			Quantity:          p.Quantity,
			MinimumStockLevel: p.MinimumStockLevel,
		}
	}
	return inventory.ImportProductsCommand{
		StorageAreaID: parseID(r.StorageAreaID),
		ReceiverID:    parseID(r.ReceiverID),
		Note:          r.Note,
		Lines:         lines,
	}
}

// --- Response DTOs ---

type ImportMaterialsResponse struct {
	Message                 string `json:"message"`
	MaterialImportReceiptID string `json:"material_import_receipt_id"`
	Code                    string `json:"code"`
}

func NewImportMaterialsResponse(r *inventory.Receipt) ImportMaterialsResponse {
	return ImportMaterialsResponse{
		Message:                 "Material import receipt created",
		MaterialImportReceiptID: r.ID.String(),
		Code:                    r.Code,
	}
}

type ImportProductsResponse struct {
	Message                string `json:"message"`
	ProductImportReceiptID string `json:"product_import_receipt_id"`
	Code                   string `json:"code"`
}

func NewImportProductsResponse(r *inventory.Receipt) ImportProductsResponse {
	return ImportProductsResponse{
		Message:                "Product import receipt created",
		ProductImportReceiptID: r.ID.String(),
		Code:                   r.Code,
	}
}
