package dto

import (
	"storehouse/internal/domain/inventory"
)

type ExportMaterialsRequest struct {
	StorageAreaID string       `json:"storage_area_id" binding:"required,uuid"`
	Note          string       `json:"note" binding:"max=1000"`
	Materials     []ExportLine `json:"materials" binding:"required,min=1,dive"`
}

type ExportProductsRequest struct {
	StorageAreaID string              `json:"storage_area_id" binding:"required,uuid"`
	ReceiverID    string              `json:"receiver_id" binding:"required,uuid"`
	Note          string              `json:"note" binding:"max=1000"`
	Products      []ProductExportLine `json:"products" binding:"required,min=1,dive"`
}

// ExportLine is a material export line.
type ExportLine struct {
	MaterialID string `json:"material_id" binding:"required,uuid"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

type ProductExportLine struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

func (r *ExportMaterialsRequest) ToCommand() inventory.ExportMaterialsCommand {
	lines := make([]inventory.ExportLine, len(r.Materials))
	for i, m := range r.Materials {
		lines[i] = inventory.ExportLine{ItemID: parseID(m.MaterialID), Quantity: m.Quantity}
	}
	return inventory.ExportMaterialsCommand{
		StorageAreaID: parseID(r.StorageAreaID),
		Note:          r.Note,
		Lines:         lines,
	}
}

func (r *ExportProductsRequest) ToCommand() inventory.ExportProductsCommand {
	lines := make([]inventory.ExportLine, len(r.Products))
	for i, p := range r.Products {
		lines[i] = inventory.ExportLine{ItemID: parseID(p.ProductID), Quantity: p.Quantity}
	}
	return inventory.ExportProductsCommand{
		StorageAreaID: parseID(r.StorageAreaID),
		ReceiverID:    parseID(r.ReceiverID),
		Note:          r.Note,
		Lines:         lines,
	}
}

type ExportResponse struct {
	Status    string `json:"status"`
	ReceiptID string `json:"receipt_id"`
	Code      string `json:"code"`
}

func NewExportResponse(r *inventory.Receipt) ExportResponse {
	return ExportResponse{
		Status:    string(r.Status),
		ReceiptID: r.ID.String(),
		Code:      r.Code,
	}
}
