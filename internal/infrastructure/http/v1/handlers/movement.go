package handlers

import (
	"github.com/gin-gonic/gin"

	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/http/v1/dto"
)

// MovementHandler creates import and export receipts.
type MovementHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewMovementHandler creates a new movement handler.
func NewMovementHandler(base *BaseHandler, service *inventory.Service) *MovementHandler {
	return &MovementHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the four receipt builders.
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import/materials", h.ImportMaterials)
	rg.POST("/import/products", h.ImportProducts)
	rg.POST("/export/materials", h.ExportMaterials)
	rg.POST("/export/products", h.ExportProducts)
}

// ImportMaterials handles POST /import/materials.
func (h *MovementHandler) ImportMaterials(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ImportMaterialsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.ImportMaterials(c.Request.Context(), actor, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewImportMaterialsResponse(receipt))
}

// ImportProducts handles POST /import/products.
func (h *MovementHandler) ImportProducts(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ImportProductsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.ImportProducts(c.Request.Context(), actor, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewImportProductsResponse(receipt))
}

// ExportMaterials handles POST /export/materials.
func (h *MovementHandler) ExportMaterials(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ExportMaterialsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.ExportMaterials(c.Request.Context(), actor, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewExportResponse(receipt))
}

// ExportProducts handles POST /export/products.
func (h *MovementHandler) ExportProducts(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ExportProductsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.ExportProducts(c.Request.Context(), actor, req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewExportResponse(receipt))
}
