package handlers

import (
	"github.com/gin-gonic/gin"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
)

// StockHandler exposes the mirror/ledger comparison for an item.
type StockHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *inventory.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts /stock routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stock/:kind/:item_id", h.Get)
	rg.POST("/stock/:kind/:item_id/reconcile", h.Reconcile)
}

// Get handles GET /stock/:kind/:item_id.
func (h *StockHandler) Get(c *gin.Context) {
	kind, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}
	view, err := h.service.StockView(c.Request.Context(), kind, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Reconcile handles POST /stock/:kind/:item_id/reconcile.
func (h *StockHandler) Reconcile(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	kind, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}
	view, err := h.service.Reconcile(c.Request.Context(), actor, kind, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

func (h *StockHandler) itemParams(c *gin.Context) (inventory.ItemKind, id.ID, bool) {
	kind, ok := inventory.ParseItemKind(c.Param("kind"))
	if !ok {
		h.Error(c, apperror.NewValidation("unknown item kind").WithDetail("field", "kind"))
		return "", id.Nil(), false
	}
	itemID, ok := h.PathID(c, "item_id")
	if !ok {
		return "", id.Nil(), false
	}
	return kind, itemID, true
}
