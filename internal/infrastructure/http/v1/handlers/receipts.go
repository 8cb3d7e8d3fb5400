package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler serves the approval state machine and receipt lookups for
// every receipt collection.
type ReceiptHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(base *BaseHandler, service *inventory.Service) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts /{collection}/:id routes for each receipt family.
func (h *ReceiptHandler) RegisterRoutes(rg *gin.RouterGroup) {
	for _, kind := range inventory.ReceiptKinds {
		g := rg.Group("/" + kind.Collection())
		g.GET("/:id", h.Get(kind))
		g.DELETE("/:id", h.Delete(kind))
		g.PATCH("/:id/approve", h.Approve(kind))
		g.PATCH("/:id/reject", h.Reject(kind))
	}
}

// Get returns a receipt with its details.
func (h *ReceiptHandler) Get(kind inventory.ReceiptKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		receiptID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		receipt, err := h.service.Get(c.Request.Context(), kind, receiptID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromReceipt(receipt))
	}
}

// Approve moves a pending receipt to COMPLETED.
func (h *ReceiptHandler) Approve(kind inventory.ReceiptKind) gin.HandlerFunc {
	return h.decide(kind, h.service.Approve)
}

// Reject moves a pending receipt to REJECTED.
func (h *ReceiptHandler) Reject(kind inventory.ReceiptKind) gin.HandlerFunc {
	return h.decide(kind, h.service.Reject)
}

type decision func(ctx context.Context, kind inventory.ReceiptKind, receiptID, approverID id.ID) (*inventory.Receipt, error)

func (h *ReceiptHandler) decide(kind inventory.ReceiptKind, fn decision) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := h.Actor(c); !ok {
			return
		}
		receiptID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		var req dto.DecisionRequest
		if !h.BindJSON(c, &req) {
			return
		}

		receipt, err := fn(c.Request.Context(), kind, receiptID, req.Approver())
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.FromReceipt(receipt))
	}
}

// Delete soft-deletes a receipt. Stock movements it caused stay in place.
func (h *ReceiptHandler) Delete(kind inventory.ReceiptKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := h.Actor(c)
		if !ok {
			return
		}
		receiptID, ok := h.PathID(c, "id")
		if !ok {
			return
		}
		if err := h.service.Delete(c.Request.Context(), actor, kind, receiptID); err != nil {
			h.Error(c, err)
			return
		}
		h.NoContent(c)
	}
}
