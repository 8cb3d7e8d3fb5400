// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storehouse/internal/core/apperror"
	appctx "storehouse/internal/core/context"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	useJSONFieldNames()
	return &BaseHandler{}
}

// BindJSON binds and validates the JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, bindingError(err))
		return false
	}
	return true
}

// Error registers err on the context and aborts. The response is rendered
// by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Actor returns the authenticated caller. The creator of a receipt always
// comes from the token, never from the body.
func (h *BaseHandler) Actor(c *gin.Context) (inventory.Actor, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return inventory.Actor{}, false
	}
	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("token subject is not a user id"))
		return inventory.Actor{}, false
	}
	return inventory.NewActor(userID), true
}

// PathID parses a uuid path parameter.
func (h *BaseHandler) PathID(c *gin.Context, name string) (id.ID, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("field", name))
		return id.Nil(), false
	}
	return v, true
}

// Created sends a 201 response and stores it for idempotent replay.
func (h *BaseHandler) Created(c *gin.Context, response any) {
	middleware.CompleteIdempotency(c, http.StatusCreated, "application/json", response)
	c.JSON(http.StatusCreated, response)
}

// OK sends a 200 response and stores it for idempotent replay.
func (h *BaseHandler) OK(c *gin.Context, response any) {
	middleware.CompleteIdempotency(c, http.StatusOK, "application/json", response)
	c.JSON(http.StatusOK, response)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	middleware.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}
