// Package apperror carries the error envelope shared by the domain and the
// HTTP layer. Business failures are always *AppError values; anything else
// reaching a handler is reported as INTERNAL_ERROR.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	CodeInternal = "INTERNAL_ERROR"

	CodeValidation        = "VALIDATION_ERROR"
	CodeUnknownRef        = "UNKNOWN_REFERENCE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"

	CodeInvalidState = "INVALID_STATE"
	CodeConflict     = "CONFLICT"
	CodeIdempotency  = "IDEMPOTENCY_CONFLICT"
)

// AppError is rendered as {"error": {code, message, details}}.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func newAppError(status int, code, message string, details map[string]any) *AppError {
	return &AppError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetail sets one details entry and returns e for chaining.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the wrapped error. It is logged, never sent to clients.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func NewValidation(message string) *AppError {
	return newAppError(http.StatusBadRequest, CodeValidation, message, nil)
}

func NewNotFound(entity string, id any) *AppError {
	return newAppError(http.StatusNotFound, CodeNotFound, entity+" not found",
		map[string]any{"entity": entity, "id": id})
}

// NewUnknownReference reports a request that names a row which is missing,
// deleted, inactive or of the wrong type.
func NewUnknownReference(entity string, id any, reason string) *AppError {
	return newAppError(http.StatusBadRequest, CodeUnknownRef, fmt.Sprintf("%s %v %s", entity, id, reason),
		map[string]any{"entity": entity, "id": id})
}

// StockShortage is one export line that cannot be covered.
type StockShortage struct {
	ItemKind  string `json:"item_kind"`
	ItemID    string `json:"item_id"`
	Available int64  `json:"available"`
	Requested int64  `json:"requested"`
}

func (s StockShortage) String() string {
	return fmt.Sprintf("%s %s: available: %d, requested: %d", s.ItemKind, s.ItemID, s.Available, s.Requested)
}

// NewInsufficientStock lists every short line, not just the first.
func NewInsufficientStock(shortages []StockShortage) *AppError {
	var b strings.Builder
	b.WriteString("insufficient stock: ")
	for i, s := range shortages {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(s.String())
	}
	return newAppError(http.StatusBadRequest, CodeInsufficientStock, b.String(),
		map[string]any{"shortages": shortages})
}

func NewInvalidState(entity string, id any, current, expected string) *AppError {
	return newAppError(http.StatusConflict, CodeInvalidState,
		fmt.Sprintf("%s is %s, expected %s", entity, current, expected),
		map[string]any{"entity": entity, "id": id, "current": current, "expected": expected})
}

// NewInternal hides err from the client; the message is fixed.
func NewInternal(err error) *AppError {
	e := newAppError(http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	e.Err = err
	return e
}

func NewUnauthorized(message string) *AppError {
	return newAppError(http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func NewConflict(message string) *AppError {
	return newAppError(http.StatusConflict, CodeConflict, message, nil)
}

// NewIdempotencyConflict means the key is taken by a request that has not finished.
func NewIdempotencyConflict(key string) *AppError {
	return newAppError(http.StatusConflict, CodeIdempotency, "Operation already in progress or completed",
		map[string]any{"idempotency_key": key})
}

// NewIdempotencyMismatch means the key was reused with a different user, route or body.
func NewIdempotencyMismatch(key string) *AppError {
	return newAppError(http.StatusConflict, CodeIdempotency, "Idempotency key mismatch",
		map[string]any{"idempotency_key": key})
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus is 500 for anything that is not an AppError.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }
