package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storehouse/internal/core/apperror"
	"storehouse/pkg/logger"
)

// ErrorBody is the single error envelope of the API. Error repeats Message
// for clients that only read an "error" field.
type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Error   string         `json:"error"`
}

// ErrorHandler middleware renders the last error registered on the context.
// Internal errors are logged with their cause and hidden from the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		err := c.Errors.Last().Err

		appErr, ok := apperror.AsAppError(err)
		if !ok {
			appErr = apperror.NewInternal(err)
		}

		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}

		body := ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
			Error:   appErr.Message,
		}

		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed",
				"code", appErr.Code,
				"cause", appErr.Err,
				"error", err,
			)
			// Never leak internals: only the request id goes back.
			body.Details = map[string]any{"request_id": c.GetString("request_id")}
		} else if appErr.Err != nil {
			logger.Warn(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
		}

		FailIdempotency(c, status, body)
		c.JSON(status, body)
	}
}
