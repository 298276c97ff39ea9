package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
	"github.com/treadstone/maxtt-billing/internal/vehicle"
	"github.com/treadstone/maxtt-billing/internal/workflow"
	"github.com/treadstone/maxtt-billing/pkg/db"
)

type errorPayload struct {
	Type    string                     `json:"type"`
	Message string                     `json:"message"`
	Errors  []workflow.ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrTooManyRequests = errors.New("too_many_requests")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var verrs workflow.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  verrs,
		}
	}

	switch {
	case errors.Is(err, invoicedomain.ErrConsentRequired):
		// The draft is fine; the customer just has not signed yet.
		return http.StatusConflict, errorPayload{
			Type:    "consent_required",
			Message: "customer consent required before the invoice can be saved",
		}
	case errors.Is(err, invoicedomain.ErrConfirmationRequired):
		return http.StatusConflict, errorPayload{
			Type:    "confirmation_required",
			Message: err.Error(),
		}
	case errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, franchiseedomain.ErrProfileNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}
	case db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a record with the same unique value already exists",
		}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "too_many_requests",
			Message: "slow down and retry shortly",
		}
	case errors.Is(err, vehicle.ErrUnknownClass), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
