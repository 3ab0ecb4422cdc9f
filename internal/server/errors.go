package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	aidomain "github.com/intellpharma/pharmastock/internal/ai/domain"
	authdomain "github.com/intellpharma/pharmastock/internal/auth/domain"
	billingdomain "github.com/intellpharma/pharmastock/internal/billing/domain"
	branchdomain "github.com/intellpharma/pharmastock/internal/branch/domain"
	entitlementdomain "github.com/intellpharma/pharmastock/internal/entitlement/domain"
	inventorydomain "github.com/intellpharma/pharmastock/internal/inventory/domain"
	paymentdomain "github.com/intellpharma/pharmastock/internal/payment/domain"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrorHandlingMiddleware renders the last handler error as JSON once
// the chain finishes. Handlers push errors with AbortWithError.
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
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidRole),
		errors.Is(err, billingdomain.ErrEmptyCart),
		errors.Is(err, billingdomain.ErrInvalidDiscount),
		errors.Is(err, billingdomain.ErrInvalidPaymentMethod),
		errors.Is(err, inventorydomain.ErrInvalidQuantity),
		errors.Is(err, aidomain.ErrPromptEmpty),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, authdomain.ErrInvalidSession):
		return http.StatusUnauthorized, errorPayload{Type: "unauthorized", Message: "unauthorized"}

	case errors.Is(err, paymentdomain.ErrSessionNotPaid):
		return http.StatusPaymentRequired, errorPayload{Type: "payment_required", Message: err.Error()}

	case errors.Is(err, ErrForbidden),
		errors.Is(err, branchdomain.ErrNotBranchMember):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}

	case errors.Is(err, entitlementdomain.ErrFeatureNotAvailable),
		errors.Is(err, branchdomain.ErrBranchLimitReached):
		return http.StatusForbidden, errorPayload{Type: "plan_limit", Message: err.Error()}

	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, branchdomain.ErrBranchNotFound),
		errors.Is(err, branchdomain.ErrStaffNotFound),
		errors.Is(err, inventorydomain.ErrProductNotFound),
		errors.Is(err, inventorydomain.ErrBatchNotFound),
		errors.Is(err, billingdomain.ErrInvoiceNotFound),
		errors.Is(err, entitlementdomain.ErrEntitlementNotFound),
		errors.Is(err, paymentdomain.ErrNoSubscription),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}

	case errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, inventorydomain.ErrDuplicateSKU),
		errors.Is(err, inventorydomain.ErrInsufficientStock):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: err.Error()}

	case errors.Is(err, aidomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{Type: "rate_limited", Message: err.Error()}

	case errors.Is(err, paymentdomain.ErrProviderUnavailable),
		errors.Is(err, entitlementdomain.ErrProviderUnavailable),
		errors.Is(err, aidomain.ErrGeneratorUnavailable),
		errors.Is(err, aidomain.ErrUnparsableResponse):
		return http.StatusServiceUnavailable, errorPayload{Type: "service_unavailable", Message: err.Error()}

	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
	}
}

// classifyErrorForLog feeds the request logger's error fields.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Type
	case status >= http.StatusBadRequest:
		return "client", payload.Type
	default:
		return "", payload.Type
	}
}
