package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dwfit/pos-backend-sub000/internal/catalog"
	discountdomain "github.com/dwfit/pos-backend-sub000/internal/discount/domain"
	orderchannel "github.com/dwfit/pos-backend-sub000/internal/order/channel"
	orderdomain "github.com/dwfit/pos-backend-sub000/internal/order/domain"
	shiftdomain "github.com/dwfit/pos-backend-sub000/internal/shift/domain"
	taxdomain "github.com/dwfit/pos-backend-sub000/internal/tax/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")

	ErrServiceUnavailable = errors.New("service_unavailable")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isScopeError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orderdomain.ErrInvalidChannel),
		errors.Is(err, orderdomain.ErrInvalidOrderType),
		errors.Is(err, orderdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrInvalidAmount),
		errors.Is(err, orderdomain.ErrLineRequired),
		errors.Is(err, orderdomain.ErrPaymentRequired),
		errors.Is(err, orderdomain.ErrBrandRequired),
		errors.Is(err, orderdomain.ErrBranchRequired),
		errors.Is(err, orderdomain.ErrDeviceRequired),
		errors.Is(err, orderdomain.ErrTotalsMismatch),
		errors.Is(err, orderchannel.ErrBranchRef),
		errors.Is(err, discountdomain.ErrInvalidBrand),
		errors.Is(err, discountdomain.ErrInvalidName),
		errors.Is(err, discountdomain.ErrInvalidType),
		errors.Is(err, discountdomain.ErrInvalidQualification),
		errors.Is(err, discountdomain.ErrInvalidValue),
		errors.Is(err, discountdomain.ErrInvalidID),
		errors.Is(err, taxdomain.ErrInvalidName),
		errors.Is(err, taxdomain.ErrInvalidPercent),
		errors.Is(err, shiftdomain.ErrUserRequired),
		errors.Is(err, shiftdomain.ErrInvalidCash):
		return true
	default:
		return false
	}
}

func isScopeError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, orderchannel.ErrBrandMismatch),
		errors.Is(err, discountdomain.ErrDiscountForbidden):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, orderdomain.ErrOrderNotActive),
		errors.Is(err, orderdomain.ErrOrderNotPending),
		errors.Is(err, orderdomain.ErrOrderNotVoidable),
		errors.Is(err, shiftdomain.ErrTillStillOpen),
		errors.Is(err, shiftdomain.ErrTillConflict),
		errors.Is(err, shiftdomain.ErrShiftConflict):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, discountdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, shiftdomain.ErrNoOpenShift),
		errors.Is(err, shiftdomain.ErrNoOpenTill),
		errors.Is(err, catalog.ErrBranchNotFound),
		errors.Is(err, catalog.ErrDeviceNotFound),
		errors.Is(err, catalog.ErrPriceNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
