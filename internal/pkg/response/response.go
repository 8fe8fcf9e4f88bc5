package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lodging/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// BadRequest reports malformed input caught by a handler before any service call.
func BadRequest(c *gin.Context, message string, details any) {
	ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

// FromError writes the envelope for err. Unknown errors become INTERNAL_ERROR
// without leaking their text.
func FromError(c *gin.Context, err error) {
	var (
		shortfall  *domain.InsufficientAvailabilityError
		transition *domain.InvalidStatusTransitionError
		invalid    *domain.ValidationError
	)

	switch {
	case errors.As(err, &shortfall):
		ErrorWithDetails(c, http.StatusConflict, "INSUFFICIENT_AVAILABILITY", shortfall.Error(), gin.H{
			"room_type_id":   shortfall.RoomTypeID,
			"room_type_name": shortfall.RoomTypeName,
			"requested":      shortfall.Requested,
			"available":      shortfall.Available,
			"shortfall":      shortfall.Shortfall,
		})
	case errors.As(err, &transition):
		ErrorWithDetails(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", transition.Error(), gin.H{
			"from":    transition.From,
			"to":      transition.To,
			"allowed": transition.Allowed,
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		Error(c, http.StatusBadRequest, "INVALID_DATE_RANGE", err.Error())
	case errors.As(err, &invalid):
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", invalid.Error(), gin.H{invalid.Field: invalid.Message})
	case errors.Is(err, domain.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrRoomUnavailable):
		Error(c, http.StatusConflict, "ROOM_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrOverpayment):
		Error(c, http.StatusUnprocessableEntity, "OVERPAYMENT", err.Error())
	case errors.Is(err, domain.ErrRefundExceedsPayment):
		Error(c, http.StatusUnprocessableEntity, "REFUND_EXCEEDS_PAYMENT", err.Error())
	case errors.Is(err, domain.ErrReferenceExhausted):
		Error(c, http.StatusServiceUnavailable, "REFERENCE_GENERATION_EXHAUSTED", "could not allocate a booking reference, please retry")
	case errors.Is(err, domain.ErrTransactionConflict):
		Error(c, http.StatusConflict, "TRANSACTION_CONFLICT", "the request conflicted with a concurrent change, please retry")
	case errors.Is(err, domain.ErrTransactionTimeout):
		Error(c, http.StatusServiceUnavailable, "TRANSACTION_TIMEOUT", "the request timed out, please retry")
	default:
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
