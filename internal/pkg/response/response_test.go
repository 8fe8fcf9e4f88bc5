package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func render(t *testing.T, err error) (int, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	FromError(c, err)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
		{domain.NewValidationError("guest.email", "contact required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("reservation 4: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("room 101: %w", domain.ErrRoomUnavailable), http.StatusConflict, "ROOM_UNAVAILABLE"},
		{domain.ErrOverpayment, http.StatusUnprocessableEntity, "OVERPAYMENT"},
		{domain.ErrRefundExceedsPayment, http.StatusUnprocessableEntity, "REFUND_EXCEEDS_PAYMENT"},
		{domain.ErrReferenceExhausted, http.StatusServiceUnavailable, "REFERENCE_GENERATION_EXHAUSTED"},
		{fmt.Errorf("%w after 4 attempts", domain.ErrTransactionConflict), http.StatusConflict, "TRANSACTION_CONFLICT"},
		{domain.ErrTransactionTimeout, http.StatusServiceUnavailable, "TRANSACTION_TIMEOUT"},
		{errors.New("db exploded"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, body := render(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestFromError_Shortfall(t *testing.T) {
	status, body := render(t, &domain.InsufficientAvailabilityError{
		RoomTypeID: 1, RoomTypeName: "Standard", Requested: 3, Available: 2, Shortfall: 1,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_AVAILABILITY", body.Error.Code)
	assert.Contains(t, body.Error.Message, "Standard")
	assert.EqualValues(t, 1, body.Error.Details["shortfall"])
}

func TestFromError_InternalDoesNotLeak(t *testing.T) {
	_, body := render(t, errors.New("pq: password authentication failed"))
	assert.NotContains(t, body.Error.Message, "password")
}
