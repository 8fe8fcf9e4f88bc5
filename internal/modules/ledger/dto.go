package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"lodging/internal/domain"
)

type RecordPaymentBody struct {
	ReservationID int64           `json:"reservation_id" validate:"required,gt=0"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method" validate:"required"`
	PaymentID     *int64          `json:"payment_id" validate:"omitempty,gt=0"`
	Note          string          `json:"note" validate:"max=500"`
}

type RefundBody struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

type IncomeBody struct {
	Category    string          `json:"category" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
	ReceivedOn  string          `json:"received_on" validate:"omitempty,date"`
}

type ExpenseBody struct {
	Category    string          `json:"category" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required"`
	Description string          `json:"description" validate:"max=500"`
	SpentOn     string          `json:"spent_on" validate:"omitempty,date"`
}

type LedgerQuery struct {
	From          string `form:"from"`
	To            string `form:"to"`
	Category      string `form:"category"`
	ReservationID int64  `form:"reservation_id"`
	Limit         int    `form:"limit"`
}

type PaymentResponse struct {
	ID            int64   `json:"id"`
	ReservationID *int64  `json:"reservation_id,omitempty"`
	Amount        string  `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	RefundOfID    *int64  `json:"refund_of_id,omitempty"`
	PaidAt        *string `json:"paid_at,omitempty"`
}

type EntryResponse struct {
	ID            int64  `json:"id"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	Category      string `json:"category"`
	Method        string `json:"method,omitempty"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   int64  `json:"reference_id"`
	ReservationID *int64 `json:"reservation_id,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	out := PaymentResponse{
		ID:            p.ID,
		ReservationID: p.ReservationID,
		Amount:        p.Amount.StringFixed(2),
		Method:        string(p.Method),
		Status:        string(p.Status),
		RefundOfID:    p.RefundOfID,
	}
	if p.PaidAt != nil {
		at := p.PaidAt.UTC().Format(time.RFC3339)
		out.PaidAt = &at
	}
	return out
}

func toEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		ID:            e.ID,
		Type:          string(e.Type),
		Amount:        e.Amount.StringFixed(2),
		Category:      string(e.Category),
		Method:        string(e.Method),
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		ReservationID: e.ReservationID,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
