package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash          PaymentMethod = "cash"
	MethodCard          PaymentMethod = "card"
	MethodBankTransfer  PaymentMethod = "bank_transfer"
	MethodOnline        PaymentMethod = "online"
	MethodPayAtProperty PaymentMethod = "pay_at_property"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodBankTransfer, MethodOnline, MethodPayAtProperty:
		return true
	}
	return false
}

// IsOnline reports whether the method goes through the payment gateway.
func (m PaymentMethod) IsOnline() bool { return m == MethodOnline }

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is the mutable business record of a money movement. Refunds are
// separate rows with a negative Amount pointing at the original via RefundOfID.
type Payment struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	TenantID      int64           `json:"tenant_id" gorm:"not null;index"`
	ReservationID *int64          `json:"reservation_id,omitempty" gorm:"index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method        PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	RefundOfID    *int64          `json:"refund_of_id,omitempty" gorm:"index"`
	Note          string          `json:"note,omitempty" gorm:"type:text"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsRefund() bool { return p.RefundOfID != nil }

type Income struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	TenantID    int64           `json:"tenant_id" gorm:"not null;index"`
	Category    LedgerCategory  `json:"category" gorm:"type:varchar(32);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method      PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
	ReceivedOn  time.Time       `json:"received_on" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Income) TableName() string { return "incomes" }

type Expense struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	TenantID    int64           `json:"tenant_id" gorm:"not null;index"`
	Category    string          `json:"category" gorm:"size:64;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Method      PaymentMethod   `json:"method" gorm:"type:varchar(20);not null"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
	SpentOn     time.Time       `json:"spent_on" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (Expense) TableName() string { return "expenses" }
