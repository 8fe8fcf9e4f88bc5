package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerType string

const (
	LedgerCredit LedgerType = "CREDIT"
	LedgerDebit  LedgerType = "DEBIT"
)

type LedgerCategory string

const (
	CategoryPayment       LedgerCategory = "PAYMENT"
	CategoryRefund        LedgerCategory = "REFUND"
	CategoryIncomeService LedgerCategory = "INCOME_SERVICE"
	CategoryIncomeFood    LedgerCategory = "INCOME_FOOD"
	CategoryIncomeOther   LedgerCategory = "INCOME_OTHER"
	CategoryExpense       LedgerCategory = "EXPENSE"
)

func (c LedgerCategory) IsIncome() bool {
	return strings.HasPrefix(string(c), "INCOME_")
}

// Direction is the only ledger type a category may be booked with.
func (c LedgerCategory) Direction() (LedgerType, bool) {
	switch {
	case c == CategoryPayment || c.IsIncome():
		return LedgerCredit, true
	case c == CategoryRefund || c == CategoryExpense:
		return LedgerDebit, true
	}
	return "", false
}

const (
	RefPayment = "payment"
	RefIncome  = "income"
	RefExpense = "expense"
)

// LedgerEntry is an immutable journal line. Corrections are new entries.
type LedgerEntry struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	TenantID      int64           `json:"tenant_id" gorm:"not null;index:idx_ledger_tenant_created"`
	Type          LedgerType      `json:"type" gorm:"type:varchar(10);not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Category      LedgerCategory  `json:"category" gorm:"type:varchar(32);not null;index"`
	Method        PaymentMethod   `json:"method,omitempty" gorm:"type:varchar(20)"`
	ReferenceType string          `json:"reference_type" gorm:"size:32;not null;index:idx_ledger_reference"`
	ReferenceID   int64           `json:"reference_id" gorm:"not null;index:idx_ledger_reference"`
	ReservationID *int64          `json:"reservation_id,omitempty" gorm:"index"`
	Description   string          `json:"description,omitempty" gorm:"type:text"`
	ActorID       *int64          `json:"actor_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;index:idx_ledger_tenant_created"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

func (LedgerEntry) BeforeUpdate(*gorm.DB) error { return ErrLedgerImmutable }

func (LedgerEntry) BeforeDelete(*gorm.DB) error { return ErrLedgerImmutable }

// Signed returns the amount as a revenue delta.
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Type == LedgerDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}
