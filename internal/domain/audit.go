package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Actor is the already-authenticated caller supplied by the auth layer.
// UserID is nil for public (guest-facing) calls.
type Actor struct {
	TenantID int64
	UserID   *int64
}

func SystemActor(tenantID int64) Actor { return Actor{TenantID: tenantID} }

type AuditEntity string

const (
	AuditReservation  AuditEntity = "reservation"
	AuditPayment      AuditEntity = "payment"
	AuditLedgerEntry  AuditEntity = "ledger_entry"
	AuditRoom         AuditEntity = "room"
	AuditHousekeeping AuditEntity = "housekeeping_task"
	AuditIncome       AuditEntity = "income"
	AuditExpense      AuditEntity = "expense"
	AuditGuest        AuditEntity = "guest"
)

// AuditSnapshot is the per-entity before/after payload of an audit event.
type AuditSnapshot interface {
	AuditEntity() AuditEntity
}

type ReservationSnapshot struct {
	BookingReference string            `json:"booking_reference"`
	Status           ReservationStatus `json:"status"`
	CheckIn          string            `json:"check_in"`
	CheckOut         string            `json:"check_out"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	PaidAmount       decimal.Decimal   `json:"paid_amount"`
	RoomIDs          []int64           `json:"room_ids,omitempty"`
	CancelReason     string            `json:"cancel_reason,omitempty"`
}

func (ReservationSnapshot) AuditEntity() AuditEntity { return AuditReservation }

func SnapshotReservation(r *Reservation) *ReservationSnapshot {
	s := &ReservationSnapshot{
		BookingReference: r.BookingReference,
		Status:           r.Status,
		CheckIn:          r.CheckIn.Format(DateLayout),
		CheckOut:         r.CheckOut.Format(DateLayout),
		TotalAmount:      r.TotalAmount,
		PaidAmount:       r.PaidAmount,
		CancelReason:     r.CancelReason,
	}
	for _, l := range r.Lines {
		if a, ok := l.Assignment().(Assigned); ok {
			s.RoomIDs = append(s.RoomIDs, a.RoomID)
		}
	}
	return s
}

type PaymentSnapshot struct {
	ReservationID *int64          `json:"reservation_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Method        PaymentMethod   `json:"method"`
	Status        PaymentStatus   `json:"status"`
	RefundOfID    *int64          `json:"refund_of_id,omitempty"`
}

func (PaymentSnapshot) AuditEntity() AuditEntity { return AuditPayment }

func SnapshotPayment(p *Payment) *PaymentSnapshot {
	return &PaymentSnapshot{
		ReservationID: p.ReservationID,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        p.Status,
		RefundOfID:    p.RefundOfID,
	}
}

type LedgerEntrySnapshot struct {
	Type          LedgerType      `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Category      LedgerCategory  `json:"category"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   int64           `json:"reference_id"`
}

func (LedgerEntrySnapshot) AuditEntity() AuditEntity { return AuditLedgerEntry }

type RoomSnapshot struct {
	Number string     `json:"number"`
	Status RoomStatus `json:"status"`
}

func (RoomSnapshot) AuditEntity() AuditEntity { return AuditRoom }

type HousekeepingSnapshot struct {
	RoomID int64      `json:"room_id"`
	Status TaskStatus `json:"status"`
}

func (HousekeepingSnapshot) AuditEntity() AuditEntity { return AuditHousekeeping }

type IncomeSnapshot struct {
	Category LedgerCategory  `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Method   PaymentMethod   `json:"method"`
}

func (IncomeSnapshot) AuditEntity() AuditEntity { return AuditIncome }

type ExpenseSnapshot struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Method   PaymentMethod   `json:"method"`
}

func (ExpenseSnapshot) AuditEntity() AuditEntity { return AuditExpense }

type GuestSnapshot struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

func (GuestSnapshot) AuditEntity() AuditEntity { return AuditGuest }

// AuditEvent is the outbox row written in the same transaction as the change it describes.
type AuditEvent struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	TenantID    int64      `json:"tenant_id" gorm:"not null;index"`
	ActorID     *int64     `json:"actor_id,omitempty"`
	Action      string     `json:"action" gorm:"size:64;not null;index"`
	EntityType  string     `json:"entity_type" gorm:"size:32;not null;index"`
	EntityID    int64      `json:"entity_id" gorm:"not null"`
	Before      *string    `json:"before,omitempty" gorm:"type:text"`
	After       *string    `json:"after,omitempty" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;index"`
	PublishedAt *time.Time `json:"published_at,omitempty" gorm:"index"`
}

func (AuditEvent) TableName() string { return "audit_events" }

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&RoomType{},
		&Room{},
		&RatePlan{},
		&SeasonalRate{},
		&Guest{},
		&Reservation{},
		&ReservationRoomLine{},
		&Stay{},
		&Payment{},
		&Income{},
		&Expense{},
		&LedgerEntry{},
		&HousekeepingTask{},
		&AuditEvent{},
	}
}
