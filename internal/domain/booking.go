package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationInquiry    ReservationStatus = "inquiry"
	ReservationPending    ReservationStatus = "pending"
	ReservationConfirmed  ReservationStatus = "confirmed"
	ReservationCheckedIn  ReservationStatus = "checked_in"
	ReservationCheckedOut ReservationStatus = "checked_out"
	ReservationCancelled  ReservationStatus = "cancelled"
	ReservationNoShow     ReservationStatus = "no_show"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationInquiry:    {ReservationPending, ReservationConfirmed, ReservationCancelled},
	ReservationPending:    {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed:  {ReservationCheckedIn, ReservationCancelled, ReservationNoShow},
	ReservationCheckedIn:  {ReservationCheckedOut},
	ReservationCheckedOut: {},
	ReservationCancelled:  {},
	ReservationNoShow:     {},
}

// BlockingStatuses count against room availability.
var BlockingStatuses = []ReservationStatus{
	ReservationInquiry,
	ReservationPending,
	ReservationConfirmed,
	ReservationCheckedIn,
}

func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if _, ok := reservationTransitions[status]; !ok {
		return "", NewValidationError("status", "unknown reservation status %q", s)
	}
	return status, nil
}

func (s ReservationStatus) AllowedTransitions() []ReservationStatus {
	return append([]ReservationStatus(nil), reservationTransitions[s]...)
}

func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	for _, t := range reservationTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

func (s ReservationStatus) IsBlocking() bool {
	for _, b := range BlockingStatuses {
		if b == s {
			return true
		}
	}
	return false
}

// TransitionError builds the error for a rejected move out of s.
func (s ReservationStatus) TransitionError(to ReservationStatus) *InvalidStatusTransitionError {
	allowed := make([]string, 0, len(reservationTransitions[s]))
	for _, a := range reservationTransitions[s] {
		allowed = append(allowed, string(a))
	}
	return &InvalidStatusTransitionError{Entity: "reservation", From: string(s), To: string(to), Allowed: allowed}
}

func BlockingStatusValues() []string {
	out := make([]string, 0, len(BlockingStatuses))
	for _, s := range BlockingStatuses {
		out = append(out, string(s))
	}
	return out
}

type ReservationSource string

const (
	SourceWeb    ReservationSource = "web"
	SourceAdmin  ReservationSource = "admin"
	SourcePhone  ReservationSource = "phone"
	SourceWalkIn ReservationSource = "walk_in"
)

type Reservation struct {
	ID               int64                 `json:"id" gorm:"primaryKey"`
	TenantID         int64                 `json:"tenant_id" gorm:"not null;index"`
	GuestID          int64                 `json:"guest_id" gorm:"not null;index"`
	BookingReference string                `json:"booking_reference" gorm:"size:16;not null;uniqueIndex"`
	CheckIn          time.Time             `json:"check_in" gorm:"not null;index"`
	CheckOut         time.Time             `json:"check_out" gorm:"not null;index"`
	Status           ReservationStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount      decimal.Decimal       `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	PaidAmount       decimal.Decimal       `json:"paid_amount" gorm:"type:decimal(12,2);not null"`
	NumberOfGuests   int                   `json:"number_of_guests" gorm:"not null"`
	Source           ReservationSource     `json:"source" gorm:"type:varchar(20);not null"`
	PaymentMethod    PaymentMethod         `json:"payment_method" gorm:"type:varchar(20);not null"`
	SpecialRequests  string                `json:"special_requests,omitempty" gorm:"type:text"`
	CancelReason     string                `json:"cancel_reason,omitempty" gorm:"type:text"`
	CancelledAt      *time.Time            `json:"cancelled_at,omitempty"`
	CheckedInAt      *time.Time            `json:"checked_in_at,omitempty"`
	CheckedOutAt     *time.Time            `json:"checked_out_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	Lines            []ReservationRoomLine `json:"lines,omitempty" gorm:"foreignKey:ReservationID"`
	Guest            *Guest                `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}

func (Reservation) TableName() string { return "reservations" }

func (r *Reservation) Nights() int { return Nights(r.CheckIn, r.CheckOut) }

func (r *Reservation) Outstanding() decimal.Decimal {
	return r.TotalAmount.Sub(r.PaidAmount)
}

// ReservationRoomLine is one unit of inventory held by a reservation. PricePerNight
// is the rate captured at booking time and never changes afterwards.
type ReservationRoomLine struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	ReservationID int64           `json:"reservation_id" gorm:"not null;index"`
	RoomTypeID    int64           `json:"room_type_id" gorm:"not null;index"`
	RoomID        *int64          `json:"room_id,omitempty" gorm:"index"`
	PricePerNight decimal.Decimal `json:"price_per_night" gorm:"type:decimal(12,2);not null"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (ReservationRoomLine) TableName() string { return "reservation_room_lines" }

// RoomAssignment is either Unassigned or Assigned.
type RoomAssignment interface {
	isRoomAssignment()
}

type Unassigned struct{}

type Assigned struct {
	RoomID int64
}

func (Unassigned) isRoomAssignment() {}
func (Assigned) isRoomAssignment()   {}

func (l ReservationRoomLine) Assignment() RoomAssignment {
	if l.RoomID == nil {
		return Unassigned{}
	}
	return Assigned{RoomID: *l.RoomID}
}

func (l ReservationRoomLine) String() string {
	switch a := l.Assignment().(type) {
	case Assigned:
		return fmt.Sprintf("line %d (type %d, room %d)", l.ID, l.RoomTypeID, a.RoomID)
	default:
		return fmt.Sprintf("line %d (type %d, unassigned)", l.ID, l.RoomTypeID)
	}
}

type Stay struct {
	ID            int64      `json:"id" gorm:"primaryKey"`
	TenantID      int64      `json:"tenant_id" gorm:"not null;index"`
	ReservationID int64      `json:"reservation_id" gorm:"not null;index"`
	RoomID        int64      `json:"room_id" gorm:"not null;index"`
	CheckIn       time.Time  `json:"check_in" gorm:"not null"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
}

func (Stay) TableName() string { return "stays" }
