package reservation

import (
	"encoding/json"
	"time"

	"lodging/internal/domain"
)

type Assignment struct {
	LineID int64 `json:"line_id" validate:"required,gt=0"`
	RoomID int64 `json:"room_id" validate:"required,gt=0"`
}

type StatusRequest struct {
	Status      string       `json:"status" validate:"required"`
	Reason      string       `json:"reason" validate:"max=500"`
	Assignments []Assignment `json:"assignments" validate:"dive"`
}

type CheckInRequest struct {
	Assignments []Assignment `json:"assignments" validate:"dive"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ListQuery struct {
	Status   string `form:"status"`
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func assignmentMap(in []Assignment) map[int64]int64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[int64]int64, len(in))
	for _, a := range in {
		out[a.LineID] = a.RoomID
	}
	return out
}

type GuestResponse struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type LineResponse struct {
	ID            int64  `json:"id"`
	RoomTypeID    int64  `json:"room_type_id"`
	RoomID        *int64 `json:"room_id"`
	PricePerNight string `json:"price_per_night"`
}

type Response struct {
	ID                 int64          `json:"id"`
	BookingReference   string         `json:"booking_reference"`
	Status             string         `json:"status"`
	AllowedTransitions []string       `json:"allowed_transitions"`
	Terminal           bool           `json:"terminal"`
	HoldsInventory     bool           `json:"holds_inventory"`
	CheckIn            string         `json:"check_in"`
	CheckOut           string         `json:"check_out"`
	Nights             int            `json:"nights"`
	NumberOfGuests     int            `json:"number_of_guests"`
	TotalAmount        string         `json:"total_amount"`
	PaidAmount         string         `json:"paid_amount"`
	Outstanding        string         `json:"outstanding"`
	PaymentMethod      string         `json:"payment_method"`
	Source             string         `json:"source"`
	SpecialRequests    string         `json:"special_requests,omitempty"`
	CancelReason       string         `json:"cancel_reason,omitempty"`
	CancelledAt        *time.Time     `json:"cancelled_at,omitempty"`
	CheckedInAt        *time.Time     `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time     `json:"checked_out_at,omitempty"`
	Guest              *GuestResponse `json:"guest,omitempty"`
	Lines              []LineResponse `json:"lines"`
}

// ToResponse renders a reservation for both the admin and the guest-facing API.
func ToResponse(r *domain.Reservation) Response {
	out := Response{
		ID:               r.ID,
		BookingReference: r.BookingReference,
		Status:           string(r.Status),
		Terminal:         r.Status.IsTerminal(),
		HoldsInventory:   r.Status.IsBlocking(),
		CheckIn:          r.CheckIn.Format(domain.DateLayout),
		CheckOut:         r.CheckOut.Format(domain.DateLayout),
		Nights:           r.Nights(),
		NumberOfGuests:   r.NumberOfGuests,
		TotalAmount:      r.TotalAmount.StringFixed(2),
		PaidAmount:       r.PaidAmount.StringFixed(2),
		Outstanding:      r.Outstanding().StringFixed(2),
		PaymentMethod:    string(r.PaymentMethod),
		Source:           string(r.Source),
		SpecialRequests:  r.SpecialRequests,
		CancelReason:     r.CancelReason,
		CancelledAt:      r.CancelledAt,
		CheckedInAt:      r.CheckedInAt,
		CheckedOutAt:     r.CheckedOutAt,
		Lines:            make([]LineResponse, 0, len(r.Lines)),
	}
	for _, s := range r.Status.AllowedTransitions() {
		out.AllowedTransitions = append(out.AllowedTransitions, string(s))
	}
	if r.Guest != nil {
		out.Guest = &GuestResponse{
			FirstName: r.Guest.FirstName,
			LastName:  r.Guest.LastName,
			Email:     r.Guest.Email,
			Phone:     r.Guest.Phone,
		}
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, LineResponse{
			ID:            l.ID,
			RoomTypeID:    l.RoomTypeID,
			RoomID:        l.RoomID,
			PricePerNight: l.PricePerNight.StringFixed(2),
		})
	}
	return out
}

type HistoryEntry struct {
	Action    string          `json:"action"`
	ActorID   *int64          `json:"actor_id,omitempty"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func toHistoryEntry(e domain.AuditEvent) HistoryEntry {
	out := HistoryEntry{Action: e.Action, ActorID: e.ActorID, CreatedAt: e.CreatedAt}
	if e.Before != nil {
		out.Before = json.RawMessage(*e.Before)
	}
	if e.After != nil {
		out.After = json.RawMessage(*e.After)
	}
	return out
}
