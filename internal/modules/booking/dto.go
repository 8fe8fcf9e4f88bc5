package booking

import (
	"github.com/shopspring/decimal"

	"lodging/internal/domain"
)

type RoomRequest struct {
	RoomTypeID int64 `json:"room_type_id" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,gte=1"`
}

type GuestInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

type CreateBookingRequest struct {
	CheckIn         string        `json:"check_in" validate:"required,date"`
	CheckOut        string        `json:"check_out" validate:"required,date"`
	Rooms           []RoomRequest `json:"rooms" validate:"required,min=1,dive"`
	Guest           GuestInput    `json:"guest"`
	NumberOfGuests  int           `json:"number_of_guests" validate:"gte=0"`
	SpecialRequests string        `json:"special_requests" validate:"max=1000"`
	PaymentMethod   string        `json:"payment_method" validate:"required"`
	// Source is set by the entry point, never by the guest-facing body.
	Source string `json:"-"`
}

// StaffBookingRequest is a booking taken by staff on behalf of a guest.
type StaffBookingRequest struct {
	CreateBookingRequest
	Source string `json:"source"`
}

type CancelRequest struct {
	LastName string `json:"last_name" validate:"required"`
	Reason   string `json:"reason" validate:"max=500"`
}

type ConfirmationRoom struct {
	RoomTypeID    int64           `json:"room_type_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

type Confirmation struct {
	BookingReference string                   `json:"booking_reference"`
	Status           domain.ReservationStatus `json:"status"`
	CheckIn          string                   `json:"check_in"`
	CheckOut         string                   `json:"check_out"`
	Nights           int                      `json:"nights"`
	Rooms            []ConfirmationRoom       `json:"rooms"`
	TotalAmount      decimal.Decimal          `json:"total_amount"`
	PaymentMethod    domain.PaymentMethod     `json:"payment_method"`
	GuestName        string                   `json:"guest_name"`
	GuestEmail       *string                  `json:"guest_email,omitempty"`
	GuestPhone       *string                  `json:"guest_phone,omitempty"`
	PaymentIntentID  *int64                   `json:"payment_intent_id,omitempty"`
}

type ConfirmationRoomResponse struct {
	RoomTypeID    int64  `json:"room_type_id"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	PricePerNight string `json:"price_per_night"`
	Subtotal      string `json:"subtotal"`
}

type ConfirmationResponse struct {
	BookingReference string                     `json:"booking_reference"`
	Status           string                     `json:"status"`
	CheckIn          string                     `json:"check_in"`
	CheckOut         string                     `json:"check_out"`
	Nights           int                        `json:"nights"`
	Rooms            []ConfirmationRoomResponse `json:"rooms"`
	TotalAmount      string                     `json:"total_amount"`
	PaymentMethod    string                     `json:"payment_method"`
	GuestName        string                     `json:"guest_name"`
	GuestEmail       *string                    `json:"guest_email,omitempty"`
	GuestPhone       *string                    `json:"guest_phone,omitempty"`
	PaymentIntentID  *int64                     `json:"payment_intent_id,omitempty"`
}

func toConfirmationResponse(c *Confirmation) ConfirmationResponse {
	out := ConfirmationResponse{
		BookingReference: c.BookingReference,
		Status:           string(c.Status),
		CheckIn:          c.CheckIn,
		CheckOut:         c.CheckOut,
		Nights:           c.Nights,
		Rooms:            make([]ConfirmationRoomResponse, 0, len(c.Rooms)),
		TotalAmount:      c.TotalAmount.StringFixed(2),
		PaymentMethod:    string(c.PaymentMethod),
		GuestName:        c.GuestName,
		GuestEmail:       c.GuestEmail,
		GuestPhone:       c.GuestPhone,
		PaymentIntentID:  c.PaymentIntentID,
	}
	for _, r := range c.Rooms {
		out.Rooms = append(out.Rooms, ConfirmationRoomResponse{
			RoomTypeID:    r.RoomTypeID,
			Name:          r.Name,
			Quantity:      r.Quantity,
			PricePerNight: r.PricePerNight.StringFixed(2),
			Subtotal:      r.Subtotal.StringFixed(2),
		})
	}
	return out
}
