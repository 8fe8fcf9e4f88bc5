package availability

type SearchRequest struct {
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out" binding:"required"`
	Guests   int    `form:"guests"`
}

type OfferResponse struct {
	RoomTypeID     int64  `json:"room_type_id"`
	Name           string `json:"name"`
	MaxOccupancy   int    `json:"max_occupancy"`
	TotalRooms     int    `json:"total_rooms"`
	BookedRooms    int    `json:"booked_rooms"`
	AvailableRooms int    `json:"available_rooms"`
	Nights         int    `json:"nights"`
	NightlyPrice   string `json:"nightly_price"`
	TotalPrice     string `json:"total_price"`
}

func toOfferResponse(o Offer) OfferResponse {
	return OfferResponse{
		RoomTypeID:     o.RoomType.ID,
		Name:           o.RoomType.Name,
		MaxOccupancy:   o.RoomType.MaxOccupancy,
		TotalRooms:     o.TotalRooms,
		BookedRooms:    o.BookedRooms,
		AvailableRooms: o.AvailableRooms,
		Nights:         o.Nights,
		NightlyPrice:   o.NightlyPrice.StringFixed(2),
		TotalPrice:     o.TotalPrice.StringFixed(2),
	}
}
