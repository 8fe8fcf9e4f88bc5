package availability

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lodging/internal/domain"
	"lodging/internal/repository"
)

// The functions in this file take the handle to read through, so the booking
// coordinator can re-count inside its own transaction.

type Units struct {
	Total  int
	Booked int
}

func (u Units) Available() int {
	if u.Booked >= u.Total {
		return 0
	}
	return u.Total - u.Booked
}

// CountUnits returns sellable and booked units per requested room type.
func CountUnits(ctx context.Context, db *gorm.DB, tenantID int64, roomTypeIDs []int64, checkIn, checkOut time.Time) (map[int64]Units, error) {
	if !checkOut.After(checkIn) {
		return nil, domain.ErrInvalidDateRange
	}
	total, err := repository.NewRoomRepository(db).SellableUnits(ctx, tenantID, roomTypeIDs)
	if err != nil {
		return nil, fmt.Errorf("count rooms: %w", err)
	}
	booked, err := repository.NewReservationRepository(db).BookedUnits(ctx, tenantID, roomTypeIDs, checkIn, checkOut)
	if err != nil {
		return nil, fmt.Errorf("count booked rooms: %w", err)
	}

	out := make(map[int64]Units, len(roomTypeIDs))
	for _, id := range roomTypeIDs {
		out[id] = Units{Total: total[id], Booked: booked[id]}
	}
	return out, nil
}

func CountAvailable(ctx context.Context, db *gorm.DB, tenantID, roomTypeID int64, checkIn, checkOut time.Time) (int, error) {
	units, err := CountUnits(ctx, db, tenantID, []int64{roomTypeID}, checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	return units[roomTypeID].Available(), nil
}

func RoomAvailable(ctx context.Context, db *gorm.DB, tenantID, roomID int64, checkIn, checkOut time.Time, excludeReservationID *int64) (bool, error) {
	if !checkOut.After(checkIn) {
		return false, domain.ErrInvalidDateRange
	}
	booked, err := repository.NewReservationRepository(db).RoomBooked(ctx, tenantID, roomID, checkIn, checkOut, excludeReservationID)
	if err != nil {
		return false, fmt.Errorf("check room %d: %w", roomID, err)
	}
	return !booked, nil
}
