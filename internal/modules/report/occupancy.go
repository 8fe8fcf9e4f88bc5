package report

import (
	"context"
	"fmt"
	"time"

	"lodging/internal/domain"
	"lodging/internal/repository"
)

// Occupancy is the front desk view of one business day.
type Occupancy struct {
	Date       time.Time
	Arrivals   int64
	Departures int64
	// reservations whose stay covers the night starting on Date
	InHouse  map[domain.ReservationStatus]int64
	Rooms    map[domain.RoomStatus]int
	Sellable int
}

func (s *Service) DailyOccupancy(ctx context.Context, tenantID int64, day time.Time) (*Occupancy, error) {
	day = domain.DateOf(day)
	reservations := repository.NewReservationRepository(s.db)

	arrivals, err := reservations.ArrivalsOn(ctx, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("count arrivals: %w", err)
	}
	departures, err := reservations.DeparturesOn(ctx, tenantID, day)
	if err != nil {
		return nil, fmt.Errorf("count departures: %w", err)
	}
	byStatus, err := reservations.CountByStatus(ctx, tenantID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}
	rooms, err := repository.NewRoomRepository(s.db).ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	out := &Occupancy{
		Date:       day,
		Arrivals:   arrivals,
		Departures: departures,
		InHouse:    byStatus,
		Rooms:      make(map[domain.RoomStatus]int),
	}
	for _, r := range rooms {
		out.Rooms[r.Status]++
		if r.Sellable() {
			out.Sellable++
		}
	}
	return out, nil
}
