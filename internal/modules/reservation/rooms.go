package reservation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/domain"
	"lodging/internal/modules/availability"
	"lodging/internal/repository"
)

// checkIn binds a room to every line, marks the rooms occupied and opens stays.
// Any rejected room aborts the whole check-in.
func (s *Service) checkIn(ctx context.Context, tx *gorm.DB, actor domain.Actor, res *domain.Reservation, assignments map[int64]int64, now time.Time) error {
	lineIDs := make(map[int64]bool, len(res.Lines))
	for _, l := range res.Lines {
		lineIDs[l.ID] = true
	}
	for lineID := range assignments {
		if !lineIDs[lineID] {
			return domain.NewValidationError("assignments", "line %d does not belong to reservation %s", lineID, res.BookingReference)
		}
	}

	lines := append([]domain.ReservationRoomLine(nil), res.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })

	rooms := repository.NewRoomRepository(tx)
	reservations := repository.NewReservationRepository(tx)
	stays := repository.NewStayRepository(tx)
	used := make(map[int64]bool, len(lines))

	for i, line := range lines {
		roomID, ok := assignments[line.ID]
		if !ok {
			switch a := line.Assignment().(type) {
			case domain.Assigned:
				roomID = a.RoomID
			case domain.Unassigned:
				return domain.NewValidationError("assignments", "line %d needs a room before check-in", line.ID)
			}
		}
		if used[roomID] {
			return fmt.Errorf("room %d assigned to more than one line: %w", roomID, domain.ErrRoomUnavailable)
		}
		used[roomID] = true

		room, err := rooms.GetByIDForUpdate(ctx, res.TenantID, roomID)
		if err != nil {
			return err
		}
		if err := checkRoomUsable(room, line); err != nil {
			return err
		}
		free, err := availability.RoomAvailable(ctx, tx, res.TenantID, room.ID, res.CheckIn, res.CheckOut, &res.ID)
		if err != nil {
			return err
		}
		if !free {
			return fmt.Errorf("room %s is held by another reservation: %w", room.Number, domain.ErrRoomUnavailable)
		}

		if err := reservations.AssignLineRoom(ctx, line.ID, room.ID); err != nil {
			return fmt.Errorf("assign room %s: %w", room.Number, err)
		}
		if err := s.setRoomStatus(ctx, tx, actor, room, domain.RoomOccupied); err != nil {
			return err
		}
		if err := stays.Create(ctx, &domain.Stay{
			TenantID:      res.TenantID,
			ReservationID: res.ID,
			RoomID:        room.ID,
			CheckIn:       now,
		}); err != nil {
			return fmt.Errorf("open stay: %w", err)
		}
		lines[i].RoomID = &room.ID
	}
	res.Lines = lines
	return nil
}

func checkRoomUsable(room *domain.Room, line domain.ReservationRoomLine) error {
	switch {
	case room.RoomTypeID != line.RoomTypeID:
		return fmt.Errorf("room %s is not of the booked room type: %w", room.Number, domain.ErrRoomUnavailable)
	case !room.Active:
		return fmt.Errorf("room %s is inactive: %w", room.Number, domain.ErrRoomUnavailable)
	case room.Status == domain.RoomOccupied:
		return fmt.Errorf("room %s is occupied: %w", room.Number, domain.ErrRoomUnavailable)
	case room.Status == domain.RoomOutOfService:
		return fmt.Errorf("room %s is out of service: %w", room.Number, domain.ErrRoomUnavailable)
	}
	return nil
}

// checkOut releases every assigned room to housekeeping and closes the stays.
func (s *Service) checkOut(ctx context.Context, tx *gorm.DB, actor domain.Actor, res *domain.Reservation, now time.Time) error {
	rooms := repository.NewRoomRepository(tx)
	tasks := repository.NewHousekeepingRepository(tx)

	for _, line := range res.Lines {
		a, ok := line.Assignment().(domain.Assigned)
		if !ok {
			continue
		}
		room, err := rooms.GetByIDForUpdate(ctx, res.TenantID, a.RoomID)
		if err != nil {
			return err
		}
		if err := s.setRoomStatus(ctx, tx, actor, room, domain.RoomDirty); err != nil {
			return err
		}

		open, err := tasks.OpenForRoom(ctx, room.ID)
		if err != nil {
			return err
		}
		if open {
			continue
		}
		task := &domain.HousekeepingTask{
			TenantID:      res.TenantID,
			RoomID:        room.ID,
			ReservationID: &res.ID,
			Status:        domain.TaskPending,
			Notes:         "checkout " + res.BookingReference,
		}
		if err := tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("create housekeeping task: %w", err)
		}
		if err := s.audit.Record(ctx, tx, audit.Event{
			Actor:    actor,
			Action:   "housekeeping.created",
			EntityID: task.ID,
			After:    &domain.HousekeepingSnapshot{RoomID: room.ID, Status: task.Status},
		}); err != nil {
			return err
		}
	}

	if err := repository.NewStayRepository(tx).CloseOpen(ctx, res.ID, now); err != nil {
		return fmt.Errorf("close stays: %w", err)
	}
	return nil
}

func (s *Service) setRoomStatus(ctx context.Context, tx *gorm.DB, actor domain.Actor, room *domain.Room, status domain.RoomStatus) error {
	if room.Status == status {
		return nil
	}
	before := &domain.RoomSnapshot{Number: room.Number, Status: room.Status}
	if err := repository.NewRoomRepository(tx).UpdateStatus(ctx, room.ID, status); err != nil {
		return fmt.Errorf("room %s status: %w", room.Number, err)
	}
	room.Status = status
	return s.audit.Record(ctx, tx, audit.Event{
		Actor:    actor,
		Action:   "room.status_changed",
		EntityID: room.ID,
		Before:   before,
		After:    &domain.RoomSnapshot{Number: room.Number, Status: status},
	})
}
