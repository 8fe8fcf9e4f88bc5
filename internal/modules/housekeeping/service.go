// Package housekeeping tracks room cleaning and the room status board.
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/repository"
)

type Service struct {
	db     *gorm.DB
	audit  *audit.Recorder
	log    *zap.Logger
	txOpts database.TxOptions
	now    func() time.Time
}

func NewService(db *gorm.DB, recorder *audit.Recorder, txOpts database.TxOptions, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:     db,
		audit:  recorder,
		log:    log,
		txOpts: txOpts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func snapshot(t *domain.HousekeepingTask) *domain.HousekeepingSnapshot {
	return &domain.HousekeepingSnapshot{RoomID: t.RoomID, Status: t.Status}
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, roomID int64, notes string) (*domain.HousekeepingTask, error) {
	var task *domain.HousekeepingTask
	err := database.RunInTx(ctx, s.db, s.txOpts, func(tx *gorm.DB) error {
		if _, err := repository.NewRoomRepository(tx).GetByID(ctx, actor.TenantID, roomID); err != nil {
			return err
		}
		task = &domain.HousekeepingTask{TenantID: actor.TenantID, RoomID: roomID, Status: domain.TaskPending, Notes: notes}
		if err := repository.NewHousekeepingRepository(tx).Create(ctx, task); err != nil {
			return fmt.Errorf("create housekeeping task: %w", err)
		}
		return s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "housekeeping.created", EntityID: task.ID, After: snapshot(task)})
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) List(ctx context.Context, tenantID int64, status *domain.TaskStatus) ([]domain.HousekeepingTask, error) {
	return repository.NewHousekeepingRepository(s.db).List(ctx, tenantID, status)
}

// UpdateStatus moves a task along pending -> in_progress -> done. Finishing a
// task on a dirty room makes the room available again.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, taskID int64, to domain.TaskStatus) (*domain.HousekeepingTask, error) {
	var task *domain.HousekeepingTask
	err := database.RunInTx(ctx, s.db, s.txOpts, func(tx *gorm.DB) error {
		tasks := repository.NewHousekeepingRepository(tx)
		var err error
		task, err = tasks.GetByIDForUpdate(ctx, actor.TenantID, taskID)
		if err != nil {
			return err
		}
		if !task.Status.CanTransitionTo(to) {
			return task.Status.TransitionError(to)
		}

		before := snapshot(task)
		task.Status = to
		if to == domain.TaskDone {
			now := s.now()
			task.CompletedAt = &now
		}
		if err := tasks.Save(ctx, task); err != nil {
			return fmt.Errorf("update housekeeping task %d: %w", task.ID, err)
		}
		if err := s.audit.Record(ctx, tx, audit.Event{Actor: actor, Action: "housekeeping.status_changed", EntityID: task.ID, Before: before, After: snapshot(task)}); err != nil {
			return err
		}

		if to != domain.TaskDone {
			return nil
		}
		room, err := repository.NewRoomRepository(tx).GetByIDForUpdate(ctx, actor.TenantID, task.RoomID)
		if err != nil {
			return err
		}
		if room.Status != domain.RoomDirty {
			return nil
		}
		return s.setRoomStatus(ctx, tx, actor, room, domain.RoomAvailable)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("housekeeping task updated", zap.Int64("task_id", task.ID), zap.String("status", string(task.Status)))
	return task, nil
}

func (s *Service) ListRooms(ctx context.Context, tenantID int64) ([]domain.Room, error) {
	return repository.NewRoomRepository(s.db).ListByTenant(ctx, tenantID)
}

// SetRoomStatus changes a room on the status board. Occupancy is owned by
// check-in and check-out, so occupied is neither a valid source nor target.
func (s *Service) SetRoomStatus(ctx context.Context, actor domain.Actor, roomID int64, status domain.RoomStatus) (*domain.Room, error) {
	switch status {
	case domain.RoomAvailable, domain.RoomReserved, domain.RoomDirty, domain.RoomOutOfService:
	default:
		return nil, domain.NewValidationError("status", "cannot set room status to %q", status)
	}

	var room *domain.Room
	err := database.RunInTx(ctx, s.db, s.txOpts, func(tx *gorm.DB) error {
		var err error
		room, err = repository.NewRoomRepository(tx).GetByIDForUpdate(ctx, actor.TenantID, roomID)
		if err != nil {
			return err
		}
		if room.Status == domain.RoomOccupied {
			return fmt.Errorf("room %s is occupied: %w", room.Number, domain.ErrRoomUnavailable)
		}
		return s.setRoomStatus(ctx, tx, actor, room, status)
	})
	if err != nil {
		return nil, err
	}
	return room, nil
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
