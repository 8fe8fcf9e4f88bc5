// Package reservation drives the reservation lifecycle and its side effects on rooms and stays.
package reservation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/metrics"
	"lodging/internal/repository"
)

type Service struct {
	db      *gorm.DB
	audit   *audit.Recorder
	metrics *metrics.Metrics
	log     *zap.Logger
	txOpts  database.TxOptions
	now     func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(db *gorm.DB, recorder *audit.Recorder, txOpts database.TxOptions, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:     db,
		audit:  recorder,
		log:    log,
		txOpts: txOpts,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TransitionRequest moves a reservation to To. Assignments maps line id to
// room id and is only read when checking in.
type TransitionRequest struct {
	ReservationID int64
	To            domain.ReservationStatus
	Assignments   map[int64]int64
	Reason        string
}

// Transition applies one state-machine step and all of its side effects atomically.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, req TransitionRequest) (*domain.Reservation, error) {
	opts := s.txOpts
	opts.OnRetry = func(int, error) { s.metrics.TxRetried(ctx, "reservation.transition") }

	err := database.RunInTx(ctx, s.db, opts, func(tx *gorm.DB) error {
		res, err := repository.NewReservationRepository(tx).GetByIDForUpdate(ctx, actor.TenantID, req.ReservationID)
		if err != nil {
			return err
		}
		return s.Apply(ctx, tx, actor, res, req)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor.TenantID, req.ReservationID)
}

// Apply runs the transition against res inside an open transaction. res must
// have been loaded through tx with its lines and is updated in place.
func (s *Service) Apply(ctx context.Context, tx *gorm.DB, actor domain.Actor, res *domain.Reservation, req TransitionRequest) error {
	from := res.Status
	if !from.CanTransitionTo(req.To) {
		return from.TransitionError(req.To)
	}

	before := domain.SnapshotReservation(res)
	now := s.now()
	fields := map[string]any{"status": req.To}

	switch req.To {
	case domain.ReservationCancelled:
		fields["cancelled_at"] = now
		fields["cancel_reason"] = req.Reason
		res.CancelledAt = &now
		res.CancelReason = req.Reason
		if _, err := repository.NewPaymentRepository(tx).FailInitiated(ctx, res.ID); err != nil {
			return fmt.Errorf("void payment intents: %w", err)
		}
	case domain.ReservationCheckedIn:
		if err := s.checkIn(ctx, tx, actor, res, req.Assignments, now); err != nil {
			return err
		}
		fields["checked_in_at"] = now
		res.CheckedInAt = &now
	case domain.ReservationCheckedOut:
		if err := s.checkOut(ctx, tx, actor, res, now); err != nil {
			return err
		}
		fields["checked_out_at"] = now
		res.CheckedOutAt = &now
	}

	if err := repository.NewReservationRepository(tx).UpdateFields(ctx, res.ID, fields); err != nil {
		return fmt.Errorf("update reservation %d: %w", res.ID, err)
	}
	res.Status = req.To

	if err := s.audit.Record(ctx, tx, audit.Event{
		Actor:    actor,
		Action:   "reservation.status_changed",
		EntityID: res.ID,
		Before:   before,
		After:    domain.SnapshotReservation(res),
	}); err != nil {
		return err
	}

	s.metrics.Transitioned(ctx, string(from), string(req.To))
	s.log.Info("reservation status changed",
		zap.Int64("tenant_id", res.TenantID),
		zap.String("reference", res.BookingReference),
		zap.String("from", string(from)),
		zap.String("to", string(req.To)))
	return nil
}

func (s *Service) Confirm(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	return s.Transition(ctx, actor, TransitionRequest{ReservationID: id, To: domain.ReservationConfirmed})
}

func (s *Service) CheckIn(ctx context.Context, actor domain.Actor, id int64, assignments map[int64]int64) (*domain.Reservation, error) {
	return s.Transition(ctx, actor, TransitionRequest{ReservationID: id, To: domain.ReservationCheckedIn, Assignments: assignments})
}

func (s *Service) CheckOut(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	return s.Transition(ctx, actor, TransitionRequest{ReservationID: id, To: domain.ReservationCheckedOut})
}

func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Reservation, error) {
	return s.Transition(ctx, actor, TransitionRequest{ReservationID: id, To: domain.ReservationCancelled, Reason: reason})
}

func (s *Service) MarkNoShow(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	return s.Transition(ctx, actor, TransitionRequest{ReservationID: id, To: domain.ReservationNoShow})
}

func (s *Service) Get(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	return repository.NewReservationRepository(s.db).GetByID(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID int64, f repository.ReservationFilter) ([]domain.Reservation, int64, error) {
	return repository.NewReservationRepository(s.db).List(ctx, tenantID, f)
}

// Stays returns the occupation records of a reservation.
func (s *Service) Stays(ctx context.Context, tenantID, id int64) ([]domain.Stay, error) {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return repository.NewStayRepository(s.db).ListByReservation(ctx, id)
}

// History returns the audit trail of a reservation, oldest first.
func (s *Service) History(ctx context.Context, tenantID, id int64) ([]domain.AuditEvent, error) {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return repository.NewAuditRepository(s.db).ListForEntity(ctx, tenantID, domain.AuditReservation, id)
}
