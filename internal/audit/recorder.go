// Package audit writes audit events to the transactional outbox and relays
// them to the external sink.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lodging/internal/domain"
	"lodging/internal/repository"
)

// Event describes one state change. Before is nil for creations.
type Event struct {
	Actor    domain.Actor
	Action   string
	EntityID int64
	Before   domain.AuditSnapshot
	After    domain.AuditSnapshot
}

// Recorder appends events to audit_events inside the caller's transaction, so
// the record commits or rolls back together with the change it describes.
type Recorder struct {
	now func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: func() time.Time { return time.Now().UTC() }}
}

func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, e Event) error {
	row, err := r.row(e)
	if err != nil {
		return err
	}
	if err := repository.NewAuditRepository(tx).Create(ctx, row); err != nil {
		return fmt.Errorf("record audit %s: %w", e.Action, err)
	}
	return nil
}

func (r *Recorder) row(e Event) (*domain.AuditEvent, error) {
	var entity domain.AuditEntity
	switch {
	case e.After != nil:
		entity = e.After.AuditEntity()
	case e.Before != nil:
		entity = e.Before.AuditEntity()
	default:
		return nil, fmt.Errorf("audit %s: no snapshot", e.Action)
	}
	if e.Before != nil && e.After != nil && e.Before.AuditEntity() != e.After.AuditEntity() {
		return nil, fmt.Errorf("audit %s: snapshot kinds differ (%s, %s)", e.Action, e.Before.AuditEntity(), e.After.AuditEntity())
	}

	before, err := encode(e.Before)
	if err != nil {
		return nil, err
	}
	after, err := encode(e.After)
	if err != nil {
		return nil, err
	}
	return &domain.AuditEvent{
		ID:         uuid.NewString(),
		TenantID:   e.Actor.TenantID,
		ActorID:    e.Actor.UserID,
		Action:     e.Action,
		EntityType: string(entity),
		EntityID:   e.EntityID,
		Before:     before,
		After:      after,
		CreatedAt:  r.now(),
	}, nil
}

func encode(s domain.AuditSnapshot) (*string, error) {
	if s == nil {
		return nil, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", s.AuditEntity(), err)
	}
	out := string(raw)
	return &out, nil
}

// DecodeSnapshot restores the typed payload stored for entityType.
func DecodeSnapshot(entityType string, raw string) (domain.AuditSnapshot, error) {
	var s domain.AuditSnapshot
	switch domain.AuditEntity(entityType) {
	case domain.AuditReservation:
		s = &domain.ReservationSnapshot{}
	case domain.AuditPayment:
		s = &domain.PaymentSnapshot{}
	case domain.AuditLedgerEntry:
		s = &domain.LedgerEntrySnapshot{}
	case domain.AuditRoom:
		s = &domain.RoomSnapshot{}
	case domain.AuditHousekeeping:
		s = &domain.HousekeepingSnapshot{}
	case domain.AuditIncome:
		s = &domain.IncomeSnapshot{}
	case domain.AuditExpense:
		s = &domain.ExpenseSnapshot{}
	case domain.AuditGuest:
		s = &domain.GuestSnapshot{}
	default:
		return nil, fmt.Errorf("unknown audit entity %q", entityType)
	}
	if err := json.Unmarshal([]byte(raw), s); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", entityType, err)
	}
	return s, nil
}
