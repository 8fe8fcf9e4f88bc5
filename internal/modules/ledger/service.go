// Package ledger records money movements. Every movement writes its business
// row and an append-only ledger entry in the same transaction.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/audit"
	"lodging/internal/database"
	"lodging/internal/domain"
	"lodging/internal/metrics"
	"lodging/internal/modules/reservation"
	"lodging/internal/repository"
)

type Service struct {
	db           *gorm.DB
	audit        *audit.Recorder
	reservations *reservation.Service
	metrics      *metrics.Metrics
	log          *zap.Logger
	txOpts       database.TxOptions
	now          func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(db *gorm.DB, recorder *audit.Recorder, reservations *reservation.Service, txOpts database.TxOptions, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:           db,
		audit:        recorder,
		reservations: reservations,
		log:          log,
		txOpts:       txOpts,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) run(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	opts := s.txOpts
	opts.OnRetry = func(int, error) { s.metrics.TxRetried(ctx, op) }
	return database.RunInTx(ctx, s.db, opts, fn)
}

// AppendEntry is one journal line to be written by Append.
type AppendEntry struct {
	Actor         domain.Actor
	Type          domain.LedgerType
	Amount        decimal.Decimal
	Category      domain.LedgerCategory
	Method        domain.PaymentMethod
	ReferenceType string
	ReferenceID   int64
	ReservationID *int64
	Description   string
}

// Append validates and inserts a ledger entry inside tx. It is the only write
// path into the ledger.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, e AppendEntry) (*domain.LedgerEntry, error) {
	if err := checkAmount("amount", e.Amount); err != nil {
		return nil, err
	}
	want, ok := e.Category.Direction()
	if !ok {
		return nil, domain.NewValidationError("category", "unknown ledger category %q", e.Category)
	}
	if e.Type != want {
		return nil, domain.NewValidationError("type", "%s entries must be %s, got %s", e.Category, want, e.Type)
	}
	if e.ReferenceType == "" || e.ReferenceID <= 0 {
		return nil, domain.NewValidationError("reference", "ledger entries need a source record")
	}

	entry := &domain.LedgerEntry{
		TenantID:      e.Actor.TenantID,
		Type:          e.Type,
		Amount:        e.Amount,
		Category:      e.Category,
		Method:        e.Method,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID,
		ReservationID: e.ReservationID,
		Description:   e.Description,
		ActorID:       e.Actor.UserID,
		CreatedAt:     s.now(),
	}
	if err := repository.NewLedgerRepository(tx).Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("append ledger entry: %w", err)
	}
	if err := s.audit.Record(ctx, tx, audit.Event{
		Actor:    e.Actor,
		Action:   "ledger.appended",
		EntityID: entry.ID,
		After: &domain.LedgerEntrySnapshot{
			Type:          entry.Type,
			Amount:        entry.Amount,
			Category:      entry.Category,
			ReferenceType: entry.ReferenceType,
			ReferenceID:   entry.ReferenceID,
		},
	}); err != nil {
		return nil, err
	}
	s.metrics.LedgerAppended(ctx, string(entry.Category))
	return entry, nil
}

func checkAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError(field, "must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.NewValidationError(field, "must have at most two decimal places")
	}
	return nil
}

func checkMethod(m domain.PaymentMethod) error {
	if !m.Valid() || m == domain.MethodPayAtProperty {
		return domain.NewValidationError("method", "unsupported payment method %q", m)
	}
	return nil
}

func (s *Service) ListEntries(ctx context.Context, tenantID int64, f repository.LedgerFilter) ([]domain.LedgerEntry, error) {
	return repository.NewLedgerRepository(s.db).List(ctx, tenantID, f)
}

type Balance struct {
	ReservationID int64
	Credits       decimal.Decimal
	Debits        decimal.Decimal
	Net           decimal.Decimal
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Outstanding   decimal.Decimal
}

// ReservationBalance sums the ledger entries booked against a reservation.
// Net always equals the reservation's paid amount.
func (s *Service) ReservationBalance(ctx context.Context, tenantID, reservationID int64) (*Balance, error) {
	res, err := repository.NewReservationRepository(s.db).GetByID(ctx, tenantID, reservationID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ListEntries(ctx, tenantID, repository.LedgerFilter{ReservationID: &reservationID})
	if err != nil {
		return nil, err
	}
	b := &Balance{
		ReservationID: reservationID,
		Credits:       decimal.Zero,
		Debits:        decimal.Zero,
		TotalAmount:   res.TotalAmount,
		PaidAmount:    res.PaidAmount,
		Outstanding:   res.Outstanding(),
	}
	for _, e := range entries {
		if e.Type == domain.LedgerCredit {
			b.Credits = b.Credits.Add(e.Amount)
		} else {
			b.Debits = b.Debits.Add(e.Amount)
		}
	}
	b.Net = b.Credits.Sub(b.Debits)
	return b, nil
}
