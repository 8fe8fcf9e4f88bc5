package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

// LedgerRepository only appends and reads; there is deliberately no update or delete.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, e *domain.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

type LedgerFilter struct {
	From          *time.Time
	To            *time.Time
	Category      *domain.LedgerCategory
	ReservationID *int64
	Limit         int
}

// List returns entries with created_at in [From, To), oldest first.
func (r *LedgerRepository) List(ctx context.Context, tenantID int64, f LedgerFilter) ([]domain.LedgerEntry, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.ReservationID != nil {
		q = q.Where("reservation_id = ?", *f.ReservationID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []domain.LedgerEntry
	err := q.Order("created_at, id").Find(&out).Error
	return out, err
}
