package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type StayRepository struct {
	db *gorm.DB
}

func NewStayRepository(db *gorm.DB) *StayRepository {
	return &StayRepository{db: db}
}

func (r *StayRepository) Create(ctx context.Context, s *domain.Stay) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// CloseOpen stamps check_out on every open stay of the reservation.
func (r *StayRepository) CloseOpen(ctx context.Context, reservationID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Stay{}).
		Where("reservation_id = ? AND check_out IS NULL", reservationID).
		Update("check_out", at).Error
}

func (r *StayRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Stay, error) {
	var out []domain.Stay
	err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Order("id").Find(&out).Error
	return out, err
}
