package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lodging/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Payment, error) {
	var p domain.Payment
	err := forUpdate(r.db.WithContext(ctx)).Where("tenant_id = ? AND id = ?", tenantID, id).First(&p).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payment %d", id))
	}
	return &p, nil
}

func (r *PaymentRepository) MarkPaid(ctx context.Context, id int64, amount decimal.Decimal, method domain.PaymentMethod, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", id).Updates(map[string]any{
		"status":  domain.PaymentPaid,
		"amount":  amount,
		"method":  method,
		"paid_at": at,
	}).Error
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", id).Update("status", status).Error
}

// InitiatedFor returns the open payment intent of a reservation, or nil.
func (r *PaymentRepository) InitiatedFor(ctx context.Context, reservationID int64) (*domain.Payment, error) {
	var out []domain.Payment
	err := forUpdate(r.db.WithContext(ctx)).
		Where("reservation_id = ? AND status = ?", reservationID, domain.PaymentInitiated).
		Order("id").Limit(1).
		Find(&out).Error
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

// FailInitiated marks every open intent of the reservation as failed and returns how many.
func (r *PaymentRepository) FailInitiated(ctx context.Context, reservationID int64) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("reservation_id = ? AND status = ?", reservationID, domain.PaymentInitiated).
		Update("status", domain.PaymentFailed)
	return res.RowsAffected, res.Error
}

// RefundedAmount is the absolute sum already refunded against a payment.
func (r *PaymentRepository) RefundedAmount(ctx context.Context, paymentID int64) (decimal.Decimal, error) {
	var refunds []domain.Payment
	if err := r.db.WithContext(ctx).Where("refund_of_id = ?", paymentID).Find(&refunds).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range refunds {
		total = total.Add(p.Amount.Abs())
	}
	return total, nil
}

func (r *PaymentRepository) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Order("id").Find(&out).Error
	return out, err
}
