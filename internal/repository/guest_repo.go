package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type GuestRepository struct {
	db *gorm.DB
}

func NewGuestRepository(db *gorm.DB) *GuestRepository {
	return &GuestRepository{db: db}
}

// FindByContact matches on normalized email first, then phone. Returns nil, nil when absent.
func (r *GuestRepository) FindByContact(ctx context.Context, tenantID int64, email, phone *string) (*domain.Guest, error) {
	if email != nil {
		g, err := r.findBy(ctx, tenantID, "email", *email)
		if err != nil || g != nil {
			return g, err
		}
	}
	if phone != nil {
		return r.findBy(ctx, tenantID, "phone", *phone)
	}
	return nil, nil
}

func (r *GuestRepository) findBy(ctx context.Context, tenantID int64, column, value string) (*domain.Guest, error) {
	var g domain.Guest
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND "+column+" = ?", tenantID, value).
		Order("id").
		First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepository) Create(ctx context.Context, g *domain.Guest) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *GuestRepository) Save(ctx context.Context, g *domain.Guest) error {
	return r.db.WithContext(ctx).Save(g).Error
}
