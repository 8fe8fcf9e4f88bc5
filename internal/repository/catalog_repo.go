package repository

import (
	"context"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateRoomType(ctx context.Context, rt *domain.RoomType) error {
	return r.db.WithContext(ctx).Create(rt).Error
}

func (r *CatalogRepository) CreateRatePlan(ctx context.Context, p *domain.RatePlan) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *CatalogRepository) CreateSeasonalRate(ctx context.Context, s *domain.SeasonalRate) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// ListRoomTypes returns the tenant's room types; ids narrows the result when non-empty.
func (r *CatalogRepository) ListRoomTypes(ctx context.Context, tenantID int64, activeOnly bool, ids ...int64) ([]domain.RoomType, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	var out []domain.RoomType
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepository) ListRatePlans(ctx context.Context, tenantID int64, roomTypeIDs ...int64) ([]domain.RatePlan, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ? AND active = ?", tenantID, true)
	if len(roomTypeIDs) > 0 {
		q = q.Where("room_type_id IN ?", roomTypeIDs)
	}
	var out []domain.RatePlan
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepository) ListSeasonalRates(ctx context.Context, tenantID int64, roomTypeIDs ...int64) ([]domain.SeasonalRate, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ? AND active = ?", tenantID, true)
	if len(roomTypeIDs) > 0 {
		q = q.Where("room_type_id IN ?", roomTypeIDs)
	}
	var out []domain.SeasonalRate
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
