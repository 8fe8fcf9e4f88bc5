package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type HousekeepingRepository struct {
	db *gorm.DB
}

func NewHousekeepingRepository(db *gorm.DB) *HousekeepingRepository {
	return &HousekeepingRepository{db: db}
}

func (r *HousekeepingRepository) Create(ctx context.Context, t *domain.HousekeepingTask) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *HousekeepingRepository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.HousekeepingTask, error) {
	var t domain.HousekeepingTask
	err := forUpdate(r.db.WithContext(ctx)).Where("tenant_id = ? AND id = ?", tenantID, id).First(&t).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("housekeeping task %d", id))
	}
	return &t, nil
}

func (r *HousekeepingRepository) Save(ctx context.Context, t *domain.HousekeepingTask) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// OpenForRoom reports whether the room already has a task that is not done.
func (r *HousekeepingRepository) OpenForRoom(ctx context.Context, roomID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.HousekeepingTask{}).
		Where("room_id = ? AND status <> ?", roomID, domain.TaskDone).
		Count(&n).Error
	return n > 0, err
}

func (r *HousekeepingRepository) List(ctx context.Context, tenantID int64, status *domain.TaskStatus) ([]domain.HousekeepingTask, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []domain.HousekeepingTask
	err := q.Order("created_at, id").Find(&out).Error
	return out, err
}
