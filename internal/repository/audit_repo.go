package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, e *domain.AuditEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *AuditRepository) ListUnpublished(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at, id").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *AuditRepository) MarkPublished(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&domain.AuditEvent{}).
		Where("id IN ?", ids).
		Update("published_at", at).Error
}

func (r *AuditRepository) ListForEntity(ctx context.Context, tenantID int64, entityType domain.AuditEntity, entityID int64) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, string(entityType), entityID).
		Order("created_at, id").
		Find(&out).Error
	return out, err
}

// DeletePublishedBefore removes relayed events older than cutoff. Unpublished rows are never touched.
func (r *AuditRepository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&domain.AuditEvent{})
	return res.RowsAffected, res.Error
}
