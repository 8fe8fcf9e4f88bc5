package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *RoomRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&room).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("room %d", id))
	}
	return &room, nil
}

func (r *RoomRepository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Room, error) {
	var room domain.Room
	err := forUpdate(r.db.WithContext(ctx)).Where("tenant_id = ? AND id = ?", tenantID, id).First(&room).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("room %d", id))
	}
	return &room, nil
}

func (r *RoomRepository) UpdateStatus(ctx context.Context, id int64, status domain.RoomStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Room{}).Where("id = ?", id).Update("status", status).Error
}

func (r *RoomRepository) ListByTenant(ctx context.Context, tenantID int64) ([]domain.Room, error) {
	var out []domain.Room
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("number").Find(&out).Error
	return out, err
}

type unitCount struct {
	RoomTypeID int64
	Units      int64
}

// SellableUnits counts active, in-service rooms per room type.
func (r *RoomRepository) SellableUnits(ctx context.Context, tenantID int64, roomTypeIDs []int64) (map[int64]int, error) {
	var rows []unitCount
	q := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Select("room_type_id, COUNT(*) AS units").
		Where("tenant_id = ? AND active = ? AND status <> ?", tenantID, true, domain.RoomOutOfService)
	if len(roomTypeIDs) > 0 {
		q = q.Where("room_type_id IN ?", roomTypeIDs)
	}
	if err := q.Group("room_type_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.RoomTypeID] = int(row.Units)
	}
	return out, nil
}
