package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lodging/internal/domain"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create inserts the reservation together with its room lines.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	return r.db.WithContext(ctx).Omit("Guest").Create(res).Error
}

func (r *ReservationRepository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	return r.first(r.db.WithContext(ctx), fmt.Sprintf("reservation %d", id), "tenant_id = ? AND id = ?", tenantID, id)
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tenantID, id int64) (*domain.Reservation, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), fmt.Sprintf("reservation %d", id), "tenant_id = ? AND id = ?", tenantID, id)
}

// GetByReference looks a reservation up across tenants; references are globally unique.
func (r *ReservationRepository) GetByReference(ctx context.Context, reference string) (*domain.Reservation, error) {
	return r.first(r.db.WithContext(ctx), "reservation "+reference, "booking_reference = ?", reference)
}

func (r *ReservationRepository) GetByReferenceForUpdate(ctx context.Context, reference string) (*domain.Reservation, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)), "reservation "+reference, "booking_reference = ?", reference)
}

func (r *ReservationRepository) first(q *gorm.DB, what string, where string, args ...any) (*domain.Reservation, error) {
	var res domain.Reservation
	err := q.Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Guest").
		Where(where, args...).
		First(&res).Error
	if err != nil {
		return nil, notFound(err, what)
	}
	return &res, nil
}

func (r *ReservationRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Reservation{}).Where("booking_reference = ?", reference).Count(&n).Error
	return n > 0, err
}

func (r *ReservationRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	return r.db.WithContext(ctx).Model(&domain.Reservation{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ReservationRepository) AssignLineRoom(ctx context.Context, lineID, roomID int64) error {
	return r.db.WithContext(ctx).Model(&domain.ReservationRoomLine{}).
		Where("id = ?", lineID).
		Update("room_id", roomID).Error
}

type bookedRow struct {
	RoomTypeID int64
	Unassigned int64
	Assigned   int64
}

// BookedUnits returns, per room type, the units held by blocking reservations
// overlapping [checkIn, checkOut). An unassigned line holds one unit; assigned
// lines hold one unit per distinct room.
func (r *ReservationRepository) BookedUnits(ctx context.Context, tenantID int64, roomTypeIDs []int64, checkIn, checkOut time.Time) (map[int64]int, error) {
	var rows []bookedRow
	q := r.db.WithContext(ctx).
		Table("reservation_room_lines AS l").
		Select(`l.room_type_id AS room_type_id,
			SUM(CASE WHEN l.room_id IS NULL THEN 1 ELSE 0 END) AS unassigned,
			COUNT(DISTINCT l.room_id) AS assigned`).
		Joins("JOIN reservations AS r ON r.id = l.reservation_id").
		Where("r.tenant_id = ?", tenantID).
		Where("r.status IN ?", domain.BlockingStatusValues()).
		Where("r.check_in < ? AND r.check_out > ?", checkOut, checkIn)
	if len(roomTypeIDs) > 0 {
		q = q.Where("l.room_type_id IN ?", roomTypeIDs)
	}
	if err := q.Group("l.room_type_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.RoomTypeID] = int(row.Unassigned + row.Assigned)
	}
	return out, nil
}

// RoomBooked reports whether a blocking reservation other than exclude holds roomID
// on any night in [checkIn, checkOut).
func (r *ReservationRepository) RoomBooked(ctx context.Context, tenantID, roomID int64, checkIn, checkOut time.Time, exclude *int64) (bool, error) {
	q := r.db.WithContext(ctx).
		Table("reservation_room_lines AS l").
		Joins("JOIN reservations AS r ON r.id = l.reservation_id").
		Where("r.tenant_id = ? AND l.room_id = ?", tenantID, roomID).
		Where("r.status IN ?", domain.BlockingStatusValues()).
		Where("r.check_in < ? AND r.check_out > ?", checkOut, checkIn)
	if exclude != nil {
		q = q.Where("r.id <> ?", *exclude)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type ReservationFilter struct {
	Status   *domain.ReservationStatus
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

func (r *ReservationRepository) List(ctx context.Context, tenantID int64, f ReservationFilter) ([]domain.Reservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Reservation{}).Where("tenant_id = ?", tenantID)
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.From != nil {
		q = q.Where("check_out > ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("check_in < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.PageSize <= 0 {
		f.PageSize = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	var out []domain.Reservation
	err := q.Preload("Lines").Preload("Guest").
		Order("check_in, id").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ArrivalsOn counts confirmed reservations checking in on day; DeparturesOn counts
// checked-in reservations checking out on day.
func (r *ReservationRepository) ArrivalsOn(ctx context.Context, tenantID int64, day time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Reservation{}).
		Where("tenant_id = ? AND check_in = ? AND status IN ?", tenantID, day,
			[]string{string(domain.ReservationConfirmed), string(domain.ReservationCheckedIn)}).
		Count(&n).Error
	return n, err
}

func (r *ReservationRepository) DeparturesOn(ctx context.Context, tenantID int64, day time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Reservation{}).
		Where("tenant_id = ? AND check_out = ? AND status IN ?", tenantID, day,
			[]string{string(domain.ReservationCheckedIn), string(domain.ReservationCheckedOut)}).
		Count(&n).Error
	return n, err
}

// CountByStatus groups the tenant's reservations overlapping [from, to) by status.
func (r *ReservationRepository) CountByStatus(ctx context.Context, tenantID int64, from, to time.Time) (map[domain.ReservationStatus]int64, error) {
	var rows []struct {
		Status domain.ReservationStatus
		N      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Reservation{}).
		Select("status, COUNT(*) AS n").
		Where("tenant_id = ? AND check_in < ? AND check_out > ?", tenantID, to, from).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.ReservationStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}
