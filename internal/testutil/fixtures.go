// Package testutil builds in-memory databases and inventory fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lodging/internal/database"
	"lodging/internal/domain"
)

// OpenDB returns a migrated in-memory SQLite database private to the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Date(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func Money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// SeedRoomType creates an active room type with n available rooms numbered <prefix>01...
func SeedRoomType(t testing.TB, db *gorm.DB, tenantID int64, name string, basePrice string, maxOccupancy, n int) (domain.RoomType, []domain.Room) {
	t.Helper()
	rt := domain.RoomType{
		TenantID:     tenantID,
		Name:         name,
		MaxOccupancy: maxOccupancy,
		BasePrice:    Money(basePrice),
		Active:       true,
	}
	require.NoError(t, db.Create(&rt).Error)

	rooms := make([]domain.Room, 0, n)
	for i := 1; i <= n; i++ {
		room := domain.Room{
			TenantID:   tenantID,
			RoomTypeID: rt.ID,
			Number:     fmt.Sprintf("%d%02d", rt.ID, i),
			Floor:      1,
			Status:     domain.RoomAvailable,
			Active:     true,
		}
		require.NoError(t, db.Create(&room).Error)
		rooms = append(rooms, room)
	}
	return rt, rooms
}

// SeedReservation inserts a reservation directly, bypassing the coordinator.
// Each entry of lines is a room type id; roomIDs (optional, same length) assigns rooms.
func SeedReservation(t testing.TB, db *gorm.DB, tenantID int64, status domain.ReservationStatus, checkIn, checkOut string, lines []int64, roomIDs ...*int64) domain.Reservation {
	t.Helper()
	guest := domain.Guest{TenantID: tenantID, FirstName: "Test", LastName: "Guest", Email: domain.NormalizeEmail(fmt.Sprintf("guest%d@example.com", time.Now().UnixNano()))}
	require.NoError(t, db.Create(&guest).Error)

	res := domain.Reservation{
		TenantID:         tenantID,
		GuestID:          guest.ID,
		BookingReference: fmt.Sprintf("T%015d", time.Now().UnixNano()%1e15),
		CheckIn:          Date(checkIn),
		CheckOut:         Date(checkOut),
		Status:           status,
		TotalAmount:      decimal.Zero,
		PaidAmount:       decimal.Zero,
		NumberOfGuests:   1,
		Source:           domain.SourceAdmin,
		PaymentMethod:    domain.MethodPayAtProperty,
	}
	for i, typeID := range lines {
		line := domain.ReservationRoomLine{RoomTypeID: typeID, PricePerNight: Money("100.00")}
		if i < len(roomIDs) {
			line.RoomID = roomIDs[i]
		}
		res.Lines = append(res.Lines, line)
		res.TotalAmount = res.TotalAmount.Add(line.PricePerNight.Mul(decimal.NewFromInt(int64(res.Nights()))))
	}
	require.NoError(t, db.Omit("Guest").Create(&res).Error)
	res.Guest = &guest
	return res
}

func Ptr[T any](v T) *T { return &v }
