// Package seed loads demo inventory for a tenant.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lodging/internal/domain"
	"lodging/internal/repository"
)

type roomTypeSpec struct {
	name      string
	occupancy int
	price     string
	rooms     int
}

var demoRoomTypes = []roomTypeSpec{
	{name: "Standard Double", occupancy: 2, price: "100.00", rooms: 5},
	{name: "Family Room", occupancy: 4, price: "160.00", rooms: 3},
	{name: "Suite", occupancy: 3, price: "250.00", rooms: 2},
}

type Result struct {
	RoomTypes     int
	Rooms         int
	RatePlans     int
	SeasonalRates int
}

// Demo creates room types, rooms and pricing rules for tenantID. It refuses
// to run against a tenant that already has inventory.
func Demo(ctx context.Context, db *gorm.DB, tenantID int64, today time.Time) (*Result, error) {
	today = domain.DateOf(today)
	res := &Result{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := repository.NewCatalogRepository(tx)
		existing, err := catalog.ListRoomTypes(ctx, tenantID, false)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("tenant %d already has %d room types", tenantID, len(existing))
		}

		for i, def := range demoRoomTypes {
			rt := domain.RoomType{
				TenantID:     tenantID,
				Name:         def.name,
				MaxOccupancy: def.occupancy,
				BasePrice:    decimal.RequireFromString(def.price),
				Active:       true,
			}
			if err := catalog.CreateRoomType(ctx, &rt); err != nil {
				return fmt.Errorf("room type %s: %w", def.name, err)
			}
			res.RoomTypes++

			floor := i + 1
			for n := 1; n <= def.rooms; n++ {
				room := domain.Room{
					TenantID:   tenantID,
					RoomTypeID: rt.ID,
					Number:     fmt.Sprintf("%d%02d", floor, n),
					Floor:      floor,
					Status:     domain.RoomAvailable,
					Active:     true,
				}
				if err := tx.Create(&room).Error; err != nil {
					return fmt.Errorf("room %s: %w", room.Number, err)
				}
				res.Rooms++
			}

			// weekly rate for the next quarter, 10% under base
			plan := domain.RatePlan{
				TenantID:   tenantID,
				RoomTypeID: rt.ID,
				Name:       "Weekly",
				Price:      rt.BasePrice.Mul(decimal.RequireFromString("0.9")).Round(2),
				StartDate:  today,
				EndDate:    today.AddDate(0, 3, 0),
				MinNights:  7,
				Active:     true,
			}
			if err := catalog.CreateRatePlan(ctx, &plan); err != nil {
				return fmt.Errorf("rate plan for %s: %w", def.name, err)
			}
			res.RatePlans++

			peak := domain.SeasonalRate{
				TenantID:   tenantID,
				RoomTypeID: rt.ID,
				Name:       "Peak season",
				Multiplier: decimal.RequireFromString("1.25"),
				StartDate:  today.AddDate(0, 1, 0),
				EndDate:    today.AddDate(0, 2, 0),
				Active:     true,
			}
			if err := catalog.CreateSeasonalRate(ctx, &peak); err != nil {
				return fmt.Errorf("seasonal rate for %s: %w", def.name, err)
			}
			res.SeasonalRates++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
