package pricing

import (
	"context"
	"fmt"
	"time"

	"lodging/internal/domain"
)

// CatalogSource is satisfied by repository.CatalogRepository.
type CatalogSource interface {
	ListRoomTypes(ctx context.Context, tenantID int64, activeOnly bool, ids ...int64) ([]domain.RoomType, error)
	ListRatePlans(ctx context.Context, tenantID int64, roomTypeIDs ...int64) ([]domain.RatePlan, error)
	ListSeasonalRates(ctx context.Context, tenantID int64, roomTypeIDs ...int64) ([]domain.SeasonalRate, error)
}

// Catalog is a tenant's room types with the active pricing rules that apply to them.
type Catalog struct {
	TenantID      int64
	RoomTypes     []domain.RoomType
	RatePlans     []domain.RatePlan
	SeasonalRates []domain.SeasonalRate
}

// LoadCatalog reads active room types and their rules. Empty ids loads the whole tenant.
func LoadCatalog(ctx context.Context, src CatalogSource, tenantID int64, ids ...int64) (*Catalog, error) {
	types, err := src.ListRoomTypes(ctx, tenantID, true, ids...)
	if err != nil {
		return nil, fmt.Errorf("load room types: %w", err)
	}
	plans, err := src.ListRatePlans(ctx, tenantID, ids...)
	if err != nil {
		return nil, fmt.Errorf("load rate plans: %w", err)
	}
	seasonal, err := src.ListSeasonalRates(ctx, tenantID, ids...)
	if err != nil {
		return nil, fmt.Errorf("load seasonal rates: %w", err)
	}
	return &Catalog{TenantID: tenantID, RoomTypes: types, RatePlans: plans, SeasonalRates: seasonal}, nil
}

func (c *Catalog) RoomType(id int64) (domain.RoomType, bool) {
	for _, rt := range c.RoomTypes {
		if rt.ID == id {
			return rt, true
		}
	}
	return domain.RoomType{}, false
}

// Quote prices one unit of roomTypeID for [checkIn, checkOut).
func (c *Catalog) Quote(roomTypeID int64, checkIn, checkOut time.Time) (Quote, error) {
	rt, ok := c.RoomType(roomTypeID)
	if !ok {
		return Quote{}, fmt.Errorf("room type %d: %w", roomTypeID, domain.ErrNotFound)
	}
	return QuoteStay(Input{
		RoomType:      rt,
		RatePlans:     c.RatePlans,
		SeasonalRates: c.SeasonalRates,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Nights:        domain.Nights(checkIn, checkOut),
	})
}
