// Package availability computes vacant inventory and priced offers for a stay.
package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging/internal/cache"
	"lodging/internal/domain"
	"lodging/internal/modules/pricing"
	"lodging/internal/repository"
)

type Service struct {
	db      *gorm.DB
	catalog *cache.CatalogCache
	log     *zap.Logger
}

// NewService builds the resolver. catalog may be nil, in which case every
// search loads rates from the store.
func NewService(db *gorm.DB, catalog *cache.CatalogCache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, catalog: catalog, log: log}
}

type SearchQuery struct {
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

type Offer struct {
	RoomType       domain.RoomType
	TotalRooms     int
	BookedRooms    int
	AvailableRooms int
	Nights         int
	NightlyPrice   decimal.Decimal
	TotalPrice     decimal.Decimal
}

// Search returns one offer per room type that fits the party and still has a vacant unit.
func (s *Service) Search(ctx context.Context, tenantID int64, q SearchQuery) ([]Offer, error) {
	if !q.CheckOut.After(q.CheckIn) {
		return nil, domain.ErrInvalidDateRange
	}
	if q.Guests < 1 {
		return nil, domain.NewValidationError("guests", "must be at least 1")
	}

	cat, err := s.loadCatalog(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(cat.RoomTypes))
	for _, rt := range cat.RoomTypes {
		if rt.MaxOccupancy >= q.Guests {
			ids = append(ids, rt.ID)
		}
	}
	if len(ids) == 0 {
		return []Offer{}, nil
	}

	units, err := CountUnits(ctx, s.db, tenantID, ids, q.CheckIn, q.CheckOut)
	if err != nil {
		return nil, err
	}

	offers := make([]Offer, 0, len(ids))
	for _, id := range ids {
		u := units[id]
		if u.Available() == 0 {
			continue
		}
		rt, _ := cat.RoomType(id)
		quote, err := cat.Quote(id, q.CheckIn, q.CheckOut)
		if err != nil {
			return nil, fmt.Errorf("price %s: %w", rt.Name, err)
		}
		offers = append(offers, Offer{
			RoomType:       rt,
			TotalRooms:     u.Total,
			BookedRooms:    u.Booked,
			AvailableRooms: u.Available(),
			Nights:         quote.Nights,
			NightlyPrice:   quote.NightlyPrice,
			TotalPrice:     quote.Total,
		})
	}
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].NightlyPrice.LessThan(offers[j].NightlyPrice)
	})

	s.log.Debug("availability search",
		zap.Int64("tenant_id", tenantID),
		zap.String("check_in", q.CheckIn.Format(domain.DateLayout)),
		zap.String("check_out", q.CheckOut.Format(domain.DateLayout)),
		zap.Int("offers", len(offers)))
	return offers, nil
}

func (s *Service) loadCatalog(ctx context.Context, tenantID int64) (*pricing.Catalog, error) {
	load := func(ctx context.Context) (*pricing.Catalog, error) {
		return pricing.LoadCatalog(ctx, repository.NewCatalogRepository(s.db), tenantID)
	}
	if s.catalog == nil {
		return load(ctx)
	}
	return s.catalog.Get(ctx, tenantID, load)
}

// IsRoomAvailable reports whether roomID is free of blocking reservations over
// [checkIn, checkOut), ignoring excludeReservationID.
func (s *Service) IsRoomAvailable(ctx context.Context, tenantID, roomID int64, checkIn, checkOut time.Time, excludeReservationID *int64) (bool, error) {
	return RoomAvailable(ctx, s.db, tenantID, roomID, checkIn, checkOut, excludeReservationID)
}
