// Package pricing resolves the nightly rate of a room type for a stay.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"lodging/internal/domain"
)

// Input carries everything Resolve needs. RatePlans and SeasonalRates may hold
// rules for other room types; those are ignored.
type Input struct {
	RoomType      domain.RoomType
	RatePlans     []domain.RatePlan
	SeasonalRates []domain.SeasonalRate
	CheckIn       time.Time
	CheckOut      time.Time
	Nights        int
}

// Resolve returns the nightly rate: base price, replaced by the cheapest active
// rate plan covering the whole stay, multiplied by the highest overlapping
// seasonal multiplier, rounded half-up to cents.
func Resolve(in Input) (decimal.Decimal, error) {
	if in.Nights <= 0 {
		return decimal.Zero, domain.ErrInvalidDateRange
	}

	price := in.RoomType.BasePrice
	if plan := bestRatePlan(in); plan != nil {
		price = plan.Price
	}
	if m, ok := highestMultiplier(in); ok {
		price = price.Mul(m)
	}
	return price.Round(2), nil
}

func bestRatePlan(in Input) *domain.RatePlan {
	var best *domain.RatePlan
	for i := range in.RatePlans {
		p := &in.RatePlans[i]
		if !p.Active || p.RoomTypeID != in.RoomType.ID {
			continue
		}
		if p.StartDate.After(in.CheckIn) || p.EndDate.Before(in.CheckOut) {
			continue
		}
		if p.MinNights > in.Nights {
			continue
		}
		if best == nil || p.Price.LessThan(best.Price) || (p.Price.Equal(best.Price) && p.ID < best.ID) {
			best = p
		}
	}
	return best
}

func highestMultiplier(in Input) (decimal.Decimal, bool) {
	var (
		best  decimal.Decimal
		found bool
	)
	for _, s := range in.SeasonalRates {
		if !s.Active || s.RoomTypeID != in.RoomType.ID {
			continue
		}
		if !(s.StartDate.Before(in.CheckOut) && s.EndDate.After(in.CheckIn)) {
			continue
		}
		if !found || s.Multiplier.GreaterThan(best) {
			best, found = s.Multiplier, true
		}
	}
	return best, found
}

// Quote is a priced stay for one unit of a room type.
type Quote struct {
	NightlyPrice decimal.Decimal
	Nights       int
	Total        decimal.Decimal
}

func QuoteStay(in Input) (Quote, error) {
	nightly, err := Resolve(in)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		NightlyPrice: nightly,
		Nights:       in.Nights,
		Total:        nightly.Mul(decimal.NewFromInt(int64(in.Nights))).Round(2),
	}, nil
}
