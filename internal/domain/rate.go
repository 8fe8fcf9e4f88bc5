package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RatePlan overrides the base price for stays fully inside its window
// that meet the minimum length.
type RatePlan struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	TenantID   int64           `json:"tenant_id" gorm:"not null;index"`
	RoomTypeID int64           `json:"room_type_id" gorm:"not null;index"`
	Name       string          `json:"name" gorm:"size:120"`
	Price      decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	StartDate  time.Time       `json:"start_date" gorm:"not null"`
	EndDate    time.Time       `json:"end_date" gorm:"not null"`
	MinNights  int             `json:"min_nights" gorm:"not null;default:1"`
	Active     bool            `json:"active" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (RatePlan) TableName() string { return "rate_plans" }

// SeasonalRate multiplies the resolved price for stays touching its window.
type SeasonalRate struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	TenantID   int64           `json:"tenant_id" gorm:"not null;index"`
	RoomTypeID int64           `json:"room_type_id" gorm:"not null;index"`
	Name       string          `json:"name" gorm:"size:120"`
	Multiplier decimal.Decimal `json:"multiplier" gorm:"type:decimal(6,3);not null"`
	StartDate  time.Time       `json:"start_date" gorm:"not null"`
	EndDate    time.Time       `json:"end_date" gorm:"not null"`
	Active     bool            `json:"active" gorm:"not null"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (SeasonalRate) TableName() string { return "seasonal_rates" }
