package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoomStatus string

const (
	RoomAvailable    RoomStatus = "available"
	RoomOccupied     RoomStatus = "occupied"
	RoomReserved     RoomStatus = "reserved"
	RoomDirty        RoomStatus = "dirty"
	RoomOutOfService RoomStatus = "out_of_service"
)

type RoomType struct {
	ID           int64           `json:"id" gorm:"primaryKey"`
	TenantID     int64           `json:"tenant_id" gorm:"not null;index"`
	Name         string          `json:"name" gorm:"size:120;not null"`
	MaxOccupancy int             `json:"max_occupancy" gorm:"not null"`
	BasePrice    decimal.Decimal `json:"base_price" gorm:"type:decimal(12,2);not null"`
	Active       bool            `json:"active" gorm:"not null"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (RoomType) TableName() string { return "room_types" }

type Room struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	TenantID   int64      `json:"tenant_id" gorm:"not null;uniqueIndex:idx_rooms_tenant_number"`
	RoomTypeID int64      `json:"room_type_id" gorm:"not null;index"`
	Number     string     `json:"number" gorm:"size:32;not null;uniqueIndex:idx_rooms_tenant_number"`
	Floor      int        `json:"floor"`
	Status     RoomStatus `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	Active     bool       `json:"active" gorm:"not null"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }

// Sellable reports whether the room counts toward inventory.
func (r Room) Sellable() bool {
	return r.Active && r.Status != RoomOutOfService
}
