package domain

import (
	"strings"
	"time"
)

type Guest struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	TenantID  int64     `json:"tenant_id" gorm:"not null;index"`
	FirstName string    `json:"first_name" gorm:"size:100;not null"`
	LastName  string    `json:"last_name" gorm:"size:100;not null"`
	Email     *string   `json:"email,omitempty" gorm:"size:255;index"`
	Phone     *string   `json:"phone,omitempty" gorm:"size:32;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Guest) TableName() string { return "guests" }

// NormalizeEmail lower-cases and trims; empty input yields nil.
func NormalizeEmail(s string) *string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(s string) *string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out == "+" {
		return nil
	}
	return &out
}
