package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for stay dates.
const DateLayout = "2006-01-02"

// DateOf truncates t to a UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
	}
	return t.UTC(), nil
}

// Nights counts calendar nights between two dates.
func Nights(checkIn, checkOut time.Time) int {
	return int(DateOf(checkOut).Sub(DateOf(checkIn)).Hours() / 24)
}
