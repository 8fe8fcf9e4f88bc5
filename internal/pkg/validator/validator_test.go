package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stayGuest struct {
	FirstName string `json:"first_name" validate:"required"`
}

type stayRequest struct {
	CheckIn  string    `json:"check_in" validate:"required,date"`
	CheckOut string    `json:"check_out,omitempty" validate:"omitempty,date"`
	Guest    stayGuest `json:"guest"`
	Notes    string    `validate:"max=5"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   stayRequest
		want map[string]string
	}{
		{
			name: "valid",
			in:   stayRequest{CheckIn: "2030-01-10", CheckOut: "2030-01-12", Guest: stayGuest{FirstName: "Ada"}},
		},
		{
			name: "date tag rejects other layouts",
			in:   stayRequest{CheckIn: "10/01/2030", Guest: stayGuest{FirstName: "Ada"}},
			want: map[string]string{"check_in": "date"},
		},
		{
			name: "date tag rejects impossible days",
			in:   stayRequest{CheckIn: "2030-02-30", Guest: stayGuest{FirstName: "Ada"}},
			want: map[string]string{"check_in": "date"},
		},
		{
			name: "json name with options and nested keys",
			in:   stayRequest{CheckIn: "2030-01-10", CheckOut: "tomorrow"},
			want: map[string]string{"check_out": "date", "guest.first_name": "required"},
		},
		{
			name: "field without json tag keeps go name",
			in:   stayRequest{CheckIn: "2030-01-10", Guest: stayGuest{FirstName: "Ada"}, Notes: "far too long"},
			want: map[string]string{"Notes": "max"},
		},
		{
			name: "required before date",
			in:   stayRequest{Guest: stayGuest{FirstName: "Ada"}},
			want: map[string]string{"check_in": "required"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.in))
		})
	}
}

func TestValidate_NonStruct(t *testing.T) {
	got := Validate("not a struct")
	assert.Contains(t, got, "_")
}
