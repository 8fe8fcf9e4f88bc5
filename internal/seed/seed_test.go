package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/modules/availability"
	"lodging/internal/testutil"
)

func TestDemo(t *testing.T) {
	db := testutil.OpenDB(t)
	today := testutil.Date("2026-03-01")

	res, err := Demo(context.Background(), db, 7, today)
	require.NoError(t, err)
	assert.Equal(t, &Result{RoomTypes: 3, Rooms: 10, RatePlans: 3, SeasonalRates: 3}, res)

	svc := availability.NewService(db, nil, nil)
	offers, err := svc.Search(context.Background(), 7, availability.SearchQuery{
		CheckIn:  testutil.Date("2026-03-10"),
		CheckOut: testutil.Date("2026-03-12"),
		Guests:   2,
	})
	require.NoError(t, err)
	require.Len(t, offers, 3)

	_, err = Demo(context.Background(), db, 7, today)
	assert.Error(t, err)
}
