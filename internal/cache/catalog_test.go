package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging/internal/domain"
	"lodging/internal/modules/pricing"
)

func TestCatalogCache_LoadsOnceUntilExpired(t *testing.T) {
	cc, err := NewCatalogCache(1<<20, 200*time.Millisecond)
	require.NoError(t, err)
	defer cc.Close()

	loads := 0
	load := func(context.Context) (*pricing.Catalog, error) {
		loads++
		return &pricing.Catalog{
			TenantID:  7,
			RoomTypes: []domain.RoomType{{ID: 1, TenantID: 7, Name: "Standard", BasePrice: decimal.RequireFromString("100.00"), Active: true}},
		}, nil
	}

	ctx := context.Background()
	first, err := cc.Get(ctx, 7, load)
	require.NoError(t, err)
	second, err := cc.Get(ctx, 7, load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, "Standard", second.RoomTypes[0].Name)
	assert.True(t, first.RoomTypes[0].BasePrice.Equal(second.RoomTypes[0].BasePrice))

	time.Sleep(300 * time.Millisecond)
	_, err = cc.Get(ctx, 7, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCatalogCache_LoadErrorIsNotCached(t *testing.T) {
	cc, err := NewCatalogCache(1<<20, time.Minute)
	require.NoError(t, err)
	defer cc.Close()

	boom := errors.New("boom")
	_, err = cc.Get(context.Background(), 1, func(context.Context) (*pricing.Catalog, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	cat, err := cc.Get(context.Background(), 1, func(context.Context) (*pricing.Catalog, error) {
		return &pricing.Catalog{TenantID: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cat.TenantID)
}
