// Package cache holds the in-process rate catalog cache used by availability search.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"lodging/internal/modules/pricing"
)

// CatalogCache keeps JSON-encoded tenant catalogs in ristretto, costed by size.
// Only the search path reads through it; bookings always price from the store.
type CatalogCache struct {
	c   *ristretto.Cache[string, []byte]
	ttl time.Duration
}

func NewCatalogCache(maxCostBytes int64, ttl time.Duration) (*CatalogCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxCostBytes / 100 * 10,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CatalogCache{c: c, ttl: ttl}, nil
}

func catalogKey(tenantID int64) string {
	return fmt.Sprintf("catalog:%d", tenantID)
}

// Get returns the cached catalog or calls load and caches its result.
func (cc *CatalogCache) Get(ctx context.Context, tenantID int64, load func(context.Context) (*pricing.Catalog, error)) (*pricing.Catalog, error) {
	if raw, ok := cc.c.Get(catalogKey(tenantID)); ok {
		var cat pricing.Catalog
		if err := json.Unmarshal(raw, &cat); err == nil {
			return &cat, nil
		}
		cc.c.Del(catalogKey(tenantID))
	}

	cat, err := load(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(cat)
	if err != nil {
		return cat, nil
	}
	cc.c.SetWithTTL(catalogKey(tenantID), raw, int64(len(raw)), cc.ttl)
	cc.c.Wait()
	return cat, nil
}

func (cc *CatalogCache) Close() {
	cc.c.Close()
}
