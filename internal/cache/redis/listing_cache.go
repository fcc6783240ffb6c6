package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultListingTTL = 5 * time.Minute

// ListingCache implements domain.ListingCache by storing the whole public
// catalog as one JSON snapshot.
//
// Key schema:
//
//	mart:listings        - JSON array of domains
//	mart:listings:built  - unix time the snapshot was written
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache creates a ListingCache whose snapshots expire after ttl.
// A non-positive ttl selects the default of five minutes.
func NewListingCache(c *Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}
	return &ListingCache{rdb: c.Underlying(), ttl: ttl}
}

func listingsKey() string      { return key("listings") }
func listingsBuiltKey() string { return key("listings", "built") }

// GetAll returns the cached catalog snapshot. It returns domain.ErrNotFound
// when no snapshot is cached.
func (lc *ListingCache) GetAll(ctx context.Context) ([]domain.Domain, error) {
	data, err := lc.rdb.Get(ctx, listingsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get listings: %w", err)
	}

	var domains []domain.Domain
	if err := json.Unmarshal(data, &domains); err != nil {
		return nil, fmt.Errorf("redis: unmarshal listings: %w", err)
	}
	return domains, nil
}

// SetAll replaces the cached snapshot.
func (lc *ListingCache) SetAll(ctx context.Context, domains []domain.Domain) error {
	if domains == nil {
		domains = []domain.Domain{}
	}
	data, err := json.Marshal(domains)
	if err != nil {
		return fmt.Errorf("redis: marshal listings: %w", err)
	}

	pipe := lc.rdb.TxPipeline()
	pipe.Set(ctx, listingsKey(), data, lc.ttl)
	pipe.Set(ctx, listingsBuiltKey(), time.Now().Unix(), lc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set listings: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot so the next read rebuilds it from the store.
func (lc *ListingCache) Invalidate(ctx context.Context) error {
	if err := lc.rdb.Del(ctx, listingsKey(), listingsBuiltKey()).Err(); err != nil {
		return fmt.Errorf("redis: invalidate listings: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.ListingCache = (*ListingCache)(nil)
