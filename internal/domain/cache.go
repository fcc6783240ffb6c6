package domain

import (
	"context"
	"time"
)

// ListingCache holds the storefront catalog snapshot so browsing does not hit
// the database on every filter change.
type ListingCache interface {
	GetAll(ctx context.Context) ([]Domain, error)
	SetAll(ctx context.Context, domains []Domain) error
	Invalidate(ctx context.Context) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// EventBus carries marketplace events between processes.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Event channels published on the EventBus.
const (
	ChannelDomains   = "mart:domains"
	ChannelOrders    = "mart:orders"
	ChannelEnquiries = "mart:enquiries"
)

// Event is the envelope published on the EventBus.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
