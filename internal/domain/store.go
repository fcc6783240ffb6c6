package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Status string
	Search string
	Since  *time.Time
	Until  *time.Time
}

// DomainStore persists listed domains.
type DomainStore interface {
	Create(ctx context.Context, d Domain) error
	Update(ctx context.Context, d Domain) error
	UpsertByName(ctx context.Context, d Domain) (created bool, err error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Domain, error)
	GetBySlug(ctx context.Context, slug string) (Domain, error)
	SetStatus(ctx context.Context, id string, status DomainStatus) error
	// ListPublic returns every domain the storefront shows, newest first.
	ListPublic(ctx context.Context) ([]Domain, error)
	List(ctx context.Context, opts ListOpts) ([]Domain, error)
	Count(ctx context.Context, opts ListOpts) (int64, error)
	CountByStatus(ctx context.Context) (map[DomainStatus]int64, error)
	SetTags(ctx context.Context, domainID string, tagIDs []string) error
}

// CategoryStore persists storefront categories.
type CategoryStore interface {
	Create(ctx context.Context, c Category) error
	Update(ctx context.Context, c Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Category, error)
	GetByName(ctx context.Context, name string) (Category, error)
	List(ctx context.Context) ([]Category, error)
}

// TagStore persists domain tags.
type TagStore interface {
	Create(ctx context.Context, t Tag) error
	Update(ctx context.Context, t Tag) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Tag, error)
	List(ctx context.Context) ([]Tag, error)
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, opts ListOpts) ([]User, error)
	Count(ctx context.Context) (int64, error)
}

// OrderStore persists orders. Create and UpdateStatus also move the ordered
// domain to the matching status in the same transaction.
type OrderStore interface {
	Create(ctx context.Context, o Order) error
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string, opts ListOpts) ([]Order, error)
	List(ctx context.Context, opts ListOpts) ([]Order, error)
	CountByStatus(ctx context.Context) (map[OrderStatus]int64, error)
	Revenue(ctx context.Context) (int64, error)
}

// EnquiryStore persists storefront enquiries.
type EnquiryStore interface {
	Create(ctx context.Context, e Enquiry) error
	UpdateStatus(ctx context.Context, id string, status EnquiryStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Enquiry, error)
	List(ctx context.Context, opts ListOpts) ([]Enquiry, error)
	CountOpen(ctx context.Context) (int64, error)
}

// WatchlistStore is the persistence adapter behind a user's watchlist.
type WatchlistStore interface {
	List(ctx context.Context, userID string) ([]WatchlistItem, error)
	Add(ctx context.Context, userID, domainID string) error
	Remove(ctx context.Context, userID, domainID string) error
}

// SEOStore persists per-page metadata.
type SEOStore interface {
	Get(ctx context.Context, page string) (SEOMeta, error)
	Upsert(ctx context.Context, m SEOMeta) error
	Delete(ctx context.Context, page string) error
	List(ctx context.Context) ([]SEOMeta, error)
}

// SettingStore persists site settings. Values are stored as given; callers
// encrypt secret values first.
type SettingStore interface {
	Get(ctx context.Context, key string) (Setting, error)
	Upsert(ctx context.Context, s Setting) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Setting, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Event     string         `json:"event"`
	Actor     string         `json:"actor,omitempty"`
	Detail    map[string]any `json:"detail"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event, actor string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
