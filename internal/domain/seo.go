package domain

import "time"

// SEOMeta is the per-page metadata served to the storefront.
type SEOMeta struct {
	Page        string    `json:"page"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    string    `json:"keywords"`
	OGImage     string    `json:"og_image,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Setting is one site-wide key/value. Secret values are stored encrypted and
// never returned in clear text over the admin API.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	Secret    bool      `json:"secret"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Well-known setting keys.
const (
	SettingSiteName        = "site_name"
	SettingSiteDescription = "site_description"
	SettingContactEmail    = "contact_email"
)

// Stats is the admin dashboard summary.
type Stats struct {
	DomainsByStatus map[DomainStatus]int64 `json:"domains_by_status"`
	OrdersByStatus  map[OrderStatus]int64  `json:"orders_by_status"`
	RevenueCents    int64                  `json:"revenue_cents"`
	OpenEnquiries   int64                  `json:"open_enquiries"`
	Users           int64                  `json:"users"`
}

// ImportResult reports the outcome of a CSV catalog import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}
