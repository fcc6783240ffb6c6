package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alanyoungcy/domainmart/internal/catalog"
)

// DomainStatus is the sale lifecycle state of a listed domain.
type DomainStatus string

const (
	DomainStatusAvailable DomainStatus = "available"
	DomainStatusReserved  DomainStatus = "reserved" // pending order holds it
	DomainStatusSold      DomainStatus = "sold"
	DomainStatusAuction   DomainStatus = "auction"
)

// Valid reports whether s is a known status.
func (s DomainStatus) Valid() bool {
	switch s {
	case DomainStatusAvailable, DomainStatusReserved, DomainStatusSold, DomainStatusAuction:
		return true
	}
	return false
}

// Domain is a domain name listed for sale.
type Domain struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Extension   string       `json:"extension"`
	CategoryID  string       `json:"category_id,omitempty"`
	Category    string       `json:"category,omitempty"`
	Tags        []string     `json:"tags"`
	Status      DomainStatus `json:"status"`
	PriceCents  int64        `json:"price_cents"`
	Length      int          `json:"length"`
	Popularity  int          `json:"popularity"`
	Description string       `json:"description,omitempty"`
	Featured    bool         `json:"featured"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Listing converts d to the storefront representation used by the catalog
// filter.
func (d Domain) Listing() catalog.DomainListing {
	return catalog.DomainListing{
		Name:       d.Name,
		Category:   d.Category,
		Extension:  d.Extension,
		Status:     string(d.Status),
		Price:      catalog.FormatPrice(d.PriceCents / 100),
		Length:     d.Length,
		Popularity: d.Popularity,
	}
}

// SplitDomainName returns the registrable label and the extension (with its
// leading dot) of a domain name. "shop.co.uk" is ("shop", ".co.uk").
func SplitDomainName(name string) (label, ext string) {
	name = strings.ToLower(strings.TrimSpace(name))
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Normalize fills the derived fields of d from its name: lowercase name,
// slug, extension and label length.
func (d *Domain) Normalize() {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	label, ext := SplitDomainName(d.Name)
	d.Extension = ext
	d.Length = utf8.RuneCountInString(label)
	if d.Slug == "" {
		d.Slug = Slugify(strings.ReplaceAll(d.Name, ".", "-"))
	}
	if d.Status == "" {
		d.Status = DomainStatusAvailable
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
}

// Validate checks the fields an admin must supply.
func (d Domain) Validate() error {
	v := &ValidationError{}
	label, ext := SplitDomainName(d.Name)
	if label == "" || ext == "" || len(ext) < 3 {
		v.Add("name", "must be a domain name such as example.com")
	}
	if d.PriceCents < 0 {
		v.Add("price_cents", "must not be negative")
	}
	if d.Status != "" && !d.Status.Valid() {
		v.Add("status", "unknown status "+string(d.Status))
	}
	return v.Err()
}

// Category groups domains on the storefront.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	DomainCount int       `json:"domain_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tag is a free-form label attached to domains.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Slugify converts a name to a URL-safe slug: lowercase letters, digits and
// hyphens are kept, spaces become hyphens and everything else is dropped.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + 32)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}
