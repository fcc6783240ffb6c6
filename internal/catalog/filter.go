package catalog

import (
	"math"
	"net/url"
	"strings"
)

// Bound is an optional inclusive numeric limit. The zero value is absent.
type Bound struct {
	Value int64
	Set   bool
}

// At returns a bound fixed at v.
func At(v int64) Bound {
	return Bound{Value: v, Set: true}
}

// ParseBound reads a bound from user input. Blank, non-numeric and unparsable
// strings produce an absent bound, so a malformed limit never rejects the
// whole filter; it only stops restricting its own side of the range.
func ParseBound(s string) Bound {
	v, ok := ParsePrice(s)
	if !ok {
		return Bound{}
	}
	return At(v)
}

func (b Bound) minOr(def int64) int64 {
	if !b.Set {
		return def
	}
	return b.Value
}

// Filter selects and orders listings. Empty sets and absent bounds place no
// restriction on their dimension.
type Filter struct {
	Categories []string `json:"categories,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`

	PriceMin  Bound `json:"-"`
	PriceMax  Bound `json:"-"`
	LengthMin Bound `json:"-"`
	LengthMax Bound `json:"-"`

	SortBy SortKey `json:"sort_by,omitempty"`
}

// IsZero reports whether f restricts nothing and keeps input order.
func (f Filter) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Extensions) == 0 && len(f.Statuses) == 0 &&
		!f.PriceMin.Set && !f.PriceMax.Set && !f.LengthMin.Set && !f.LengthMax.Set &&
		normalizeSortKey(f.SortBy) == SortNewest
}

func (f Filter) pricesActive() bool {
	return f.PriceMin.Set || f.PriceMax.Set
}

func (f Filter) lengthsActive() bool {
	return f.LengthMin.Set || f.LengthMax.Set
}

// Match reports whether l satisfies every active criterion of f.
func Match(l DomainListing, f Filter) bool {
	if !inSet(f.Categories, l.Category) {
		return false
	}
	if !inSet(f.Extensions, l.Extension) {
		return false
	}
	if !inSet(f.Statuses, l.Status) {
		return false
	}

	if f.pricesActive() {
		price, ok := l.PriceValue()
		if !ok {
			return false
		}
		if price < f.PriceMin.minOr(0) || price > f.PriceMax.minOr(math.MaxInt64) {
			return false
		}
	}

	if f.lengthsActive() {
		length := int64(l.Length)
		if length < f.LengthMin.minOr(0) || length > f.LengthMax.minOr(math.MaxInt64) {
			return false
		}
	}
	return true
}

// Apply filters records by f and orders the survivors by f.SortBy. The input
// slice is never modified; the result is always a fresh slice.
func Apply(records []DomainListing, f Filter) []DomainListing {
	return ApplyBy(records, func(l DomainListing) DomainListing { return l }, f)
}

// ApplyBy filters and sorts any record type that has a listing view, with
// the same semantics as Apply. view is called once per record.
func ApplyBy[T any](records []T, view func(T) DomainListing, f Filter) []T {
	es := make([]entry[T], 0, len(records))
	for _, r := range records {
		l := view(r)
		if Match(l, f) {
			es = append(es, entry[T]{item: r, view: l})
		}
	}
	sortEntries(es, f.SortBy)
	return items(es)
}

// FilterFromQuery builds a Filter from storefront query parameters. Set
// parameters may repeat or hold comma separated values.
//
//	?category=tech&extension=.com,.io&price_min=100&sort=price-low
func FilterFromQuery(q url.Values) Filter {
	return Filter{
		Categories: queryList(q, "category"),
		Extensions: queryList(q, "extension"),
		Statuses:   queryList(q, "status"),
		PriceMin:   ParseBound(q.Get("price_min")),
		PriceMax:   ParseBound(q.Get("price_max")),
		LengthMin:  ParseBound(q.Get("length_min")),
		LengthMax:  ParseBound(q.Get("length_max")),
		SortBy:     SortKey(strings.TrimSpace(q.Get("sort"))),
	}
}

func queryList(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func inSet(set []string, v string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
