package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the order Apply returns listings in.
type SortKey string

const (
	SortPriceLow   SortKey = "price-low"
	SortPriceHigh  SortKey = "price-high"
	SortPopularity SortKey = "popularity"
	SortName       SortKey = "name"
	SortNewest     SortKey = "newest"
)

// SortKeys lists the recognised keys in display order.
var SortKeys = []SortKey{SortNewest, SortPriceLow, SortPriceHigh, SortPopularity, SortName}

func normalizeSortKey(k SortKey) SortKey {
	switch k {
	case SortPriceLow, SortPriceHigh, SortPopularity, SortName:
		return k
	default:
		return SortNewest
	}
}

// Sort returns a copy of records ordered by key. Unknown keys, and
// SortNewest, keep the input order. Equal keys keep their input order.
func Sort(records []DomainListing, key SortKey) []DomainListing {
	es := make([]entry[DomainListing], len(records))
	for i, r := range records {
		es[i] = entry[DomainListing]{item: r, view: r}
	}
	sortEntries(es, key)
	return items(es)
}

// entry pairs a caller's record with its listing view so the view is
// derived once per record rather than once per comparison.
type entry[T any] struct {
	item T
	view DomainListing
}

func items[T any](es []entry[T]) []T {
	out := make([]T, len(es))
	for i, e := range es {
		out[i] = e.item
	}
	return out
}

func sortEntries[T any](es []entry[T], key SortKey) {
	switch normalizeSortKey(key) {
	case SortPriceLow:
		sort.SliceStable(es, func(i, j int) bool {
			return priceOrZero(es[i].view) < priceOrZero(es[j].view)
		})
	case SortPriceHigh:
		sort.SliceStable(es, func(i, j int) bool {
			return priceOrZero(es[i].view) > priceOrZero(es[j].view)
		})
	case SortPopularity:
		sort.SliceStable(es, func(i, j int) bool {
			return es[i].view.Popularity > es[j].view.Popularity
		})
	case SortName:
		// Collators keep scratch buffers, so each call gets its own.
		col := collate.New(language.English)
		sort.SliceStable(es, func(i, j int) bool {
			return col.CompareString(es[i].view.Name, es[j].view.Name) < 0
		})
	}
}

func priceOrZero(l DomainListing) int64 {
	v, _ := l.PriceValue()
	return v
}
