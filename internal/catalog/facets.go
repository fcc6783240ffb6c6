package catalog

import "sort"

// Range is an inclusive min/max pair observed across a set of listings.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Facets summarises the values a storefront filter panel can offer.
type Facets struct {
	Categories []string  `json:"categories"`
	Extensions []string  `json:"extensions"`
	Statuses   []string  `json:"statuses"`
	Price      Range     `json:"price"`
	Length     Range     `json:"length"`
	SortKeys   []SortKey `json:"sort_keys"`
}

// Summarize collects the distinct categories, extensions and statuses in
// records together with their price and length ranges.
func Summarize(records []DomainListing) Facets {
	f := Facets{
		Categories: []string{},
		Extensions: []string{},
		Statuses:   []string{},
		SortKeys:   SortKeys,
	}
	cats := map[string]bool{}
	exts := map[string]bool{}
	stats := map[string]bool{}
	firstPrice, firstLen := true, true

	for _, r := range records {
		addUnique(cats, &f.Categories, r.Category)
		addUnique(exts, &f.Extensions, r.Extension)
		addUnique(stats, &f.Statuses, r.Status)

		if p, ok := r.PriceValue(); ok {
			if firstPrice || p < f.Price.Min {
				f.Price.Min = p
			}
			if firstPrice || p > f.Price.Max {
				f.Price.Max = p
			}
			firstPrice = false
		}
		l := int64(r.Length)
		if firstLen || l < f.Length.Min {
			f.Length.Min = l
		}
		if firstLen || l > f.Length.Max {
			f.Length.Max = l
		}
		firstLen = false
	}

	sort.Strings(f.Categories)
	sort.Strings(f.Extensions)
	sort.Strings(f.Statuses)
	return f
}

func addUnique(seen map[string]bool, dst *[]string, v string) {
	if v == "" || seen[v] {
		return
	}
	seen[v] = true
	*dst = append(*dst, v)
}
