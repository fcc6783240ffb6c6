// Package catalog narrows and orders domain listings for the storefront. It is
// a pure in-memory transform: every call works on its own copy of the input and
// shares no state with other calls.
package catalog

import (
	"strconv"
	"strings"
)

// DomainListing is the storefront view of one purchasable domain name.
type DomainListing struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	Extension  string `json:"extension"`
	Status     string `json:"status"`
	Price      string `json:"price"` // currency formatted, e.g. "$12,500"
	Length     int    `json:"length"`
	Popularity int    `json:"popularity"`
}

// PriceValue returns the numeric value of the listing's formatted price.
func (l DomainListing) PriceValue() (int64, bool) {
	return ParsePrice(l.Price)
}

// ParsePrice extracts the whole-unit amount from a currency formatted string by
// dropping the currency symbol and thousands separators and reading the leading
// integer. "$12,500" is 12500 and "$1,250.99" is 1250. The second return value
// is false when no digits are found.
func ParsePrice(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatPrice renders a whole-unit amount the way listings carry it: a dollar
// sign with comma thousands separators.
func FormatPrice(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
