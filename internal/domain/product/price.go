package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice extracts a numeric value from a display price such as
// "129,99 zł" or "1.234,56 zł". It reports false for the CheckPrice sentinel,
// empty input and anything that does not form a well-grouped number.
//
// Everything except digits, commas and periods is dropped first. The last
// separator is treated as the decimal point only when one or two digits follow
// it, or when nothing follows it; every other separator must split the integer
// part into groups of three.
func ParsePrice(s string) (decimal.Decimal, bool) {
	if s == "" || s == CheckPrice {
		return decimal.Decimal{}, false
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Decimal{}, false
	}

	intPart, fracPart := clean, ""
	if i := strings.LastIndexAny(clean, ",."); i >= 0 {
		switch tail := clean[i+1:]; len(tail) {
		case 0:
			// "12." has an empty fraction.
			if i == 0 {
				return decimal.Decimal{}, false
			}
			intPart = clean[:i]
		case 1, 2:
			intPart, fracPart = clean[:i], tail
		}
	}

	digits, ok := joinGroups(intPart)
	if !ok {
		return decimal.Decimal{}, false
	}
	if fracPart != "" {
		digits += "." + fracPart
	}

	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// joinGroups strips thousands separators from s. A bare fraction such as ",5"
// is accepted as "0".
func joinGroups(s string) (string, bool) {
	if s == "" {
		return "0", true
	}
	groups := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '.' })
	if len(groups) == 0 || strings.Count(s, ",")+strings.Count(s, ".") != len(groups)-1 {
		return "", false
	}
	if len(groups) == 1 {
		return groups[0], true
	}
	if n := len(groups[0]); n < 1 || n > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}
