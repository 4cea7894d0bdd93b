package search

import (
	"strings"
)

// Sort is the user's ordering preference. Ordering itself is done upstream.
type Sort int

const (
	// SortRelevance keeps the upstream relevance ranking.
	SortRelevance Sort = iota
	// SortPriceAsc orders by lowest price first.
	SortPriceAsc
	// SortPriceDesc orders by highest price first.
	SortPriceDesc
)

var sortNames = map[string]Sort{
	"relevance":  SortRelevance,
	"price_asc":  SortPriceAsc,
	"price_desc": SortPriceDesc,
	// Storefront labels.
	"trafność":            SortRelevance,
	"cena: od najniższej": SortPriceAsc,
	"cena: od najwyższej": SortPriceDesc,
}

// ParseSort maps a wire or label value to a Sort. Unrecognized values fall
// back to SortRelevance.
func ParseSort(s string) Sort {
	if v, ok := sortNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return SortRelevance
}

// String returns the wire name.
func (s Sort) String() string {
	switch s {
	case SortPriceAsc:
		return "price_asc"
	case SortPriceDesc:
		return "price_desc"
	default:
		return "relevance"
	}
}

// UpstreamCode returns the sort_by value understood by the search API.
func (s Sort) UpstreamCode() string {
	switch s {
	case SortPriceAsc:
		return "LOWEST_PRICE"
	case SortPriceDesc:
		return "HIGHEST_PRICE"
	default:
		return "RELEVANCE"
	}
}

// Query identifies one search. It is comparable and used as a cache key.
type Query struct {
	Text string
	Sort Sort
}

// NewQuery trims text and parses the sort value.
func NewQuery(text, sort string) Query {
	return Query{Text: strings.TrimSpace(text), Sort: ParseSort(sort)}
}

// IsEmpty reports whether the query has no text to search for.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}
