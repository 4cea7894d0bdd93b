package product

import (
	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product is not part of the
// session's current results or favorites.
var ErrNotFound = errors.New("product not found")

const (
	// CheckPrice is the sentinel display text used when no real price is known.
	CheckPrice = "Sprawdź"
	// NoTitle replaces a missing or empty upstream title.
	NoTitle = "Brak tytułu"
	// NoImage replaces a missing or empty upstream image URL.
	NoImage = "https://placehold.co/400x400?text=Brak"
)

// Product is a single search result with its regional price entries.
//
// Prices always holds the primary region entry at index 0 followed by one entry
// per secondary region. A Product is never mutated after construction.
type Product struct {
	ID       string
	Title    string
	ImageURL string
	Prices   []PriceEntry
}

// PriceEntry is the price shown for one storefront region.
type PriceEntry struct {
	RegionFlag   string
	DisplayText  string
	PurchaseLink string
	IsBest       bool
}

// Primary returns the primary region entry.
func (p Product) Primary() PriceEntry {
	if len(p.Prices) == 0 {
		return PriceEntry{DisplayText: CheckPrice}
	}
	return p.Prices[0]
}

// Build assembles a Product from upstream fields, applying placeholders and
// generating one price entry per region. An empty rawPrice yields the
// CheckPrice sentinel for the primary entry.
func Build(id, title, imageURL, rawPrice, affiliateTag string) Product {
	if title == "" {
		title = NoTitle
	}
	if imageURL == "" {
		imageURL = NoImage
	}
	primaryText := rawPrice
	if primaryText == "" {
		primaryText = CheckPrice
	}

	prices := make([]PriceEntry, 0, 1+len(Secondary))
	prices = append(prices, PriceEntry{
		RegionFlag:   Primary.Flag,
		DisplayText:  primaryText,
		PurchaseLink: Primary.Link(id, affiliateTag),
		IsBest:       true,
	})
	for _, r := range Secondary {
		prices = append(prices, PriceEntry{
			RegionFlag:   r.Flag,
			DisplayText:  CheckPrice,
			PurchaseLink: r.Link(id, affiliateTag),
		})
	}

	return Product{
		ID:       id,
		Title:    title,
		ImageURL: imageURL,
		Prices:   prices,
	}
}

// FindByID returns the first product with the given id.
func FindByID(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
