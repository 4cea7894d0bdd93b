// Package session holds per-visitor storefront state: bookmarked favorites and
// how many results of the current search are revealed.
package session

import (
	"slices"

	"github.com/xenking/zlap-okazje/internal/domain/product"
	"github.com/xenking/zlap-okazje/internal/domain/search"
)

// PageSize is the initial display count and the "load more" increment.
const PageSize = 12

// State is the storefront state of one session. It is not safe for
// concurrent use; Store serializes access.
type State struct {
	Favorites    []product.Product
	DisplayCount int
	// LastQuery is the search the display count refers to.
	LastQuery search.Query

	// untoggled remembers where the last toggled-off favorite was, so toggling
	// it back on restores its position.
	untoggled struct {
		id    string
		index int
	}
}

// NewState returns the state of a fresh session.
func NewState() *State {
	return &State{DisplayCount: PageSize}
}

// IsFavorite reports whether a product with id is bookmarked.
func (s *State) IsFavorite(id string) bool {
	return s.favoriteIndex(id) >= 0
}

// FavoriteByID returns the bookmarked product with id.
func (s *State) FavoriteByID(id string) (product.Product, bool) {
	if i := s.favoriteIndex(id); i >= 0 {
		return s.Favorites[i], true
	}
	return product.Product{}, false
}

// ToggleFavorite adds p when it is not bookmarked and removes it otherwise.
// Membership is keyed by product id. A product toggled off and straight back
// on returns to its previous position; other additions are appended. It
// reports whether p is now a favorite.
func (s *State) ToggleFavorite(p product.Product) bool {
	if i := s.favoriteIndex(p.ID); i >= 0 {
		s.Favorites = slices.Delete(s.Favorites, i, i+1)
		s.untoggled.id, s.untoggled.index = p.ID, i
		return false
	}

	at := len(s.Favorites)
	if s.untoggled.id == p.ID && s.untoggled.index < at {
		at = s.untoggled.index
	}
	s.Favorites = slices.Insert(s.Favorites, at, p)
	s.untoggled.id = ""
	return true
}

// RemoveFavorite drops the bookmark with id, keeping the order of the rest.
func (s *State) RemoveFavorite(id string) bool {
	i := s.favoriteIndex(id)
	if i < 0 {
		return false
	}
	s.Favorites = slices.Delete(s.Favorites, i, i+1)
	s.untoggled.id = ""
	return true
}

func (s *State) favoriteIndex(id string) int {
	return slices.IndexFunc(s.Favorites, func(p product.Product) bool {
		return p.ID == id
	})
}

// Observe records q as the current search. A new text or sort resets the
// display count.
func (s *State) Observe(q search.Query) {
	if q != s.LastQuery {
		s.LastQuery = q
		s.ResetDisplay()
	}
}

// ResetDisplay shows the first page again.
func (s *State) ResetDisplay() {
	s.DisplayCount = PageSize
}

// CanLoadMore reports whether results beyond the display count exist.
func (s *State) CanLoadMore(total int) bool {
	return s.DisplayCount < total
}

// LoadMore reveals another page. It is a no-op when everything is shown.
func (s *State) LoadMore(total int) bool {
	if !s.CanLoadMore(total) {
		return false
	}
	s.DisplayCount += PageSize
	return true
}

// Visible returns the revealed prefix of products.
func (s *State) Visible(products []product.Product) []product.Product {
	return products[:min(s.DisplayCount, len(products))]
}

// Clone returns a deep copy safe to read outside the store lock.
func (s *State) Clone() *State {
	c := *s
	c.Favorites = slices.Clone(s.Favorites)
	return &c
}
