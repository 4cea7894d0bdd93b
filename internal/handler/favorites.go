package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/zlap-okazje/internal/domain/product"
	"github.com/xenking/zlap-okazje/internal/domain/session"
)

// Favorites handles GET /api/favorites.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	st, err := h.snapshot(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeFavorites(e, st.Favorites, nil)
	})
}

// ToggleFavorite handles POST /api/favorites/{id}. The product must be among
// the session's current results or favorites.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	results, err := h.currentResults(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}

	var (
		favorite  bool
		favorites []product.Product
	)
	if err := h.update(r, func(st *session.State) error {
		p, ok := product.FindByID(results, id)
		if !ok {
			p, ok = st.FavoriteByID(id)
		}
		if !ok {
			return errors.Wrapf(product.ErrNotFound, "toggle %q", id)
		}
		favorite = st.ToggleFavorite(p)
		favorites = st.Clone().Favorites
		return nil
	}); err != nil {
		fail(w, r, err, "product "+id+" is not in the current results")
		return
	}
	writeFavoriteChange(w, favorite, favorites)
}

// RemoveFavorite handles DELETE /api/favorites/{id}. Removing a product that
// is not a favorite is not an error.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var favorites []product.Product
	if err := h.update(r, func(st *session.State) error {
		st.RemoveFavorite(id)
		favorites = st.Clone().Favorites
		return nil
	}); err != nil {
		fail(w, r, err, "")
		return
	}
	writeFavoriteChange(w, false, favorites)
}

func writeFavoriteChange(w http.ResponseWriter, favorite bool, favorites []product.Product) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeFavorites(e, favorites, func(e *jx.Encoder) {
			e.Field("favorite", func(e *jx.Encoder) { e.Bool(favorite) })
		})
	})
}

// currentResults returns the products of the session's last search. The
// search is memoized, so this normally does not reach upstream.
func (h *Handler) currentResults(r *http.Request) ([]product.Product, error) {
	st, err := h.snapshot(r)
	if err != nil {
		return nil, err
	}
	if st.LastQuery.IsEmpty() {
		return nil, nil
	}
	return h.search.Search(r.Context(), st.LastQuery).Products, nil
}

// lookup finds id among the current results or the favorites.
func (h *Handler) lookup(r *http.Request, id string) (product.Product, error) {
	results, err := h.currentResults(r)
	if err != nil {
		return product.Product{}, err
	}
	if p, ok := product.FindByID(results, id); ok {
		return p, nil
	}
	st, err := h.snapshot(r)
	if err != nil {
		return product.Product{}, err
	}
	if p, ok := st.FavoriteByID(id); ok {
		return p, nil
	}
	return product.Product{}, errors.Wrapf(product.ErrNotFound, "lookup %q", id)
}
