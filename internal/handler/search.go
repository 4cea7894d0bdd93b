package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/zlap-okazje/internal/domain/search"
	"github.com/xenking/zlap-okazje/internal/domain/session"
)

// Search handles GET /api/search?q=&sort=. A new query or sort shows the first
// page again. Failed searches look like searches without results.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := search.NewQuery(params.Get("q"), params.Get("sort"))

	res := h.search.Search(r.Context(), q)
	if res.Failed() {
		zctx.From(r.Context()).Info("Search failed, showing no results",
			zap.String("query", q.Text),
			zap.Stringer("kind", res.Kind),
		)
	}

	var view searchView
	if err := h.update(r, func(st *session.State) error {
		st.Observe(q)
		view = newSearchView(st, res.Products)
		return nil
	}); err != nil {
		fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, view.Encode)
}

// LoadMore handles POST /api/search/more by revealing another page of the
// session's current search.
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	st, err := h.snapshot(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	res := h.search.Search(r.Context(), st.LastQuery)

	var view searchView
	if err := h.update(r, func(st *session.State) error {
		st.Observe(res.Query)
		st.LoadMore(len(res.Products))
		view = newSearchView(st, res.Products)
		return nil
	}); err != nil {
		fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, view.Encode)
}
