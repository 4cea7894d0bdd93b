package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/zlap-okazje/internal/domain/history"
	"github.com/xenking/zlap-okazje/internal/domain/product"
	"github.com/xenking/zlap-okazje/internal/domain/session"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// searchView is the visible part of a search for one session.
type searchView struct {
	query        string
	sort         string
	total        int
	displayCount int
	hasMore      bool
	products     []product.Product
	favorites    map[string]bool
}

func newSearchView(st *session.State, products []product.Product) searchView {
	favs := make(map[string]bool, len(st.Favorites))
	for _, f := range st.Favorites {
		favs[f.ID] = true
	}
	return searchView{
		query:        st.LastQuery.Text,
		sort:         st.LastQuery.Sort.String(),
		total:        len(products),
		displayCount: st.DisplayCount,
		hasMore:      st.CanLoadMore(len(products)),
		products:     st.Visible(products),
		favorites:    favs,
	}
}

func (v searchView) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("query", func(e *jx.Encoder) { e.Str(v.query) })
		e.Field("sort", func(e *jx.Encoder) { e.Str(v.sort) })
		e.Field("total", func(e *jx.Encoder) { e.Int(v.total) })
		e.Field("display_count", func(e *jx.Encoder) { e.Int(v.displayCount) })
		e.Field("has_more", func(e *jx.Encoder) { e.Bool(v.hasMore) })
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range v.products {
					p.EncodeWith(e, func(e *jx.Encoder) {
						e.Field("is_favorite", func(e *jx.Encoder) { e.Bool(v.favorites[p.ID]) })
					})
				}
			})
		})
	})
}

func encodeFavorites(e *jx.Encoder, favorites []product.Product, extra func(e *jx.Encoder)) {
	e.Obj(func(e *jx.Encoder) {
		if extra != nil {
			extra(e)
		}
		e.Field("count", func(e *jx.Encoder) { e.Int(len(favorites)) })
		e.Field("favorites", func(e *jx.Encoder) { product.EncodeList(e, favorites) })
	})
}

func encodeHistory(e *jx.Encoder, id string, points []history.PricePoint, available bool) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(id) })
		e.Field("available", func(e *jx.Encoder) { e.Bool(available) })
		e.Field("points", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range points {
					e.Obj(func(e *jx.Encoder) {
						e.Field("date", func(e *jx.Encoder) { e.Str(p.Date) })
						e.Field("price", func(e *jx.Encoder) { e.RawStr(p.Price.StringFixed(2)) })
					})
				}
			})
		})
	})
}
