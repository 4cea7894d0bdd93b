package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/zlap-okazje/internal/domain/history"
	"github.com/xenking/zlap-okazje/internal/domain/search"
	"github.com/xenking/zlap-okazje/internal/domain/session"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	count int
	err   error
}

func (f *fakeSource) Search(_ context.Context, q search.Query) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	items := make([]string, 0, f.count)
	for i := range f.count {
		price := fmt.Sprintf(`"%d,99 zł"`, 100+i)
		if i == f.count-1 {
			price = "null"
		}
		items = append(items, fmt.Sprintf(
			`{"asin":"B%03d","product_title":"%s %d","product_photo":"https://m.media-amazon.com/%d.jpg","product_price":%s}`,
			i, q.Text, i, i, price,
		))
	}
	return []byte(`{"status":"OK","data":{"products":[` + strings.Join(items, ",") + `]}}`), nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type env struct {
	t        *testing.T
	src      *fakeSource
	sessions *session.Store
	mux      *http.ServeMux
	cookie   *http.Cookie
}

func newEnv(t *testing.T) *env {
	t.Helper()
	src := &fakeSource{count: 20}
	svc, err := search.NewService(src, search.NewNormalizer("okazje-21"), search.Options{})
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC) }
	sessions := session.NewStore(time.Hour)
	h := New(Config{}, svc, sessions, history.NewGenerator(rand.NewPCG(1, 2), now))

	mux := http.NewServeMux()
	h.Register(mux)
	return &env{t: t, src: src, sessions: sessions, mux: mux}
}

// do sends a request carrying the env's session cookie and keeps any new one.
func (e *env) do(method, target string, out any) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == DefaultCookieName {
			e.cookie = c
		}
	}
	if out != nil {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w
}

type priceJSON struct {
	RegionFlag   string `json:"region_flag"`
	DisplayText  string `json:"display_text"`
	PurchaseLink string `json:"purchase_link"`
	IsBest       bool   `json:"is_best"`
}

type productJSON struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	ImageURL   string      `json:"image_url"`
	Prices     []priceJSON `json:"prices"`
	IsFavorite bool        `json:"is_favorite"`
}

type searchJSON struct {
	Query        string        `json:"query"`
	Sort         string        `json:"sort"`
	Total        int           `json:"total"`
	DisplayCount int           `json:"display_count"`
	HasMore      bool          `json:"has_more"`
	Products     []productJSON `json:"products"`
}

type favoritesJSON struct {
	Favorite  bool          `json:"favorite"`
	Count     int           `json:"count"`
	Favorites []productJSON `json:"favorites"`
}

type historyJSON struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
	Points    []struct {
		Date  string  `json:"date"`
		Price float64 `json:"price"`
	} `json:"points"`
}

func TestSearch_FirstPage(t *testing.T) {
	e := newEnv(t)

	var body searchJSON
	w := e.do(http.MethodGet, "/api/search?q=Lego+Star+Wars&sort=price_asc", &body)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, e.cookie, "session cookie issued")
	assert.True(t, e.cookie.HttpOnly)
	assert.Equal(t, "Lego Star Wars", body.Query)
	assert.Equal(t, "price_asc", body.Sort)
	assert.Equal(t, 20, body.Total)
	assert.Equal(t, session.PageSize, body.DisplayCount)
	assert.True(t, body.HasMore)
	require.Len(t, body.Products, session.PageSize)

	first := body.Products[0]
	assert.Equal(t, "B000", first.ID)
	assert.False(t, first.IsFavorite)
	require.Len(t, first.Prices, 4)
	assert.Equal(t, "100,99 zł", first.Prices[0].DisplayText)
	assert.True(t, first.Prices[0].IsBest)
	assert.Equal(t, "https://www.amazon.pl/dp/B000?tag=okazje-21", first.Prices[0].PurchaseLink)
	for _, pe := range first.Prices[1:] {
		assert.Equal(t, "Sprawdź", pe.DisplayText)
		assert.False(t, pe.IsBest)
	}
}

func TestSearch_LoadMore(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)

	var body searchJSON
	w := e.do(http.MethodPost, "/api/search/more", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24, body.DisplayCount)
	assert.Len(t, body.Products, 20)
	assert.False(t, body.HasMore)

	// Nothing more to show.
	e.do(http.MethodPost, "/api/search/more", &body)
	assert.Equal(t, 24, body.DisplayCount)
	assert.Len(t, body.Products, 20)

	// Repeating the same search keeps the revealed page; a new one resets it.
	e.do(http.MethodGet, "/api/search?q=lego", &body)
	assert.Len(t, body.Products, 20)
	e.do(http.MethodGet, "/api/search?q=lego&sort=price_desc", &body)
	assert.Equal(t, session.PageSize, body.DisplayCount)
	assert.Len(t, body.Products, session.PageSize)

	assert.Equal(t, 2, e.src.Calls(), "one upstream call per distinct query")
}

func TestSearch_EmptyQuery(t *testing.T) {
	e := newEnv(t)

	var body searchJSON
	w := e.do(http.MethodGet, "/api/search?q=+++", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, body.Total)
	assert.NotNil(t, body.Products)
	assert.Empty(t, body.Products)
	assert.False(t, body.HasMore)
	assert.Zero(t, e.src.Calls())
}

func TestSearch_UpstreamFailureShowsNoResults(t *testing.T) {
	e := newEnv(t)
	e.src.err = errors.New("dial tcp: connection refused")

	var body searchJSON
	w := e.do(http.MethodGet, "/api/search?q=lego", &body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body.Products)
	assert.Zero(t, body.Total)
}

func TestFavorites_Toggle(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)

	var fav favoritesJSON
	w := e.do(http.MethodPost, "/api/favorites/B003", &fav)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fav.Favorite)
	assert.Equal(t, 1, fav.Count)
	require.Len(t, fav.Favorites, 1)
	assert.Equal(t, "B003", fav.Favorites[0].ID)

	var list favoritesJSON
	e.do(http.MethodGet, "/api/favorites", &list)
	assert.Equal(t, 1, list.Count)

	var body searchJSON
	e.do(http.MethodGet, "/api/search?q=lego", &body)
	for _, p := range body.Products {
		assert.Equal(t, p.ID == "B003", p.IsFavorite, p.ID)
	}

	e.do(http.MethodPost, "/api/favorites/B003", &fav)
	assert.False(t, fav.Favorite)
	assert.Zero(t, fav.Count)
	assert.NotNil(t, fav.Favorites)
}

func TestFavorites_SurviveNewSearch(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)
	e.do(http.MethodPost, "/api/favorites/B001", nil)
	e.do(http.MethodPost, "/api/favorites/B002", nil)

	// With no current results a favorite is still found by id.
	e.do(http.MethodGet, "/api/search?q=", nil)

	var fav favoritesJSON
	w := e.do(http.MethodPost, "/api/favorites/B001", &fav)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, fav.Favorite)
	require.Len(t, fav.Favorites, 1)
	assert.Equal(t, "B002", fav.Favorites[0].ID)
	assert.Equal(t, "lego 2", fav.Favorites[0].Title)
}

func TestFavorites_UnknownProduct(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)

	w := e.do(http.MethodPost, "/api/favorites/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "NOPE")
}

func TestFavorites_Remove(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)
	e.do(http.MethodPost, "/api/favorites/B001", nil)
	e.do(http.MethodPost, "/api/favorites/B002", nil)

	var fav favoritesJSON
	w := e.do(http.MethodDelete, "/api/favorites/B001", &fav)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, fav.Favorite)
	require.Len(t, fav.Favorites, 1)
	assert.Equal(t, "B002", fav.Favorites[0].ID)

	// Idempotent.
	w = e.do(http.MethodDelete, "/api/favorites/B001", &fav)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fav.Count)
}

func TestHistory(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)

	var hist historyJSON
	w := e.do(http.MethodGet, "/api/products/B000/history", &hist)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "B000", hist.ID)
	assert.True(t, hist.Available)
	require.Len(t, hist.Points, history.Days+1)

	last := hist.Points[len(hist.Points)-1]
	assert.Equal(t, "2025-03-31", last.Date)
	assert.InDelta(t, 100.99, last.Price, 1e-9)
	for _, p := range hist.Points {
		assert.GreaterOrEqual(t, p.Price, 100.99*0.85-0.01)
		assert.LessOrEqual(t, p.Price, 100.99*1.15+0.01)
	}
}

func TestHistory_NoPrice(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/search?q=lego", nil)

	var hist historyJSON
	w := e.do(http.MethodGet, "/api/products/B019/history", &hist)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, hist.Available)
	assert.Empty(t, hist.Points)
}

func TestHistory_UnknownProduct(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/products/B000/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSession_Isolation(t *testing.T) {
	a := newEnv(t)
	a.do(http.MethodGet, "/api/search?q=lego", nil)
	a.do(http.MethodPost, "/api/favorites/B000", nil)

	b := &env{t: t, src: a.src, sessions: a.sessions, mux: a.mux}
	var fav favoritesJSON
	b.do(http.MethodGet, "/api/favorites", &fav)

	require.NotNil(t, b.cookie)
	assert.NotEqual(t, a.cookie.Value, b.cookie.Value)
	assert.Zero(t, fav.Count)
	assert.Equal(t, 2, a.sessions.Len())
}

func TestSession_UnknownCookieReplaced(t *testing.T) {
	e := newEnv(t)
	e.cookie = &http.Cookie{Name: DefaultCookieName, Value: "forged"}

	w := e.do(http.MethodGet, "/api/favorites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "forged", e.cookie.Value)
	assert.Equal(t, 1, e.sessions.Len())
}
