// Package handler implements the storefront JSON API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xenking/zlap-okazje/internal/domain/history"
	"github.com/xenking/zlap-okazje/internal/domain/search"
	"github.com/xenking/zlap-okazje/internal/domain/session"
)

// Searcher runs product searches.
type Searcher interface {
	Search(ctx context.Context, q search.Query) search.Result
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// CookieName names the session cookie. Defaults to DefaultCookieName.
	CookieName string
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool
	// CookieMaxAge is the session cookie lifetime. Zero makes it a browser
	// session cookie.
	CookieMaxAge time.Duration
}

// DefaultCookieName is the session cookie name.
const DefaultCookieName = "okazje_session"

// Handler serves search, favorites and price history endpoints. All state is
// per session.
type Handler struct {
	search   Searcher
	sessions *session.Store
	history  *history.Generator
	cfg      Config
}

// New constructs a Handler.
func New(cfg Config, searcher Searcher, sessions *session.Store, gen *history.Generator) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Handler{
		search:   searcher,
		sessions: sessions,
		history:  gen,
		cfg:      cfg,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.withSession(h.Search))
	mux.HandleFunc("POST /api/search/more", h.withSession(h.LoadMore))
	mux.HandleFunc("GET /api/favorites", h.withSession(h.Favorites))
	mux.HandleFunc("POST /api/favorites/{id}", h.withSession(h.ToggleFavorite))
	mux.HandleFunc("DELETE /api/favorites/{id}", h.withSession(h.RemoveFavorite))
	mux.HandleFunc("GET /api/products/{id}/history", h.withSession(h.History))
}
