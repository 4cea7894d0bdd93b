package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/zlap-okazje/internal/domain/product"
	"github.com/xenking/zlap-okazje/internal/domain/session"
	"github.com/xenking/zlap-okazje/pkg/problem"
)

type sessionKey struct{}

// sessionFrom returns the session id stored by withSession.
func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// withSession resolves the session cookie, starting a new session when the
// cookie is missing or refers to an expired session.
func (h *Handler) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(h.cfg.CookieName); err == nil {
			id = c.Value
		}
		if id == "" || !h.alive(id) {
			id = h.sessions.Create()
			http.SetCookie(w, h.cookie(id))
			zctx.From(r.Context()).Debug("Session started")
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	}
}

func (h *Handler) alive(id string) bool {
	return h.sessions.Update(id, func(*session.State) error { return nil }) == nil
}

func (h *Handler) cookie(id string) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.CookieMaxAge > 0 {
		c.MaxAge = int(h.cfg.CookieMaxAge.Seconds())
	}
	return c
}

// update runs fn on the request's session state.
func (h *Handler) update(r *http.Request, fn func(st *session.State) error) error {
	return h.sessions.Update(sessionFrom(r.Context()), fn)
}

// snapshot returns a copy of the request's session state.
func (h *Handler) snapshot(r *http.Request) (*session.State, error) {
	return h.sessions.Snapshot(sessionFrom(r.Context()))
}

// fail maps err to a problem response.
func fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		problem.NotFound(w, r, notFound)
	case errors.Is(err, session.ErrNotFound):
		// Expired between resolution and use.
		problem.Write(w, r, http.StatusConflict, "session expired, retry the request")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		problem.Internal(w, r)
	}
}
