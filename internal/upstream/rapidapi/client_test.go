package rapidapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/zlap-okazje/internal/domain/search"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL: baseURL,
		Host:    "example.p.rapidapi.com",
		APIKey:  "secret-key",
		Timeout: time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestSearch_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"products":[]}}`))
	}))
	defer srv.Close()

	body, err := newTestClient(t, srv.URL).Search(context.Background(), search.NewQuery("Lego Star Wars", "price_asc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"products":[]}}`, string(body))

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/search", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "Lego Star Wars", q.Get("query"))
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "PL", q.Get("country"))
	assert.Equal(t, "LOWEST_PRICE", q.Get("sort_by"))
	assert.Equal(t, "secret-key", got.Header.Get("x-rapidapi-key"))
	assert.Equal(t, "example.p.rapidapi.com", got.Header.Get("x-rapidapi-host"))
}

func TestSearch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"You have exceeded the rate limit per second for your plan"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Search(context.Background(), search.NewQuery("lego", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, search.ErrUpstreamStatus)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, se.Body, "rate limit")
}

func TestSnippet(t *testing.T) {
	t.Run("Short", func(t *testing.T) {
		assert.Equal(t, "Forbidden", snippet([]byte("  Forbidden\n")))
	})
	t.Run("CutsOnRuneBoundary", func(t *testing.T) {
		// The two-byte "ł" straddles the cut.
		body := strings.Repeat("a", 255) + "ł" + strings.Repeat("b", 10)
		got := snippet([]byte(body))
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("a", 255)+"...", got)
	})
	t.Run("ASCII", func(t *testing.T) {
		got := snippet([]byte(strings.Repeat("x", 300)))
		assert.Equal(t, strings.Repeat("x", 256)+"...", got)
	})
}

func TestSearch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).Search(context.Background(), search.NewQuery("lego", ""))
	require.Error(t, err)
	assert.False(t, errors.Is(err, search.ErrUpstreamStatus))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://real-time-amazon-data.p.rapidapi.com/search", c.searchURL)
	assert.Equal(t, DefaultHost, c.host)
	assert.Equal(t, "PL", c.country)
}
