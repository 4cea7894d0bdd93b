// Package mock serves a local stand-in for the RapidAPI product search. It
// answers with the same response shape and derives products from the query so
// repeated searches are stable.
package mock

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Config configures a Server.
type Config struct {
	// APIKey must match the x-rapidapi-key header. Empty accepts any key.
	APIKey string
	// Count is the number of products per search. Defaults to 20.
	Count int
	// Latency is added before each response.
	Latency time.Duration
	// FailureRate is the share of searches answered with 503.
	FailureRate float64
}

// Server implements the mock search endpoint.
type Server struct {
	cfg Config

	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Count <= 0 {
		cfg.Count = 20
	}
	seed := uint64(time.Now().UnixNano())
	return &Server{cfg: cfg, rnd: rand.New(rand.NewPCG(seed, seed>>3))}
}

// Register adds the mock routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", s.search)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// Item is one generated product.
type Item struct {
	ASIN  string
	Title string
	Photo string
	// Price is in grosze; zero means no price is listed.
	Price int64
}

// PriceText formats the price the way the marketplace does, e.g. "1234,56 zł".
func (it Item) PriceText() string {
	return fmt.Sprintf("%d,%02d zł", it.Price/100, it.Price%100)
}

var adjectives = []string{"Zestaw", "Nowy", "Mega", "Klasyczny", "Kolekcjonerski", "Mini"}

// Generate returns count products for query ordered by sortBy.
func Generate(query, sortBy string, count int) []Item {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	seed := h.Sum64()
	rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	items := make([]Item, 0, count)
	for i := range count {
		it := Item{
			ASIN:  fmt.Sprintf("B0%08X", (seed+uint64(i))&0xffffffff),
			Title: fmt.Sprintf("%s %s #%d", adjectives[rnd.IntN(len(adjectives))], query, i+1),
			Photo: fmt.Sprintf("https://m.media-amazon.com/images/I/mock-%d.jpg", i),
			Price: 999 + rnd.Int64N(250_000),
		}
		// Every seventh listing lacks a price, every eleventh a photo.
		if i%7 == 6 {
			it.Price = 0
		}
		if i%11 == 10 {
			it.Photo = ""
		}
		items = append(items, it)
	}

	switch sortBy {
	case "LOWEST_PRICE":
		slices.SortStableFunc(items, func(a, b Item) int { return cmp.Compare(sortPrice(a, 1), sortPrice(b, 1)) })
	case "HIGHEST_PRICE":
		slices.SortStableFunc(items, func(a, b Item) int { return cmp.Compare(sortPrice(b, -1), sortPrice(a, -1)) })
	}
	return items
}

// sortPrice places unpriced items last in both directions.
func sortPrice(it Item, dir int64) int64 {
	if it.Price == 0 {
		return dir * (1 << 62)
	}
	return it.Price
}

// Encode writes items in the upstream response shape.
func Encode(e *jx.Encoder, query string, items []Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str("OK") })
		e.Field("parameters", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("query", func(e *jx.Encoder) { e.Str(query) })
			})
		})
		e.Field("data", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("total_products", func(e *jx.Encoder) { e.Int(len(items)) })
				e.Field("products", func(e *jx.Encoder) {
					e.Arr(func(e *jx.Encoder) {
						for _, it := range items {
							encodeItem(e, it)
						}
					})
				})
			})
		})
	})
}

func encodeItem(e *jx.Encoder, it Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("asin", func(e *jx.Encoder) { e.Str(it.ASIN) })
		e.Field("product_title", func(e *jx.Encoder) { e.Str(it.Title) })
		if it.Photo != "" {
			e.Field("product_photo", func(e *jx.Encoder) { e.Str(it.Photo) })
		}
		e.Field("product_price", func(e *jx.Encoder) {
			if it.Price == 0 {
				e.Null()
				return
			}
			e.Str(it.PriceText())
		})
		e.Field("currency", func(e *jx.Encoder) { e.Str("PLN") })
	})
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	lg := zctx.From(r.Context())
	if s.cfg.APIKey != "" && r.Header.Get("x-rapidapi-key") != s.cfg.APIKey {
		writeMessage(w, http.StatusForbidden, "You are not subscribed to this API.")
		return
	}

	params := r.URL.Query()
	query := params.Get("query")
	if strings.TrimSpace(query) == "" {
		writeMessage(w, http.StatusBadRequest, "query is required")
		return
	}

	if err := s.delay(r.Context()); err != nil {
		return
	}
	if s.fail() {
		lg.Info("Simulated failure", zap.String("query", query))
		writeMessage(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
		return
	}

	items := Generate(query, params.Get("sort_by"), s.cfg.Count)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	Encode(e, query, items)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(e.Bytes())
	lg.Debug("Served search", zap.String("query", query), zap.Int("items", len(items)))
}

func (s *Server) delay(ctx context.Context) error {
	if s.cfg.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(s.cfg.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (s *Server) fail() bool {
	if s.cfg.FailureRate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < s.cfg.FailureRate
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.Obj(func(e *jx.Encoder) {
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
