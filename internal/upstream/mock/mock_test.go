package mock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/zlap-okazje/internal/domain/product"
	"github.com/xenking/zlap-okazje/internal/domain/search"
	"github.com/xenking/zlap-okazje/internal/upstream/rapidapi"
)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate("Lego Star Wars", "RELEVANCE", 20)
	b := Generate("  lego star wars ", "RELEVANCE", 20)
	require.Len(t, a, 20)

	for i := range a {
		assert.Equal(t, a[i].ASIN, b[i].ASIN)
		assert.Equal(t, a[i].Price, b[i].Price)
	}
	assert.NotEqual(t, a[0].ASIN, Generate("puzzle", "RELEVANCE", 1)[0].ASIN)
}

func TestGenerate_Sorted(t *testing.T) {
	asc := Generate("lego", "LOWEST_PRICE", 20)
	desc := Generate("lego", "HIGHEST_PRICE", 20)

	priced := func(items []Item) []int64 {
		var out []int64
		for _, it := range items {
			if it.Price > 0 {
				out = append(out, it.Price)
			}
		}
		return out
	}
	assert.IsNonDecreasing(t, priced(asc))
	assert.IsNonIncreasing(t, priced(desc))
	assert.Zero(t, asc[len(asc)-1].Price, "unpriced listings come last")
	assert.Zero(t, desc[len(desc)-1].Price, "unpriced listings come last")
}

func TestItem_PriceText(t *testing.T) {
	assert.Equal(t, "1234,05 zł", Item{Price: 123405}.PriceText())
	assert.Equal(t, "9,99 zł", Item{Price: 999}.PriceText())
}

func newServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	New(cfg).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_ThroughClientAndNormalizer(t *testing.T) {
	srv := newServer(t, Config{APIKey: "k", Count: 14})
	client, err := rapidapi.New(rapidapi.Config{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	q := search.NewQuery("lego", "price_asc")
	raw, err := client.Search(context.Background(), q)
	require.NoError(t, err)

	res := search.NewNormalizer("okazje-21").Normalize(q, raw)
	require.Equal(t, search.KindOK, res.Kind)
	require.Len(t, res.Products, 14)

	var unpriced, placeholders int
	for _, p := range res.Products {
		if p.Primary().DisplayText == product.CheckPrice {
			unpriced++
		}
		if p.ImageURL == product.NoImage {
			placeholders++
		}
	}
	assert.Equal(t, 2, unpriced)
	assert.Equal(t, 1, placeholders)
}

func TestServer_RejectsWrongKey(t *testing.T) {
	srv := newServer(t, Config{APIKey: "k"})
	client, err := rapidapi.New(rapidapi.Config{BaseURL: srv.URL, APIKey: "wrong"})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), search.NewQuery("lego", ""))
	assert.ErrorIs(t, err, search.ErrUpstreamStatus)
}

func TestServer_SimulatedFailure(t *testing.T) {
	srv := newServer(t, Config{FailureRate: 1})
	client, err := rapidapi.New(rapidapi.Config{BaseURL: srv.URL, APIKey: "any"})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), search.NewQuery("lego", ""))
	var se *rapidapi.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestServer_RequiresQuery(t *testing.T) {
	srv := newServer(t, Config{})
	resp, err := http.Get(srv.URL + "/search?query=")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
