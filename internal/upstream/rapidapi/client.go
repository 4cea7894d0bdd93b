// Package rapidapi queries the RapidAPI "real-time-amazon-data" product search.
package rapidapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/zlap-okazje/internal/domain/search"
)

// DefaultHost is the RapidAPI host of the product search API.
const DefaultHost = "real-time-amazon-data.p.rapidapi.com"

// maxBodySize bounds how much of a response is read.
const maxBodySize = 8 << 20

var _ search.Source = (*Client)(nil)

// Config configures a Client.
type Config struct {
	// BaseURL defaults to https://<Host>.
	BaseURL string
	Host    string
	APIKey  string
	// Country is the marketplace whose prices are returned.
	Country string
	Timeout time.Duration

	// Transport is the base round tripper. Defaults to http.DefaultTransport.
	Transport      http.RoundTripper
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client fetches raw search payloads.
type Client struct {
	searchURL  string
	host       string
	apiKey     string
	country    string
	httpClient *http.Client
}

// StatusError is returned when upstream answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Body)
}

// Is lets callers match the status error with search.ErrUpstreamStatus.
func (e *StatusError) Is(target error) bool {
	return target == search.ErrUpstreamStatus
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("rapidapi: api key is required")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + cfg.Host
	}
	if cfg.Country == "" {
		cfg.Country = "PL"
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}

	searchURL, err := url.JoinPath(cfg.BaseURL, "search")
	if err != nil {
		return nil, errors.Wrap(err, "rapidapi: invalid base url")
	}

	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}

	return &Client{
		searchURL: searchURL,
		host:      cfg.Host,
		apiKey:    cfg.APIKey,
		country:   cfg.Country,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(cfg.Transport, opts...),
		},
	}, nil
}

// Search requests the first page of results for q and returns the raw body.
func (c *Client) Search(ctx context.Context, q search.Query) ([]byte, error) {
	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("page", "1")
	params.Set("country", c.country)
	params.Set("sort_by", q.Sort.UpstreamCode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request search")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read search response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
