package search

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/zlap-okazje/internal/cache"
	"github.com/xenking/zlap-okazje/internal/domain/product"
)

// ErrUpstreamStatus is matched by source errors caused by a non-2xx response.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// Source fetches the raw search payload for a query.
type Source interface {
	Search(ctx context.Context, q Query) ([]byte, error)
}

// SharedCache is a second-level result store shared between processes.
type SharedCache interface {
	Get(ctx context.Context, q Query) ([]product.Product, bool, error)
	Put(ctx context.Context, q Query, products []product.Product) error
}

// Options holds optional Service dependencies.
type Options struct {
	// Cache memoizes results per query. Defaults to an unbounded cache.
	Cache *cache.Cache[Query, Result]
	// Shared is consulted on a local miss. May be nil.
	Shared         SharedCache
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Service runs searches against a Source, memoizing successful results.
type Service struct {
	source     Source
	normalizer *Normalizer
	local      *cache.Cache[Query, Result]
	shared     SharedCache
	group      singleflight.Group

	tracer    trace.Tracer
	searches  metric.Int64Counter
	cacheHits metric.Int64Counter
}

// NewService creates a search Service.
func NewService(source Source, normalizer *Normalizer, opts Options) (*Service, error) {
	if opts.Cache == nil {
		opts.Cache = cache.New[Query, Result](cache.Options[Query]{})
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}

	meter := opts.MeterProvider.Meter("github.com/xenking/zlap-okazje/internal/domain/search")
	searches, err := meter.Int64Counter("okazje.search.requests",
		metric.WithDescription("Searches by outcome kind"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create searches counter")
	}
	cacheHits, err := meter.Int64Counter("okazje.search.cache_hits",
		metric.WithDescription("Search cache hits by level"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cache hits counter")
	}

	return &Service{
		source:     source,
		normalizer: normalizer,
		local:      opts.Cache,
		shared:     opts.Shared,
		tracer:     opts.TracerProvider.Tracer("github.com/xenking/zlap-okazje/internal/domain/search"),
		searches:   searches,
		cacheHits:  cacheHits,
	}, nil
}

// Search returns the products for q. An empty query short-circuits without
// contacting upstream. Failures are reported through Result.Kind and are not
// memoized.
func (s *Service) Search(ctx context.Context, q Query) Result {
	q = NewQuery(q.Text, q.Sort.String())
	if q.IsEmpty() {
		return okOrEmpty(q, nil)
	}

	ctx, span := s.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("search.query", q.Text),
		attribute.String("search.sort", q.Sort.String()),
	))
	defer span.End()

	if r, ok := s.local.Get(q); ok {
		s.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("level", "local")))
		span.SetAttributes(attribute.Bool("search.cached", true))
		return r
	}

	// Identical concurrent searches share one upstream call. The call must not
	// be cancelled by whichever caller happened to start it.
	loadCtx := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(flightKey(q), func() (any, error) {
		return s.load(loadCtx, q), nil
	})
	r := v.(Result)

	s.searches.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", r.Kind.String())))
	span.SetAttributes(
		attribute.String("search.kind", r.Kind.String()),
		attribute.Int("search.results", len(r.Products)),
	)
	if r.Failed() {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Kind.String())
	}
	return r
}

func (s *Service) load(ctx context.Context, q Query) Result {
	lg := zctx.From(ctx).With(
		zap.String("query", q.Text),
		zap.Stringer("sort", q.Sort),
	)

	if s.shared != nil {
		products, ok, err := s.shared.Get(ctx, q)
		switch {
		case err != nil:
			lg.Warn("Shared cache lookup failed", zap.Error(err))
		case ok:
			s.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("level", "shared")))
			r := okOrEmpty(q, products)
			s.local.Set(q, r)
			return r
		}
	}

	raw, err := s.source.Search(ctx, q)
	if err != nil {
		kind := KindTransport
		if errors.Is(err, ErrUpstreamStatus) {
			kind = KindStatus
		}
		lg.Warn("Upstream search failed", zap.Stringer("kind", kind), zap.Error(err))
		return failed(q, kind, err)
	}

	r := s.normalizer.Normalize(q, raw)
	if !r.Cacheable() {
		lg.Warn("Upstream payload rejected", zap.Stringer("kind", r.Kind), zap.Error(r.Err))
		return r
	}

	s.local.Set(q, r)
	if s.shared != nil {
		if err := s.shared.Put(ctx, q, r.Products); err != nil {
			lg.Warn("Shared cache store failed", zap.Error(err))
		}
	}
	lg.Debug("Search completed", zap.Int("results", len(r.Products)))
	return r
}

func flightKey(q Query) string {
	return q.Sort.String() + "\x00" + q.Text
}
