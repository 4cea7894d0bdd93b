// Package app wires the storefront API together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/zlap-okazje/internal/cache"
	"github.com/xenking/zlap-okazje/internal/domain/history"
	"github.com/xenking/zlap-okazje/internal/domain/search"
	"github.com/xenking/zlap-okazje/internal/domain/session"
	"github.com/xenking/zlap-okazje/internal/handler"
	"github.com/xenking/zlap-okazje/internal/storage/postgres"
	"github.com/xenking/zlap-okazje/internal/upstream/rapidapi"
	"github.com/xenking/zlap-okazje/pkg/health"
	"github.com/xenking/zlap-okazje/pkg/httpmiddleware"
)

// NewSearchService builds the search service backed by the RapidAPI client.
// shared may be nil.
func NewSearchService(cfg *Config, tel httpmiddleware.Telemetry, shared search.SharedCache) (*search.Service, error) {
	client, err := rapidapi.New(rapidapi.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		Host:           cfg.Upstream.Host,
		APIKey:         cfg.Upstream.APIKey,
		Country:        cfg.Upstream.Country,
		Timeout:        cfg.Upstream.Timeout,
		TracerProvider: tel.TracerProvider(),
		MeterProvider:  tel.MeterProvider(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create upstream client")
	}

	policy, err := cache.PolicyByName[search.Query](cfg.Cache.Policy)
	if err != nil {
		return nil, errors.Wrap(err, "cache policy")
	}
	results := cache.New[search.Query, search.Result](cache.Options[search.Query]{
		Size:   cfg.Cache.Size,
		TTL:    cfg.Cache.TTL,
		Policy: policy,
	})

	svc, err := search.NewService(client, search.NewNormalizer(cfg.AffiliateTag), search.Options{
		Cache:          results,
		Shared:         shared,
		MeterProvider:  tel.MeterProvider(),
		TracerProvider: tel.TracerProvider(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create search service")
	}
	return svc, nil
}

// newHTTPHandler registers health and API routes and wraps them in the
// middleware chain.
func newHTTPHandler(
	ctx context.Context,
	cfg *Config,
	tel httpmiddleware.Telemetry,
	searcher handler.Searcher,
	sessions *session.Store,
	healthSvc *health.Health,
) http.Handler {
	h := handler.New(handler.Config{
		CookieSecure: cfg.Session.SecureCookie,
		CookieMaxAge: cfg.Session.IdleTimeout,
	}, searcher, sessions, history.NewGenerator(nil, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	if cfg.Docs.SpecDir != "" {
		docs, err := handler.Docs(cfg.Docs.SpecDir, "Złap Okazje API")
		if err != nil {
			zctx.From(ctx).Warn("API reference disabled", zap.Error(err))
		} else {
			mux.HandleFunc("GET /docs", docs)
		}
	}

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type"},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:     cfg.RateLimit.Max,
			Window:  cfg.RateLimit.Window,
			KeyFunc: httpmiddleware.CookieOrIP(handler.DefaultCookieName, sessions.Alive),
		}),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.Instrument("okazje-api", routeFinder, tel),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.Bool("shared_cache", cfg.DatabaseURL != ""),
	)
	ctx = zctx.Base(ctx, lg)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Optional shared result cache.
	var (
		shared     search.SharedCache
		resultRows *postgres.ResultCache
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}
		resultRows = postgres.NewResultCache(pool, cfg.Cache.SharedTTL)
		shared = resultRows
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	}

	searchSvc, err := NewSearchService(cfg, m, shared)
	if err != nil {
		return err
	}

	sessions := session.NewStore(cfg.Session.IdleTimeout)
	healthSvc.AddReadinessCheck("sessions", time.Second,
		health.MaxCountCheck("sessions", sessions.Len, cfg.Session.MaxSessions),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Upstream.Timeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           newHTTPHandler(ctx, cfg, m, searchSvc, sessions, healthSvc),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions.Run(gctx, cfg.Session.SweepInterval)
		return nil
	})
	if resultRows != nil && cfg.Cache.SharedTTL > 0 {
		g.Go(func() error {
			resultRows.RunPruner(gctx, min(cfg.Cache.SharedTTL, time.Hour))
			return nil
		})
	}
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})

	healthSvc.Start(gctx, 10*time.Second)
	healthSvc.SetReady(true)

	return g.Wait()
}
