// Command mock-upstream serves a local stand-in for the RapidAPI product
// search, for development without an API subscription.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/zlap-okazje/internal/upstream/mock"
	"github.com/xenking/zlap-okazje/pkg/httpmiddleware"
)

type config struct {
	Addr        string        `default:"0.0.0.0:9001" usage:"Listen address"`
	APIKey      string        `usage:"Expected x-rapidapi-key; empty accepts any" flag:"api-key"`
	Count       int           `default:"20" usage:"Products per search"`
	Latency     time.Duration `default:"150ms" usage:"Added response latency"`
	FailureRate float64       `default:"0" usage:"Share of searches answered with 503" flag:"failure-rate"`
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		var cfg config
		if err := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix: "MOCK_UPSTREAM",
			SkipFiles: true,
		}).Load(); err != nil {
			return errors.Wrap(err, "load config")
		}

		mux := http.NewServeMux()
		mock.New(mock.Config{
			APIKey:      cfg.APIKey,
			Count:       cfg.Count,
			Latency:     cfg.Latency,
			FailureRate: cfg.FailureRate,
		}).Register(mux)

		routeFinder := httpmiddleware.MakeRouteFinder(mux)
		srv := &http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: time.Second,
			WriteTimeout:      cfg.Latency + 10*time.Second,
			Handler: httpmiddleware.Wrap(mux,
				httpmiddleware.Recovery(),
				httpmiddleware.RequestID(),
				httpmiddleware.InjectLogger(lg),
				httpmiddleware.Instrument("mock-upstream", routeFinder, m),
				httpmiddleware.LogRequests(routeFinder),
			),
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			lg.Info("Mock upstream listening",
				zap.String("addr", cfg.Addr),
				zap.Int("count", cfg.Count),
				zap.Float64("failure_rate", cfg.FailureRate),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "server")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zctx.From(ctx).Error("Shutdown", zap.Error(err))
			}
			return nil
		})
		return g.Wait()
	})
}
