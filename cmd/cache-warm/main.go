// Command cache-warm replays gzip'd search query logs through the search
// service so the shared result cache is warm before traffic arrives.
package main

import (
	"context"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/xenking/zlap-okazje/internal/app"
	"github.com/xenking/zlap-okazje/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string `required:"true" usage:"PostgreSQL URL of the shared result cache" flag:"database-url"`
	AffiliateTag string `required:"true" usage:"Amazon affiliate tag" flag:"affiliate-tag"`
	Upstream     appkg.UpstreamConfig
	Cache        appkg.CacheConfig

	Queries     []string `required:"true" usage:"Comma-separated gzip'd query logs, one query per line" flag:"queries"`
	Sort        string   `default:"relevance" usage:"Sort for lines without one" flag:"sort"`
	Concurrency int      `default:"4" usage:"Concurrent searches" flag:"concurrency"`
	Expected    uint     `default:"1000000" usage:"Expected distinct queries, sizes the dedupe filter" flag:"expected"`
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		var cfg config
		if err := aconfig.LoaderFor(&cfg, aconfig.Config{
			EnvPrefix: "OKAZJE",
			SkipFiles: true,
		}).Load(); err != nil {
			return errors.Wrap(err, "load config")
		}

		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "connect to database")
		}
		defer pool.Close()
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return errors.Wrap(err, "run migrations")
		}

		svc, err := appkg.NewSearchService(&appkg.Config{
			AffiliateTag: cfg.AffiliateTag,
			Upstream:     cfg.Upstream,
			Cache:        cfg.Cache,
		}, m, postgres.NewResultCache(pool, cfg.Cache.SharedTTL))
		if err != nil {
			return err
		}

		start := time.Now()
		w := newWarmer(svc, cfg.Sort, cfg.Concurrency, cfg.Expected, lg)
		if err := w.Run(ctx, cfg.Queries); err != nil {
			return errors.Wrap(err, "warm")
		}
		lg.Info("Cache warm completed", append(w.stats.fields(), zap.Duration("took", time.Since(start)))...)
		return nil
	})
}
