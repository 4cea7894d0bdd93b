package main

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/zlap-okazje/internal/domain/search"
)

const (
	bloomFPR      = 0.001
	progressEvery = 1000
)

// Searcher runs a search and stores its result.
type Searcher interface {
	Search(ctx context.Context, q search.Query) search.Result
}

// stats counts what a warm run did.
type stats struct {
	lines      atomic.Int64
	duplicates atomic.Int64
	searched   atomic.Int64
	failed     atomic.Int64
}

func (s *stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int64("lines", s.lines.Load()),
		zap.Int64("duplicates", s.duplicates.Load()),
		zap.Int64("searched", s.searched.Load()),
		zap.Int64("failed", s.failed.Load()),
	}
}

// warmer replays query logs through a Searcher, skipping repeats.
type warmer struct {
	search      Searcher
	defaultSort string
	concurrency int
	seen        *bloom.BloomFilter
	lg          *zap.Logger
	stats       stats
}

func newWarmer(s Searcher, defaultSort string, concurrency int, expected uint, lg *zap.Logger) *warmer {
	return &warmer{
		search:      s,
		defaultSort: defaultSort,
		concurrency: max(concurrency, 1),
		seen:        bloom.NewWithEstimates(max(expected, 1), bloomFPR),
		lg:          lg,
	}
}

// Run streams every file and searches each distinct query once. Files are
// read in order; searches run concurrently up to the configured limit.
func (w *warmer) Run(ctx context.Context, files []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, path := range files {
		if err := streamGzFile(gctx, path, func(line string) {
			w.stats.lines.Add(1)
			q, ok := w.parse(line)
			if !ok {
				return
			}
			// False positives skip a query, which only leaves it cold.
			if w.seen.TestOrAddString(dedupeKey(q)) {
				w.stats.duplicates.Add(1)
				return
			}
			g.Go(func() error {
				w.warm(gctx, q)
				return nil
			})
		}); err != nil {
			_ = g.Wait()
			return errors.Wrapf(err, "stream %s", path)
		}
		w.lg.Info("File replayed", append(w.stats.fields(), zap.String("file", path))...)
	}
	return g.Wait()
}

func (w *warmer) warm(ctx context.Context, q search.Query) {
	res := w.search.Search(ctx, q)
	n := w.stats.searched.Add(1)
	if res.Failed() {
		w.stats.failed.Add(1)
		w.lg.Warn("Search failed",
			zap.String("query", q.Text),
			zap.Stringer("kind", res.Kind),
			zap.Error(res.Err),
		)
	}
	if n%progressEvery == 0 {
		w.lg.Info("Progress", w.stats.fields()...)
	}
}

// parse reads "query" or "query\tsort". Blank queries are skipped.
func (w *warmer) parse(line string) (search.Query, bool) {
	text, sort, found := strings.Cut(line, "\t")
	if !found {
		sort = w.defaultSort
	}
	q := search.NewQuery(text, sort)
	return q, !q.IsEmpty()
}

func dedupeKey(q search.Query) string {
	return q.Sort.String() + "\x00" + q.Text
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}
