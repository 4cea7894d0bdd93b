package postgres

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"

	"github.com/xenking/zlap-okazje/internal/domain/product"
	"github.com/xenking/zlap-okazje/internal/domain/search"
)

var _ search.SharedCache = (*ResultCache)(nil)

const (
	selectResult = `SELECT payload, fetched_at FROM search_results WHERE query = $1 AND sort = $2`

	upsertResult = `INSERT INTO search_results (query, sort, payload, item_count, fetched_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (query, sort) DO UPDATE
SET payload = EXCLUDED.payload, item_count = EXCLUDED.item_count, fetched_at = EXCLUDED.fetched_at`

	deleteStale = `DELETE FROM search_results WHERE fetched_at < $1`
)

// ResultCache keeps normalized product lists keyed by query and sort.
// Payloads are gzip-compressed JSON.
type ResultCache struct {
	pool   *pgxpool.Pool
	maxAge time.Duration
	now    func() time.Time
}

// NewResultCache returns a ResultCache. Rows older than maxAge are treated
// as missing; zero disables expiry.
func NewResultCache(pool *pgxpool.Pool, maxAge time.Duration) *ResultCache {
	return &ResultCache{pool: pool, maxAge: maxAge, now: time.Now}
}

// Get returns the stored products for q.
func (r *ResultCache) Get(ctx context.Context, q search.Query) ([]product.Product, bool, error) {
	var (
		payload   []byte
		fetchedAt time.Time
	)
	err := r.pool.QueryRow(ctx, selectResult, q.Text, q.Sort.String()).Scan(&payload, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "select result %q", q.Text)
	}
	if r.maxAge > 0 && r.now().Sub(fetchedAt) > r.maxAge {
		return nil, false, nil
	}

	products, err := decodeBlob(payload)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode result %q", q.Text)
	}
	return products, true, nil
}

// Put stores products for q, replacing any previous row.
func (r *ResultCache) Put(ctx context.Context, q search.Query, products []product.Product) error {
	payload, err := encodeBlob(products)
	if err != nil {
		return errors.Wrap(err, "encode result")
	}
	if _, err := r.pool.Exec(ctx, upsertResult, q.Text, q.Sort.String(), payload, len(products), r.now().UTC()); err != nil {
		return errors.Wrapf(err, "upsert result %q", q.Text)
	}
	return nil
}

// Prune deletes rows older than maxAge and reports how many were removed.
func (r *ResultCache) Prune(ctx context.Context) (int64, error) {
	if r.maxAge <= 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, deleteStale, r.now().Add(-r.maxAge).UTC())
	if err != nil {
		return 0, errors.Wrap(err, "prune results")
	}
	return tag.RowsAffected(), nil
}

func encodeBlob(products []product.Product) ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	product.EncodeList(e, products)

	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	if _, err := zw.Write(e.Bytes()); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "close compressor")
	}
	return buf.Bytes(), nil
}

func decodeBlob(blob []byte) ([]product.Product, error) {
	zr, err := pgzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, errors.Wrap(err, "open decompressor")
	}
	defer func() {
		_ = zr.Close()
	}()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}
	return product.DecodeList(raw)
}

// RunPruner prunes stale rows every interval until ctx is cancelled. It
// returns at once when interval or the cache's max age is not positive.
func (r *ResultCache) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 || r.maxAge <= 0 {
		return
	}
	lg := zctx.From(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := r.Prune(ctx)
			if err != nil {
				lg.Warn("Prune search results failed", zap.Error(err))
				continue
			}
			if n > 0 {
				lg.Info("Pruned stale search results", zap.Int64("rows", n))
			}
		}
	}
}
