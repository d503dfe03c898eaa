package market

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/kv"
)

// CacheTTL is the warm-cache tier's TTL, per §4.2.
const CacheTTL = 300 * time.Second

// StreamTier reads the latest precomputed series published by upstream
// ingestion at stream/market/{venue}/{pair}. It never writes.
type StreamTier struct {
	store kv.Store
}

// NewStreamTier wraps store for the stream/ keyspace.
func NewStreamTier(store kv.Store) *StreamTier { return &StreamTier{store: store} }

func streamKey(venue, pair string) string { return fmt.Sprintf("stream/market/%s/%s", venue, pair) }

func (t *StreamTier) Fetch(ctx context.Context, venue, pair, _ string) (PriceSeries, bool, error) {
	return getSeries(ctx, t.store, streamKey(venue, pair))
}

// CacheTier reads/writes serialized series at cache/market/{venue}/{pair},
// TTL = CacheTTL. Cache-write failures are logged and ignored by callers
// per the market-data tier's open-question decision (log-and-continue).
type CacheTier struct {
	store kv.Store
}

// NewCacheTier wraps store for the cache/market/ keyspace.
func NewCacheTier(store kv.Store) *CacheTier { return &CacheTier{store: store} }

func cacheKey(venue, pair string) string { return fmt.Sprintf("cache/market/%s/%s", venue, pair) }

func (t *CacheTier) Fetch(ctx context.Context, venue, pair, _ string) (PriceSeries, bool, error) {
	return getSeries(ctx, t.store, cacheKey(venue, pair))
}

// Put write-through caches series. Errors are returned to the caller, who
// per §4.2 must not fail the overall request on a cache-write failure.
func (t *CacheTier) Put(ctx context.Context, venue, pair string, series PriceSeries) error {
	raw, err := json.Marshal(series)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "marshal price series")
	}
	if err := t.store.Set(ctx, cacheKey(venue, pair), raw, CacheTTL); err != nil {
		return apperrors.Wrap(apperrors.KindStorage, err, "put cached price series")
	}
	return nil
}

func getSeries(ctx context.Context, store kv.Store, key string) (PriceSeries, bool, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return PriceSeries{}, false, apperrors.Wrap(apperrors.KindStorage, err, "get price series")
	}
	if !found {
		return PriceSeries{}, false, nil
	}
	var series PriceSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return PriceSeries{}, false, apperrors.Wrap(apperrors.KindInternal, err, "unmarshal price series")
	}
	return series, true, nil
}
