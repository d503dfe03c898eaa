package market

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

// Accessor probes tiers in order - Stream, Cache, Origin(s), Synthetic -
// and returns the first success, write-through caching any tier-3-or-later
// success. A cache-write failure is logged and does not fail the request.
type Accessor struct {
	stream     Tier
	cache      *CacheTier
	origins    []Tier // one per venue; only origins whose venue matches are consulted
	synthetic  Tier
	log        zerolog.Logger
}

// NewAccessor wires the four tiers. origins should contain one OriginTier
// per supported venue.
func NewAccessor(stream Tier, cache *CacheTier, origins []Tier, synthetic Tier, log zerolog.Logger) *Accessor {
	return &Accessor{
		stream:    stream,
		cache:     cache,
		origins:   origins,
		synthetic: synthetic,
		log:       log.With().Str("component", "market_accessor").Logger(),
	}
}

// GetSeries returns the (venue, pair, timeframe) series from the first tier
// that has it, write-through caching origin/synthetic successes.
func (a *Accessor) GetSeries(ctx context.Context, venue, pair, timeframe string) (PriceSeries, error) {
	if series, ok, err := a.tryTier(ctx, a.stream, venue, pair, timeframe); err != nil {
		return PriceSeries{}, err
	} else if ok {
		return series, nil
	}

	if series, ok, err := a.tryTier(ctx, a.cache, venue, pair, timeframe); err != nil {
		return PriceSeries{}, err
	} else if ok {
		return series, nil
	}

	for _, origin := range a.origins {
		series, ok, err := a.tryTier(ctx, origin, venue, pair, timeframe)
		if err != nil {
			// Per error-propagation rules, Network/Api/Parse from one
			// venue adapter do not abort the whole accessor: keep probing
			// remaining origins, then fall through to synthetic.
			a.log.Warn().Err(err).Str("venue", venue).Msg("origin tier failed, continuing")
			continue
		}
		if ok {
			a.writeThrough(ctx, venue, pair, series)
			return series, nil
		}
	}

	if a.synthetic != nil {
		series, ok, err := a.tryTier(ctx, a.synthetic, venue, pair, timeframe)
		if err != nil {
			return PriceSeries{}, err
		}
		if ok {
			a.writeThrough(ctx, venue, pair, series)
			return series, nil
		}
	}

	return PriceSeries{}, apperrors.Newf(apperrors.KindNotFound, "no tier produced a series for %s/%s/%s", venue, pair, timeframe)
}

func (a *Accessor) tryTier(ctx context.Context, tier Tier, venue, pair, timeframe string) (PriceSeries, bool, error) {
	if tier == nil {
		return PriceSeries{}, false, nil
	}
	return tier.Fetch(ctx, venue, pair, timeframe)
}

func (a *Accessor) writeThrough(ctx context.Context, venue, pair string, series PriceSeries) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Put(ctx, venue, pair, series); err != nil {
		a.log.Warn().Err(err).Str("venue", venue).Str("pair", pair).Msg("cache write-through failed, continuing")
	}
}
