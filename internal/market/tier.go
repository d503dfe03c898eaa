package market

import "context"

// Tier is one stage of the tiered read path: Stream, Cache, Origin, or
// Synthetic. Fetch returns apperrors-tagged errors; a miss (no data at this
// tier) is reported via the ok=false return, not an error.
type Tier interface {
	Fetch(ctx context.Context, venue, pair, timeframe string) (series PriceSeries, ok bool, err error)
}
