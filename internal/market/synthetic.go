package market

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"
)

// SyntheticTier produces a deterministic mock series seeded by
// (venue, pair, timeframe). It is gated by AllowSynthetic and must never be
// consulted implicitly - per Design Note (c), the source's unconditional
// "mock base price" fallback is deliberately not carried forward.
type SyntheticTier struct {
	allowed bool
	points  int
}

// NewSyntheticTier creates a SyntheticTier. allowed must come from boot-time
// configuration, never a runtime environment check.
func NewSyntheticTier(allowed bool, points int) *SyntheticTier {
	if points <= 0 {
		points = 24
	}
	return &SyntheticTier{allowed: allowed, points: points}
}

func (t *SyntheticTier) Fetch(_ context.Context, venue, pair, timeframe string) (PriceSeries, bool, error) {
	if !t.allowed {
		return PriceSeries{}, false, nil
	}

	basePrice := seededBasePrice(venue, pair)
	interval := timeframeToMillis(timeframe)
	now := time.Now().UTC()
	startMs := now.UnixMilli() - int64(t.points)*interval

	points := make([]Point, t.points)
	price := basePrice
	for i := 0; i < t.points; i++ {
		// Deterministic, bounded pseudo-walk derived from the seed, so the
		// same (venue, pair, timeframe, index) always yields the same
		// point - useful for development and tests, never for production
		// decisioning.
		drift := float64(int64(fnvHash(venue, pair, timeframe, i)%2001)-1000) / 100000.0
		price = price * (1 + drift)
		points[i] = Point{
			TSMillis: startMs + int64(i)*interval,
			Price:    price,
			Volume:   1.0,
			Venue:    venue,
			Pair:     pair,
		}
	}

	return PriceSeries{
		Pair:        pair,
		Venue:       venue,
		Timeframe:   timeframe,
		Points:      points,
		LastUpdated: now,
	}, true, nil
}

func seededBasePrice(venue, pair string) float64 {
	h := fnvHash(venue, pair, "base", 0)
	// Map the hash into a plausible price range [1, 100000].
	return 1 + float64(h%100000)
}

func timeframeToMillis(timeframe string) int64 {
	switch timeframe {
	case "1m":
		return 60_000
	case "5m":
		return 5 * 60_000
	case "15m":
		return 15 * 60_000
	case "1h":
		return 3_600_000
	case "4h":
		return 4 * 3_600_000
	case "1d":
		return 24 * 3_600_000
	default:
		return 3_600_000
	}
}

func fnvHash(parts ...interface{}) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(toHashBytes(p)))
	}
	return h.Sum64()
}

func toHashBytes(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}
