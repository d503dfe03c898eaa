// Package market implements the Market-Data Accessor (C2): a tiered read
// path (stream -> cache -> origin -> synthetic) for (venue, pair,
// timeframe) price series, relied on by upstream detectors and the AI
// Enrichment Coordinator.
package market

import "time"

// Point is one OHLC-adjacent sample in a PriceSeries.
type Point struct {
	TSMillis int64   `json:"ts_ms"`
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
	Venue    string  `json:"venue"`
	Pair     string  `json:"pair"`
}

// PriceSeries is an ordered run of Points for one (venue, pair, timeframe).
// Invariant: Points are strictly increasing by TSMillis, and every Point
// carries the series' own Venue.
type PriceSeries struct {
	Pair        string    `json:"pair"`
	Venue       string    `json:"venue"`
	Timeframe   string    `json:"timeframe"`
	Points      []Point   `json:"points"`
	LastUpdated time.Time `json:"last_updated"`
}

// Validate checks the strictly-increasing-timestamps and consistent-venue
// invariants, and rejects a zero-point series (never an empty success, per
// the parsing invariants).
func (s PriceSeries) Validate() error {
	if len(s.Points) == 0 {
		return errParseEmptySeries
	}
	prev := int64(-1)
	for _, p := range s.Points {
		if p.TSMillis <= prev {
			return errParseNonMonotonic
		}
		if p.Venue != s.Venue {
			return errParseVenueMismatch
		}
		prev = p.TSMillis
	}
	return nil
}
