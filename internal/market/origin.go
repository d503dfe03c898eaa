package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/market/venue"
)

// OriginTier issues the public klines/candles HTTP call for a single venue
// and parses the response through that venue's Adapter. httpClient is
// expected to be wrapped with client.Wrapper for rate limiting, circuit
// breaking, and budget accounting (per the teacher's provider-client
// composition pattern) by the caller that constructs it.
type OriginTier struct {
	adapter    venue.Adapter
	baseURL    string
	httpClient *http.Client
}

// NewOriginTier builds an OriginTier for one venue adapter.
func NewOriginTier(adapter venue.Adapter, baseURL string, httpClient *http.Client) *OriginTier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OriginTier{adapter: adapter, baseURL: baseURL, httpClient: httpClient}
}

func (t *OriginTier) Fetch(ctx context.Context, reqVenue, pair, timeframe string) (PriceSeries, bool, error) {
	if reqVenue != t.adapter.Name() {
		return PriceSeries{}, false, nil
	}

	req, err := t.adapter.BuildRequest(t.baseURL, pair, timeframe)
	if err != nil {
		return PriceSeries{}, false, err
	}
	req = req.WithContext(ctx)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return PriceSeries{}, false, apperrors.Wrap(apperrors.KindNetwork, err, fmt.Sprintf("%s origin request failed", t.adapter.Name()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PriceSeries{}, false, apperrors.Wrap(apperrors.KindNetwork, err, "read origin response body")
	}

	if resp.StatusCode >= 300 {
		return PriceSeries{}, false, apperrors.Newf(apperrors.KindAPI, "%s origin returned HTTP %d: %s", t.adapter.Name(), resp.StatusCode, truncate(body, 256))
	}

	candles, err := t.adapter.Parse(body)
	if err != nil {
		return PriceSeries{}, false, err
	}

	points := make([]Point, len(candles))
	for i, c := range candles {
		points[i] = Point{TSMillis: c.TSMillis, Price: c.Price, Volume: c.Volume, Venue: t.adapter.Name(), Pair: pair}
	}

	series := PriceSeries{
		Pair:        pair,
		Venue:       t.adapter.Name(),
		Timeframe:   timeframe,
		Points:      points,
		LastUpdated: time.Now().UTC(),
	}
	if err := series.Validate(); err != nil {
		return PriceSeries{}, false, err
	}
	return series, true, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
