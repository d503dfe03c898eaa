package venue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

// Bybit implements Adapter for Bybit's public kline endpoint.
// Response shape: {"result": {"list": [[start, open, high, low, close,
// volume, turnover], ...]}} with list sorted newest-first.
type Bybit struct{}

func (Bybit) Name() string { return "bybit" }

var bybitIntervals = map[string]string{
	"1m": "1", "5m": "5", "15m": "15", "1h": "60", "4h": "240", "1d": "D",
}

func (Bybit) BuildRequest(baseURL, pair, timeframe string) (*http.Request, error) {
	interval, ok := bybitIntervals[timeframe]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "bybit: unsupported timeframe %q", timeframe)
	}
	url := fmt.Sprintf("%s/v5/market/kline?category=spot&symbol=%s&interval=%s&limit=500", baseURL, pair, interval)
	return http.NewRequest(http.MethodGet, url, nil)
}

type bybitResponse struct {
	Result struct {
		List [][]string `json:"list"`
	} `json:"result"`
}

func (b Bybit) Parse(body []byte) ([]Candle, error) {
	var resp bybitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, "bybit: decode kline response")
	}

	points := make([]Candle, 0, len(resp.Result.List))
	for _, row := range resp.Result.List {
		if len(row) < 6 {
			continue
		}
		start, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		volume, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			continue
		}
		points = append(points, Candle{TSMillis: start, Price: closePrice, Volume: volume})
	}
	if len(points) == 0 {
		return nil, apperrors.New(apperrors.KindParse, "bybit: zero parsed points")
	}

	// Bybit returns newest-first; the accessor requires strictly
	// increasing timestamps.
	reversePoints(points)
	return points, nil
}

func reversePoints(p []Candle) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
