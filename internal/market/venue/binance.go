package venue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

// Binance implements Adapter for Binance's public klines endpoint.
// Response shape: an array of arrays,
// [openTime, open, high, low, close, volume, closeTime, ...].
type Binance struct{}

func (Binance) Name() string { return "binance" }

var binanceIntervals = map[string]string{
	"1m": "1m", "5m": "5m", "15m": "15m", "1h": "1h", "4h": "4h", "1d": "1d",
}

func (Binance) BuildRequest(baseURL, pair, timeframe string) (*http.Request, error) {
	interval, ok := binanceIntervals[timeframe]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "binance: unsupported timeframe %q", timeframe)
	}
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=500", baseURL, pair, interval)
	return http.NewRequest(http.MethodGet, url, nil)
}

func (b Binance) Parse(body []byte) ([]Candle, error) {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, "binance: decode klines array")
	}

	points := make([]Candle, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		closePrice, err := parseQuotedFloat(row[4])
		if err != nil {
			continue
		}
		volume, err := parseQuotedFloat(row[5])
		if err != nil {
			continue
		}
		points = append(points, Candle{
			TSMillis: openTime,
			Price:    closePrice,
			Volume:   volume,
		})
	}
	if len(points) == 0 {
		return nil, apperrors.New(apperrors.KindParse, "binance: zero parsed points")
	}
	return points, nil
}

func parseQuotedFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
