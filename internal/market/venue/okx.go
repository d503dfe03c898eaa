package venue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/arbedge/arbedge-core/internal/apperrors"
)

// OKX implements Adapter for OKX's public candles endpoint.
// Response shape: {"data": [[ts, o, h, l, c, vol, volCcy, ...], ...]},
// sorted newest-first.
type OKX struct{}

func (OKX) Name() string { return "okx" }

var okxBars = map[string]string{
	"1m": "1m", "5m": "5m", "15m": "15m", "1h": "1H", "4h": "4H", "1d": "1D",
}

func (OKX) BuildRequest(baseURL, pair, timeframe string) (*http.Request, error) {
	bar, ok := okxBars[timeframe]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindValidation, "okx: unsupported timeframe %q", timeframe)
	}
	url := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=300", baseURL, pair, bar)
	return http.NewRequest(http.MethodGet, url, nil)
}

type okxResponse struct {
	Data [][]string `json:"data"`
}

func (o OKX) Parse(body []byte) ([]Candle, error) {
	var resp okxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.Wrap(apperrors.KindParse, err, "okx: decode candles response")
	}

	points := make([]Candle, 0, len(resp.Data))
	for _, row := range resp.Data {
		if len(row) < 6 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
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
		points = append(points, Candle{TSMillis: ts, Price: closePrice, Volume: volume})
	}
	if len(points) == 0 {
		return nil, apperrors.New(apperrors.KindParse, "okx: zero parsed points")
	}

	reversePoints(points)
	return points, nil
}
