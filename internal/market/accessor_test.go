package market

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arbedge/arbedge-core/internal/apperrors"
	"github.com/arbedge/arbedge-core/internal/kv"
)

func TestPriceSeriesValidate_RejectsEmptySeries(t *testing.T) {
	err := PriceSeries{Venue: "binance", Points: nil}.Validate()
	kind, ok := apperrors.KindOf(err)
	if !ok || kind != apperrors.KindParse {
		t.Fatalf("expected KindParse for empty series, got %v", err)
	}
}

func TestPriceSeriesValidate_RejectsNonMonotonicPoints(t *testing.T) {
	series := PriceSeries{
		Venue: "binance",
		Points: []Point{
			{TSMillis: 100, Venue: "binance"},
			{TSMillis: 50, Venue: "binance"},
		},
	}
	if err := series.Validate(); err == nil {
		t.Fatal("expected an error for non-increasing timestamps")
	}
}

func TestAccessor_StreamTierWinsFirst(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	stream := NewStreamTier(store)
	cache := NewCacheTier(store)

	series := PriceSeries{
		Venue: "binance", Pair: "BTCUSDT", Timeframe: "1h",
		Points: []Point{{TSMillis: 1, Price: 100, Venue: "binance", Pair: "BTCUSDT"}},
	}
	raw, _ := marshalForTest(series)
	if err := store.Set(ctx, "stream/market/binance/BTCUSDT", raw, 0); err != nil {
		t.Fatal(err)
	}

	accessor := NewAccessor(stream, cache, nil, nil, zerolog.Nop())
	got, err := accessor.GetSeries(ctx, "binance", "BTCUSDT", "1h")
	if err != nil {
		t.Fatalf("GetSeries failed: %v", err)
	}
	if len(got.Points) != 1 || got.Points[0].Price != 100 {
		t.Errorf("expected the stream-tier series to win, got %+v", got)
	}
}

func TestAccessor_SyntheticGatedByFlag(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	disallowed := NewSyntheticTier(false, 5)
	accessor := NewAccessor(NewStreamTier(store), NewCacheTier(store), nil, disallowed, zerolog.Nop())
	_, err := accessor.GetSeries(ctx, "binance", "BTCUSDT", "1h")
	if err == nil {
		t.Fatal("expected a not-found error when synthetic is disallowed and no other tier has data")
	}

	allowed := NewSyntheticTier(true, 5)
	accessor = NewAccessor(NewStreamTier(store), NewCacheTier(store), nil, allowed, zerolog.Nop())
	series, err := accessor.GetSeries(ctx, "binance", "BTCUSDT", "1h")
	if err != nil {
		t.Fatalf("expected synthetic tier to produce a series, got %v", err)
	}
	if len(series.Points) != 5 {
		t.Errorf("expected 5 synthetic points, got %d", len(series.Points))
	}
}

func TestSyntheticTier_Deterministic(t *testing.T) {
	a := NewSyntheticTier(true, 10)
	b := NewSyntheticTier(true, 10)

	ctx := context.Background()
	seriesA, _, _ := a.Fetch(ctx, "okx", "ETHUSDT", "1h")
	seriesB, _, _ := b.Fetch(ctx, "okx", "ETHUSDT", "1h")

	if len(seriesA.Points) != len(seriesB.Points) {
		t.Fatal("expected identical point counts for the same seed")
	}
	for i := range seriesA.Points {
		if seriesA.Points[i].Price != seriesB.Points[i].Price {
			t.Errorf("expected deterministic prices at index %d: %v vs %v", i, seriesA.Points[i].Price, seriesB.Points[i].Price)
		}
	}
}

func marshalForTest(s PriceSeries) ([]byte, error) {
	s.LastUpdated = time.Now().UTC()
	return json.Marshal(s)
}
