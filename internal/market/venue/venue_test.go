package venue

import "testing"

func TestBinance_ParseKlinesStrictlyIncreasing(t *testing.T) {
	body := []byte(`[
		[1000, "100.0", "101.0", "99.0", "100.5", "10.0", 1999],
		[2000, "100.5", "102.0", "100.0", "101.5", "12.0", 2999]
	]`)

	candles, err := Binance{}.Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].TSMillis >= candles[1].TSMillis {
		t.Error("expected candles in increasing ts order")
	}
}

func TestBinance_ParseEmptyArrayYieldsParseError(t *testing.T) {
	_, err := Binance{}.Parse([]byte(`[]`))
	if err == nil {
		t.Fatal("expected an error for zero parsed points")
	}
}

func TestBybit_ParseReversesNewestFirstList(t *testing.T) {
	body := []byte(`{"result":{"list":[
		["2000","100.5","102","100","101.5","12","0"],
		["1000","100","101","99","100.5","10","0"]
	]}}`)

	candles, err := Bybit{}.Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if candles[0].TSMillis != 1000 || candles[1].TSMillis != 2000 {
		t.Errorf("expected candles re-ordered to increasing ts, got %+v", candles)
	}
}

func TestOKX_ParseReversesNewestFirstList(t *testing.T) {
	body := []byte(`{"data":[
		["2000","100.5","102","100","101.5","12"],
		["1000","100","101","99","100.5","10"]
	]}`)

	candles, err := OKX{}.Parse(body)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if candles[0].TSMillis != 1000 || candles[1].TSMillis != 2000 {
		t.Errorf("expected candles re-ordered to increasing ts, got %+v", candles)
	}
}

func TestBuildRequest_UnsupportedTimeframeIsValidationError(t *testing.T) {
	_, err := Binance{}.BuildRequest("https://api.binance.com", "BTCUSDT", "3w")
	if err == nil {
		t.Fatal("expected an error for an unsupported timeframe")
	}
}
