package binance

import (
	"encoding/json"
	"testing"
	"time"
)

func rawKline(t *testing.T, body string) []json.RawMessage {
	t.Helper()
	var k []json.RawMessage
	if err := json.Unmarshal([]byte(body), &k); err != nil {
		t.Fatalf("unmarshal kline: %v", err)
	}
	return k
}

func TestParseKline(t *testing.T) {
	k := rawKline(t, `[1735689600000, "100.5", "102.2", "99.8", "101.7", "1234.56", 1735693199999]`)
	candle, closeTime, err := parseKline(k)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !candle.OpenTime.Equal(time.UnixMilli(1735689600000).UTC()) {
		t.Fatalf("open time %v", candle.OpenTime)
	}
	if candle.Open != 100.5 || candle.High != 102.2 || candle.Low != 99.8 || candle.Close != 101.7 {
		t.Fatalf("unexpected OHLC %+v", candle)
	}
	if candle.Volume != 1234.56 {
		t.Fatalf("volume %v", candle.Volume)
	}
	if !closeTime.Equal(time.UnixMilli(1735693199999).UTC()) {
		t.Fatalf("close time %v", closeTime)
	}
}

func TestParseKlineShortEntry(t *testing.T) {
	k := rawKline(t, `[1735689600000, "100.5", "102.2"]`)
	if _, _, err := parseKline(k); err == nil {
		t.Fatalf("expected error for short entry")
	}
}

func TestParseKlineBadNumber(t *testing.T) {
	k := rawKline(t, `[1735689600000, "not-a-price", "102.2", "99.8", "101.7", "1234.56", 1735693199999]`)
	if _, _, err := parseKline(k); err == nil {
		t.Fatalf("expected error for bad price")
	}
}
