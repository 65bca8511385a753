package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/internal/service/ratelimit"
	"SwingScan/pkg/config"
	xhttp "SwingScan/pkg/http"
	"SwingScan/pkg/logger"
)

const restLimiterKey = "binance:rest"

// Client fetches klines and the tradable universe from the Binance REST
// API. Implements CandleProvider and SymbolLister. All calls share a
// token-bucket limiter so scan bursts stay under the exchange budget.
type Client struct {
	cfg     *config.Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
}

func NewClient(cfg *config.Config, limiter *ratelimit.Limiter, log *logger.Logger) *Client {
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Binance.Timeout)),
		limiter: limiter,
		log:     log,
	}
}

var _ repository.CandleProvider = (*Client)(nil)
var _ repository.SymbolLister = (*Client)(nil)

// GetCandles returns up to count closed candles, oldest first. The
// still-forming bar is dropped. Transport and decode failures wrap
// models.ErrDataUnavailable so callers defer instead of aborting.
func (c *Client) GetCandles(ctx context.Context, symbol string, tf repository.Timeframe, count int) ([]models.Candle, error) {
	if count <= 0 {
		return nil, fmt.Errorf("candle count must be positive, got %d", count)
	}
	if err := c.limiter.Wait(ctx, restLimiterKey, c.cfg.Binance.MaxRPS, c.cfg.Binance.MaxRPS); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	// Request one extra bar so dropping the open one still fills count.
	var raw [][]json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.cfg.Binance.RESTBaseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {string(tf)},
			"limit":    {strconv.Itoa(count + 1)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("%w: klines %s %s: %v", models.ErrDataUnavailable, symbol, tf, err)
	}

	now := time.Now()
	out := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		candle, closeTime, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed kline for %s: %v", models.ErrDataUnavailable, symbol, err)
		}
		if closeTime.After(now) {
			continue // bar still forming
		}
		out = append(out, candle)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no closed klines for %s %s", models.ErrDataUnavailable, symbol, tf)
	}
	if len(out) > count {
		out = out[len(out)-count:]
	}
	return out, nil
}

// parseKline decodes one kline entry:
// [openTime, open, high, low, close, volume, closeTime, ...].
func parseKline(k []json.RawMessage) (models.Candle, time.Time, error) {
	if len(k) < 7 {
		return models.Candle{}, time.Time{}, fmt.Errorf("short kline entry: %d fields", len(k))
	}
	var openMs, closeMs int64
	if err := json.Unmarshal(k[0], &openMs); err != nil {
		return models.Candle{}, time.Time{}, fmt.Errorf("open time: %w", err)
	}
	if err := json.Unmarshal(k[6], &closeMs); err != nil {
		return models.Candle{}, time.Time{}, fmt.Errorf("close time: %w", err)
	}
	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(k[i], &s); err != nil {
			return models.Candle{}, time.Time{}, fmt.Errorf("field %d: %w", i, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, time.Time{}, fmt.Errorf("field %d: %w", i, err)
		}
		fields[i-1] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(openMs).UTC(),
		Open:     fields[0],
		High:     fields[1],
		Low:      fields[2],
		Close:    fields[3],
		Volume:   fields[4],
	}, time.UnixMilli(closeMs).UTC(), nil
}

type ticker24h struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
}

// ListSymbols returns USDT pairs passing the universe filters: 24h quote
// volume floor, price band, and excluded base assets (stablecoins).
func (c *Client) ListSymbols(ctx context.Context) ([]string, error) {
	if err := c.limiter.Wait(ctx, restLimiterKey, c.cfg.Binance.MaxRPS, c.cfg.Binance.MaxRPS); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var tickers []ticker24h
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.cfg.Binance.RESTBaseURL + "/api/v3/ticker/24hr",
	}, &tickers)
	if err != nil {
		return nil, fmt.Errorf("fetch 24h tickers: %w", err)
	}

	sc := c.cfg.Scanner
	excluded := make(map[string]struct{}, len(sc.ExcludedBases))
	for _, b := range sc.ExcludedBases {
		excluded[b] = struct{}{}
	}

	var out []string
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, "USDT") {
			continue
		}
		base := strings.TrimSuffix(t.Symbol, "USDT")
		if _, skip := excluded[base]; skip {
			continue
		}
		price, err1 := strconv.ParseFloat(t.LastPrice, 64)
		qv, err2 := strconv.ParseFloat(t.QuoteVolume, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if qv < sc.MinVolumeUSDT || price < sc.MinPrice || price > sc.MaxPrice {
			continue
		}
		out = append(out, t.Symbol)
	}
	c.log.Debug("universe filtered", logger.Int("symbols", len(out)))
	return out, nil
}
