package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/pkg/config"
	"SwingScan/pkg/logger"

	"github.com/gorilla/websocket"
)

func TestCandleFromPayload(t *testing.T) {
	c, err := candleFromPayload(klinePayload{
		OpenTime: 1735689600000,
		Open:     "100", High: "101", Low: "99", Close: "100.5", Volume: "42.5",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Close != 100.5 || c.Volume != 42.5 {
		t.Fatalf("unexpected candle %+v", c)
	}
	if _, err := candleFromPayload(klinePayload{Open: "x"}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSeriesStoreWindow(t *testing.T) {
	store := NewSeriesStore(10)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c := models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 101, Low: 99, Close: 100.5, Volume: 10,
		}
		if err := store.Put("BTCUSDT", repository.TF1h, c); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	if w := store.Window("BTCUSDT", repository.TF1h, 3); len(w) != 3 {
		t.Fatalf("warm window length %d", len(w))
	}
	// Colder than requested: the store refuses rather than serving a
	// partial window.
	if w := store.Window("BTCUSDT", repository.TF1h, 5); w != nil {
		t.Fatalf("short series must return nil")
	}
	if w := store.Window("ETHUSDT", repository.TF1h, 1); w != nil {
		t.Fatalf("unknown symbol must return nil")
	}
}

func TestStreamHandleMessage(t *testing.T) {
	store := NewSeriesStore(10)
	s := &Stream{store: store, log: logger.Nop()}

	closed := `{"e":"kline","s":"BTCUSDT","k":{"t":1735689600000,"i":"1h","o":"100","h":"101","l":"99","c":"100.5","v":"42","x":true}}`
	s.handleMessage([]byte(closed))
	if w := store.Window("BTCUSDT", repository.TF1h, 1); len(w) != 1 || w[0].Close != 100.5 {
		t.Fatalf("closed kline not stored: %+v", w)
	}

	// Still-forming bars and non-kline frames are ignored.
	open := `{"e":"kline","s":"BTCUSDT","k":{"t":1735693200000,"i":"1h","o":"100","h":"101","l":"99","c":"100.7","v":"10","x":false}}`
	s.handleMessage([]byte(open))
	ack := `{"result":null,"id":1}`
	s.handleMessage([]byte(ack))
	if w := store.Window("BTCUSDT", repository.TF1h, 1); w[0].Close != 100.5 {
		t.Fatalf("open kline must not replace the stored bar")
	}
}

func TestStreamRunFeedsStore(t *testing.T) {
	upgrader := websocket.Upgrader{}
	kline := `{"e":"kline","s":"BTCUSDT","k":{"t":1735689600000,"i":"1h","o":"100","h":"101","l":"99","c":"100.5","v":"42","x":true}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		var sub map[string]interface{}
		if err := c.ReadJSON(&sub); err != nil {
			return
		}
		if sub["method"] != "SUBSCRIBE" {
			t.Errorf("unexpected first frame %v", sub)
			return
		}
		if err := c.WriteMessage(websocket.TextMessage, []byte(kline)); err != nil {
			return
		}
		// Hold the connection until the client tears it down.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Binance.WSBaseURL = "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg.Binance.ReconnectDelay = 10 * time.Millisecond
	cfg.Binance.PingInterval = 5 * time.Millisecond

	store := NewSeriesStore(10)
	s := NewStream(cfg, store, []string{"BTCUSDT"}, []repository.Timeframe{repository.TF1h}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for store.Window("BTCUSDT", repository.TF1h, 1) == nil {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("kline never reached the store")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("stream did not stop on cancel")
	}

	if w := store.Window("BTCUSDT", repository.TF1h, 1); len(w) != 1 || w[0].Close != 100.5 {
		t.Fatalf("unexpected stored window %+v", w)
	}
}

type stubProvider struct {
	candles []models.Candle
	err     error
	calls   int
}

func (s *stubProvider) GetCandles(context.Context, string, repository.Timeframe, int) ([]models.Candle, error) {
	s.calls++
	return s.candles, s.err
}

func TestStreamingProviderFallback(t *testing.T) {
	store := NewSeriesStore(10)
	rest := &stubProvider{err: models.ErrDataUnavailable}
	p := NewStreamingProvider(store, rest)

	// Cold store falls through to REST.
	_, err := p.GetCandles(context.Background(), "BTCUSDT", repository.TF1h, 2)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected REST error, got %v", err)
	}
	if rest.calls != 1 {
		t.Fatalf("REST not consulted on cold store")
	}

	// Warm store serves without touching REST.
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		_ = store.Put("BTCUSDT", repository.TF1h, models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 101, Low: 99, Close: 100.5, Volume: 10,
		})
	}
	w, err := p.GetCandles(context.Background(), "BTCUSDT", repository.TF1h, 2)
	if err != nil || len(w) != 2 {
		t.Fatalf("warm window: %v %d", err, len(w))
	}
	if rest.calls != 1 {
		t.Fatalf("REST consulted despite warm store")
	}
}
