package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"SwingScan/internal/domain/models"
	"SwingScan/internal/domain/repository"
	"SwingScan/pkg/config"
	"SwingScan/pkg/logger"

	"github.com/gorilla/websocket"
)

// SeriesStore holds warm candle series per symbol and timeframe, fed by
// the kline stream. Reads return copies.
type SeriesStore struct {
	mu       sync.RWMutex
	capacity int
	series   map[string]*models.CandleSeries
}

func NewSeriesStore(capacity int) *SeriesStore {
	return &SeriesStore{capacity: capacity, series: make(map[string]*models.CandleSeries)}
}

func seriesKey(symbol string, tf repository.Timeframe) string {
	return symbol + "|" + string(tf)
}

// Put appends a closed candle to the symbol's series.
func (s *SeriesStore) Put(symbol string, tf repository.Timeframe, c models.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seriesKey(symbol, tf)
	ser, ok := s.series[key]
	if !ok {
		ser = models.NewCandleSeries(s.capacity)
		s.series[key] = ser
	}
	return ser.Append(c)
}

// Window returns the newest count clean candles, nil when the series is
// cold or shorter than count.
func (s *SeriesStore) Window(symbol string, tf repository.Timeframe, count int) []models.Candle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ser, ok := s.series[seriesKey(symbol, tf)]
	if !ok || ser.Len() < count {
		return nil
	}
	return ser.CleanWindow(count)
}

// Stream consumes the Binance kline websocket and feeds closed bars into
// a SeriesStore. Reconnects with a fixed delay until ctx is canceled.
type Stream struct {
	cfg     *config.Config
	store   *SeriesStore
	symbols []string
	tfs     []repository.Timeframe
	log     *logger.Logger
}

func NewStream(cfg *config.Config, store *SeriesStore, symbols []string, tfs []repository.Timeframe, log *logger.Logger) *Stream {
	return &Stream{cfg: cfg, store: store, symbols: symbols, tfs: tfs, log: log}
}

// Run connects, subscribes, and pumps klines until ctx is canceled.
func (s *Stream) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.connectAndPump(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("kline stream dropped, reconnecting",
				logger.Error(err),
				logger.Duration("delay", s.cfg.Binance.ReconnectDelay))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.Binance.ReconnectDelay):
		}
	}
}

func (s *Stream) connectAndPump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.Binance.WSBaseURL, nil)
	if err != nil {
		return fmt.Errorf("kline stream connect: %w", err)
	}
	defer conn.Close()

	if err := s.subscribe(conn); err != nil {
		return err
	}
	s.log.Info("kline stream connected",
		logger.Int("symbols", len(s.symbols)),
		logger.Int("timeframes", len(s.tfs)))

	// The ping loop owns this connection's writes after subscribe; it is
	// handed the conn directly so a lingering loop from a previous
	// connection can never write to the new one.
	pingCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.pingLoop(pingCtx, conn)

	for {
		if ctx.Err() != nil {
			return nil
		}
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("kline stream read: %w", err)
		}
		s.handleMessage(b)
	}
}

func (s *Stream) subscribe(conn *websocket.Conn) error {
	params := make([]string, 0, len(s.symbols)*len(s.tfs))
	for _, sym := range s.symbols {
		for _, tf := range s.tfs {
			params = append(params, fmt.Sprintf("%s@kline_%s", strings.ToLower(sym), tf))
		}
	}
	msg := map[string]interface{}{"method": "SUBSCRIBE", "params": params, "id": 1}
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("kline subscribe: %w", err)
	}
	return nil
}

// pingLoop keeps its connection alive and tears it down when the
// context ends, which also unblocks the read pump during shutdown.
func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.cfg.Binance.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			_ = conn.WriteMessage(websocket.PingMessage, nil)
		}
	}
}

type klinePayload struct {
	OpenTime int64  `json:"t"`
	Interval string `json:"i"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Closed   bool   `json:"x"`
}

type klineEvent struct {
	Event  string       `json:"e"`
	Symbol string       `json:"s"`
	Kline  klinePayload `json:"k"`
}

func (s *Stream) handleMessage(b []byte) {
	var ev klineEvent
	if err := json.Unmarshal(b, &ev); err != nil || ev.Event != "kline" {
		return // subscription acks and other frames
	}
	if !ev.Kline.Closed {
		return
	}
	candle, err := candleFromPayload(ev.Kline)
	if err != nil {
		s.log.Warn("malformed kline frame", logger.String("symbol", ev.Symbol), logger.Error(err))
		return
	}
	tf := repository.Timeframe(ev.Kline.Interval)
	if !repository.IsValidTimeframe(tf) {
		return
	}
	if err := s.store.Put(ev.Symbol, tf, candle); err != nil {
		s.log.Warn("kline rejected by series",
			logger.String("symbol", ev.Symbol),
			logger.String("timeframe", string(tf)),
			logger.Error(err))
	}
}

func candleFromPayload(k klinePayload) (models.Candle, error) {
	vals := make([]float64, 5)
	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("parse kline field: %w", err)
		}
		vals[i] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

// StreamingProvider serves candle windows from the warm stream store and
// falls back to the REST client when the store cannot fill the request.
type StreamingProvider struct {
	store *SeriesStore
	rest  repository.CandleProvider
}

func NewStreamingProvider(store *SeriesStore, rest repository.CandleProvider) *StreamingProvider {
	return &StreamingProvider{store: store, rest: rest}
}

var _ repository.CandleProvider = (*StreamingProvider)(nil)

func (p *StreamingProvider) GetCandles(ctx context.Context, symbol string, tf repository.Timeframe, count int) ([]models.Candle, error) {
	if w := p.store.Window(symbol, tf, count); w != nil {
		return w, nil
	}
	return p.rest.GetCandles(ctx, symbol, tf, count)
}
