package models

import (
	"fmt"
	"time"
)

// Candle is one closed OHLCV bar. OpenTime identifies the bar within
// its timeframe.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Valid checks basic OHLC consistency. Volume may be zero on quiet bars.
func (c Candle) Valid() bool {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return false
	}
	if c.Volume < 0 {
		return false
	}
	if c.High < c.Low {
		return false
	}
	if c.Open > c.High || c.Close > c.High || c.Open < c.Low || c.Close < c.Low {
		return false
	}
	return true
}

func (c Candle) IsBullish() bool { return c.Close > c.Open }
func (c Candle) IsBearish() bool { return c.Close < c.Open }

// BodySize is the absolute open-to-close distance.
func (c Candle) BodySize() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// TotalRange is the high-to-low distance.
func (c Candle) TotalRange() float64 { return c.High - c.Low }

// BodyRatio is body size over total range, 0 for a degenerate bar.
func (c Candle) BodyRatio() float64 {
	tr := c.TotalRange()
	if tr <= 0 {
		return 0
	}
	return c.BodySize() / tr
}

// UpperWickRatio is the upper wick over total range.
func (c Candle) UpperWickRatio() float64 {
	tr := c.TotalRange()
	if tr <= 0 {
		return 0
	}
	top := c.Close
	if c.Open > c.Close {
		top = c.Open
	}
	return (c.High - top) / tr
}

// LowerWickRatio is the lower wick over total range.
func (c Candle) LowerWickRatio() float64 {
	tr := c.TotalRange()
	if tr <= 0 {
		return 0
	}
	bottom := c.Close
	if c.Open < c.Close {
		bottom = c.Open
	}
	return (bottom - c.Low) / tr
}

// CandleSeries is a bounded, time-ordered run of closed candles for one
// symbol and timeframe. Appends with a repeated OpenTime replace the most
// recent bar; out-of-order appends are rejected.
type CandleSeries struct {
	capacity int
	candles  []Candle
}

// NewCandleSeries creates a series that retains at most capacity bars.
func NewCandleSeries(capacity int) *CandleSeries {
	if capacity < 1 {
		capacity = 1
	}
	return &CandleSeries{capacity: capacity, candles: make([]Candle, 0, capacity)}
}

// Append adds a candle, evicting the oldest bar once capacity is reached.
// A candle whose OpenTime equals the last bar's replaces it.
func (s *CandleSeries) Append(c Candle) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %+v", ErrInvalidCandle, c)
	}
	if n := len(s.candles); n > 0 {
		last := s.candles[n-1]
		if c.OpenTime.Equal(last.OpenTime) {
			s.candles[n-1] = c
			return nil
		}
		if c.OpenTime.Before(last.OpenTime) {
			return fmt.Errorf("%w: out of order at %s", ErrInvalidCandle, c.OpenTime)
		}
	}
	s.candles = append(s.candles, c)
	if len(s.candles) > s.capacity {
		s.candles = s.candles[len(s.candles)-s.capacity:]
	}
	return nil
}

// Len reports the number of retained bars.
func (s *CandleSeries) Len() int { return len(s.candles) }

// Last returns the most recent bar.
func (s *CandleSeries) Last() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Window returns a copy of the newest count bars, fewer when the series
// is shorter.
func (s *CandleSeries) Window(count int) []Candle {
	if count <= 0 || len(s.candles) == 0 {
		return nil
	}
	if count > len(s.candles) {
		count = len(s.candles)
	}
	out := make([]Candle, count)
	copy(out, s.candles[len(s.candles)-count:])
	return out
}

// CleanWindow returns the newest count bars only when every bar in the
// slice is valid; otherwise nil.
func (s *CandleSeries) CleanWindow(count int) []Candle {
	w := s.Window(count)
	for _, c := range w {
		if !c.Valid() {
			return nil
		}
	}
	return w
}
