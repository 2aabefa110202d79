// Package candle folds trade streams into fixed-interval OHLCV bars.
package candle

import (
	"time"

	"github.com/Urftt/stock-market-model/pkg/sim/orderbook"
)

// Candle is one OHLCV bar. Prices are ticks. A candle is mutable while it is
// the aggregator's active bar and immutable once rolled into history.
type Candle struct {
	StartTime  time.Time
	Open       int64
	High       int64
	Low        int64
	Close      int64
	Volume     int64
	TradeCount int
}

// Aggregator accumulates trades into the active candle and rolls it over
// when the configured interval of simulated time has elapsed. It is not
// safe for concurrent use; the engine serializes access.
type Aggregator struct {
	interval   time.Duration
	maxHistory int

	active  Candle
	history []Candle
}

// NewAggregator starts in the OPEN state with a flat candle seeded at the
// initial market price.
func NewAggregator(initialPrice int64, start time.Time, interval time.Duration, maxHistory int) *Aggregator {
	return &Aggregator{
		interval:   interval,
		maxHistory: maxHistory,
		active:     flatCandle(initialPrice, start),
	}
}

func flatCandle(price int64, start time.Time) Candle {
	return Candle{
		StartTime: start,
		Open:      price,
		High:      price,
		Low:       price,
		Close:     price,
	}
}

// OnTrades applies trades to the active candle in arrival order. The first
// trade a candle sees sets its open; high/low keep the seeded price in their
// running extrema; close always tracks the most recent trade.
func (a *Aggregator) OnTrades(trades []orderbook.Trade) {
	for _, t := range trades {
		if a.active.TradeCount == 0 {
			a.active.Open = t.Price
		}
		if t.Price > a.active.High {
			a.active.High = t.Price
		}
		if t.Price < a.active.Low {
			a.active.Low = t.Price
		}
		a.active.Close = t.Price
		a.active.Volume += t.Qty
		a.active.TradeCount++
	}
}

// OnTick rolls the active candle into history once its window has elapsed
// and opens a new one seeded at livePrice, the book's current price at the
// rollover instant. A candle with zero trades still rolls over on schedule.
// Returns the closed candle, or false if no rollover happened.
func (a *Aggregator) OnTick(now time.Time, livePrice int64) (Candle, bool) {
	if now.Sub(a.active.StartTime) < a.interval {
		return Candle{}, false
	}
	closed := a.active
	a.history = append(a.history, closed)
	if len(a.history) > a.maxHistory {
		a.history = a.history[len(a.history)-a.maxHistory:]
	}
	a.active = flatCandle(livePrice, now)
	return closed, true
}

// Active returns a copy of the candle currently accumulating.
func (a *Aggregator) Active() Candle {
	return a.active
}

// History returns a copy of the closed candles, oldest first.
func (a *Aggregator) History() []Candle {
	out := make([]Candle, len(a.history))
	copy(out, a.history)
	return out
}

// Len returns the number of closed candles held.
func (a *Aggregator) Len() int {
	return len(a.history)
}

// PriceRange returns the lowest low and highest high across closed candles,
// falling back to the active candle's range when history is empty.
func (a *Aggregator) PriceRange() (low, high int64) {
	if len(a.history) == 0 {
		return a.active.Low, a.active.High
	}
	low, high = a.history[0].Low, a.history[0].High
	for _, c := range a.history[1:] {
		if c.Low < low {
			low = c.Low
		}
		if c.High > high {
			high = c.High
		}
	}
	return low, high
}

// TotalVolume sums the volume of all closed candles.
func (a *Aggregator) TotalVolume() int64 {
	var total int64
	for _, c := range a.history {
		total += c.Volume
	}
	return total
}
