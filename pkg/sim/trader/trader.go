// Package trader implements the stochastic order-flow population. Realistic
// looking price action emerges from nothing more than this mix of random
// makers and takers.
package trader

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Urftt/stock-market-model/params"
	"github.com/Urftt/stock-market-model/pkg/sim/orderbook"
)

// Intent is one trader's order request for a tick. Price is in ticks and is
// meaningful for limit intents only.
type Intent struct {
	TraderID string
	Side     orderbook.Side
	Kind     orderbook.Kind
	Qty      int64
	Price    int64
}

// RandomTrader decides each tick whether to buy or sell, make or take, and
// how big, using only the current market price as a signal. The rng is
// injectable so a seeded trader replays deterministically.
type RandomTrader struct {
	id     string
	cfg    params.Traders
	rng    *rand.Rand
	placed int64
}

func NewRandomTrader(id string, cfg params.Traders, rng *rand.Rand) *RandomTrader {
	return &RandomTrader{id: id, cfg: cfg, rng: rng}
}

// Intent produces this trader's order for the tick. Every trader acts every
// tick; the bool return leaves room for sit-out behavior.
func (t *RandomTrader) Intent(lastPrice int64) (Intent, bool) {
	maker := t.rng.Float64() < t.cfg.MakerRatio
	buy := t.rng.Float64() < t.cfg.BuyRatio

	qty := t.orderSize()
	price := lastPrice
	kind := orderbook.Market
	if maker {
		kind = orderbook.Limit
		price = t.limitPrice(lastPrice)
	}

	side := orderbook.Sell
	if buy {
		side = orderbook.Buy
	}

	t.placed++
	return Intent{
		TraderID: t.id,
		Side:     side,
		Kind:     kind,
		Qty:      qty,
		Price:    price,
	}, true
}

// orderSize draws from the three-bucket size distribution.
func (t *RandomTrader) orderSize() int64 {
	r := t.rng.Float64()
	switch {
	case r < t.cfg.SmallRatio:
		return 1 + t.rng.Int63n(t.cfg.SmallMax)
	case r < t.cfg.SmallRatio+t.cfg.MediumRatio:
		return t.cfg.SmallMax + 1 + t.rng.Int63n(t.cfg.MediumMax-t.cfg.SmallMax)
	default:
		return t.cfg.MediumMax + 1 + t.rng.Int63n(t.cfg.LargeMax-t.cfg.MediumMax)
	}
}

// limitPrice places makers uniformly within ±PriceVariance of the current
// price, clamped to one tick so the price never goes non-positive.
func (t *RandomTrader) limitPrice(lastPrice int64) int64 {
	variance := (t.rng.Float64()*2 - 1) * t.cfg.PriceVariance
	price := int64(math.Round(float64(lastPrice) * (1 + variance)))
	if price < 1 {
		price = 1
	}
	return price
}

// OrdersPlaced returns how many intents this trader has produced.
func (t *RandomTrader) OrdersPlaced() int64 { return t.placed }

// Stats summarizes roster activity.
type Stats struct {
	TotalTraders    int
	TotalOrders     int64
	OrdersPerTrader float64
}

// Roster is the full trader population, polled once per simulation tick.
type Roster struct {
	cfg     params.Traders
	traders []*RandomTrader
}

// NewRoster creates n traders, each with its own rng seeded from parent so a
// seeded parent makes the whole population deterministic.
func NewRoster(n int, cfg params.Traders, parent *rand.Rand) *Roster {
	traders := make([]*RandomTrader, n)
	for i := range traders {
		id := fmt.Sprintf("trader-%d", i+1)
		traders[i] = NewRandomTrader(id, cfg, rand.New(rand.NewSource(parent.Int63())))
	}
	return &Roster{cfg: cfg, traders: traders}
}

// Intents collects one intent per trader for this tick, in roster order.
// The order is significant: it is the arrival order the book sees.
func (r *Roster) Intents(lastPrice int64) []Intent {
	intents := make([]Intent, 0, len(r.traders))
	for _, t := range r.traders {
		if intent, ok := t.Intent(lastPrice); ok {
			intents = append(intents, intent)
		}
	}
	return intents
}

// Reset zeroes every trader's order counter.
func (r *Roster) Reset() {
	for _, t := range r.traders {
		t.placed = 0
	}
}

// Stats aggregates order counts across the roster.
func (r *Roster) Stats() Stats {
	var total int64
	for _, t := range r.traders {
		total += t.placed
	}
	s := Stats{TotalTraders: len(r.traders), TotalOrders: total}
	if len(r.traders) > 0 {
		s.OrdersPerTrader = float64(total) / float64(len(r.traders))
	}
	return s
}
