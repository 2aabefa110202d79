// Package sim drives the market simulation: a stepping loop that polls the
// trader population, feeds the order book, and rolls trades into candles.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Urftt/stock-market-model/params"
	"github.com/Urftt/stock-market-model/pkg/idgen"
	"github.com/Urftt/stock-market-model/pkg/sim/candle"
	"github.com/Urftt/stock-market-model/pkg/sim/orderbook"
	"github.com/Urftt/stock-market-model/pkg/sim/trader"
	"github.com/Urftt/stock-market-model/pkg/util"
)

// TraderPool is the order-generation collaborator. The engine assumes only
// "zero or more intents per tick, in a significant order".
type TraderPool interface {
	Intents(lastPrice int64) []trader.Intent
	Reset()
	Stats() trader.Stats
}

// Engine owns all simulation state. Mutation happens only inside Step and
// Reset, both behind the same writer lock, so an in-flight step can never
// interleave with a reset or with another step. Read-only queries take the
// reader side and observe fully pre- or post-step state.
type Engine struct {
	mu sync.RWMutex

	cfg     params.Config
	log     *zap.SugaredLogger
	clock   util.Clock
	ids     *idgen.Generator
	traders TraderPool

	book    *orderbook.OrderBook
	candles *candle.Aggregator

	runID     string
	simTime   time.Time
	stepCount int64
	running   bool

	totalTrades  int64
	totalVolume  int64
	ordersPerSec float64
	tradesPerSec float64

	// OnStep, when set before the run loop starts, is invoked after every
	// executed step, outside the engine lock.
	OnStep func(StepSummary)
}

// NewEngine validates cfg and builds a stopped engine with a fresh book.
func NewEngine(cfg params.Config, traders TraderPool, log *zap.SugaredLogger, clock util.Clock) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	e := &Engine{
		cfg:     cfg,
		log:     log,
		clock:   clock,
		ids:     idgen.New(),
		traders: traders,
	}
	e.resetLocked()
	return e, nil
}

// resetLocked re-creates the book, aggregator, and counters. Callers other
// than NewEngine must hold e.mu.
func (e *Engine) resetLocked() {
	now := e.clock.Now()
	initial := e.cfg.InitialPriceTicks()
	e.book = orderbook.NewOrderBook(initial)
	e.candles = candle.NewAggregator(initial, now, e.cfg.Market.CandleInterval, e.cfg.Market.CandleHistory)
	e.runID = uuid.NewString()
	e.simTime = now
	e.stepCount = 0
	e.running = false
	e.totalTrades = 0
	e.totalVolume = 0
	e.ordersPerSec = 0
	e.tradesPerSec = 0
	e.traders.Reset()
}

// Start flips the engine to RUNNING. Idempotent.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.log.Infow("simulation_started",
		"run_id", e.runID,
		"initial_price", e.cfg.Market.InitialPrice,
		"traders", e.cfg.Sim.NumTraders,
		"time_step", e.cfg.Sim.TimeStep)
}

// Stop flips the engine to STOPPED. The flag is observed at the next step
// boundary; it never interrupts a step in flight.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.log.Infow("simulation_stopped", "run_id", e.runID, "steps", e.stepCount)
}

// Reset returns to a fresh STOPPED state with a brand-new book and zeroed
// counters. Blocks until any in-flight step completes.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
	e.log.Infow("simulation_reset", "run_id", e.runID)
}

// Running reports the control state.
func (e *Engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Step executes one simulation tick and returns its summary. A step while
// STOPPED is a benign no-op returning the zero summary. The whole step runs
// under the writer lock: matching and aggregation are pure and synchronous,
// so a tick is applied completely or not at all.
func (e *Engine) Step() StepSummary {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return StepSummary{}
	}
	started := time.Now()

	e.stepCount++
	e.simTime = e.simTime.Add(e.cfg.Sim.TimeStep)

	// Traders see only the pre-step price.
	intents := e.traders.Intents(e.book.LastPrice())

	var stepTrades []orderbook.Trade
	rejected := 0
	for _, in := range intents {
		o := orderbook.Order{
			ID:       e.ids.NextOrderID(),
			TraderID: in.TraderID,
			Side:     in.Side,
			Kind:     in.Kind,
			Price:    in.Price,
			Qty:      in.Qty,
		}
		trades, err := e.book.Submit(o, e.simTime)
		if err != nil {
			rejected++
			e.log.Debugw("order_rejected", "trader", in.TraderID, "err", err)
			continue
		}
		stepTrades = append(stepTrades, trades...)
	}

	e.candles.OnTrades(stepTrades)
	if closed, ok := e.candles.OnTick(e.simTime, e.book.LastPrice()); ok {
		e.log.Debugw("candle_closed",
			"start", closed.StartTime,
			"close", params.Dollars(closed.Close),
			"volume", closed.Volume,
			"trades", closed.TradeCount)
	}

	var volume int64
	for _, t := range stepTrades {
		volume += t.Qty
	}
	e.totalTrades += int64(len(stepTrades))
	e.totalVolume += volume

	stepSecs := e.cfg.Sim.TimeStep.Seconds()
	e.ordersPerSec = float64(len(intents)) / stepSecs
	e.tradesPerSec = float64(len(stepTrades)) / stepSecs

	if e.stepCount%int64(e.cfg.Sim.TruncateEvery) == 0 {
		if dropped := e.book.TruncateTrades(e.cfg.Market.TradeHistory); dropped > 0 {
			e.log.Debugw("trade_history_truncated", "dropped", dropped)
		}
	}

	summary := StepSummary{
		Step:           e.stepCount,
		Timestamp:      e.simTime,
		Price:          e.book.LastPrice(),
		OrdersPlaced:   len(intents),
		OrdersRejected: rejected,
		TradesExecuted: len(stepTrades),
		Volume:         volume,
		BestBid:        optPrice(e.book.BestBid()),
		BestAsk:        optPrice(e.book.BestAsk()),
		Spread:         optPrice(e.book.Spread()),
		Processing:     time.Since(started),
	}
	cb := e.OnStep
	e.mu.Unlock()

	if cb != nil {
		cb(summary)
	}
	return summary
}

// Run paces Step invocations until ctx is done. The speed multiplier only
// compresses the wall-clock interval between steps; it never changes what a
// step does.
func (e *Engine) Run(ctx context.Context) {
	interval := time.Duration(float64(e.cfg.Sim.TimeStep) / e.cfg.Sim.Speed)
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.clock.After(interval):
			e.Step()
		}
	}
}

// Snapshot builds a consistent read-only market view with up to levels depth
// entries per side and the last tradeCount trades.
func (e *Engine) Snapshot(levels, tradeCount int) MarketSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bids, asks := e.book.Depth(levels)
	return MarketSnapshot{
		Price:        e.book.LastPrice(),
		Time:         e.simTime,
		BestBid:      optPrice(e.book.BestBid()),
		BestAsk:      optPrice(e.book.BestAsk()),
		Spread:       optPrice(e.book.Spread()),
		Bids:         bids,
		Asks:         asks,
		RecentTrades: e.book.RecentTrades(tradeCount),
		ActiveCandle: e.candles.Active(),
	}
}

// Candles returns the closed candle history, oldest first.
func (e *Engine) Candles() []candle.Candle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.candles.History()
}

// Stats returns the aggregate simulation statistics.
func (e *Engine) Stats() SimulationStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	low, high := e.candles.PriceRange()
	return SimulationStats{
		RunID:        e.runID,
		StepCount:    e.stepCount,
		CurrentTime:  e.simTime,
		Running:      e.running,
		CurrentPrice: e.book.LastPrice(),
		TotalTrades:  e.totalTrades,
		TotalVolume:  e.totalVolume,
		OrdersPerSec: e.ordersPerSec,
		TradesPerSec: e.tradesPerSec,
		CandleCount:  e.candles.Len(),
		PriceMin:     low,
		PriceMax:     high,
		CandleVolume: e.candles.TotalVolume(),
		Traders:      e.traders.Stats(),
	}
}

func optPrice(p int64, ok bool) *int64 {
	if !ok {
		return nil
	}
	return &p
}
