package sim

import (
	"time"

	"github.com/Urftt/stock-market-model/pkg/sim/candle"
	"github.com/Urftt/stock-market-model/pkg/sim/orderbook"
	"github.com/Urftt/stock-market-model/pkg/sim/trader"
)

// StepSummary reports what one step did. A step taken while the engine is
// stopped returns the zero summary (Step == 0).
type StepSummary struct {
	Step           int64
	Timestamp      time.Time
	Price          int64 // ticks
	OrdersPlaced   int
	OrdersRejected int
	TradesExecuted int
	Volume         int64
	BestBid        *int64
	BestAsk        *int64
	Spread         *int64
	Processing     time.Duration // wall-clock time spent inside the step
}

// MarketSnapshot is a consistent read-only view of the market, safe to hand
// to presentation layers: every slice and candle is a copy. Optional fields
// are nil when the corresponding book side is empty.
type MarketSnapshot struct {
	Price        int64
	Time         time.Time
	BestBid      *int64
	BestAsk      *int64
	Spread       *int64
	Bids         []orderbook.Level
	Asks         []orderbook.Level
	RecentTrades []orderbook.Trade
	ActiveCandle candle.Candle
}

// SimulationStats is the aggregate counters surface.
type SimulationStats struct {
	RunID        string
	StepCount    int64
	CurrentTime  time.Time
	Running      bool
	CurrentPrice int64
	TotalTrades  int64
	TotalVolume  int64
	OrdersPerSec float64
	TradesPerSec float64
	CandleCount  int
	PriceMin     int64 // lowest low across closed candles
	PriceMax     int64
	CandleVolume int64 // volume summed over closed candles
	Traders      trader.Stats
}
