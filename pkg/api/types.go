package api

// JSON types for the REST endpoints and WebSocket feed. Prices cross this
// boundary as dollars; everything internal stays in ticks.

// PriceLevel is a [price, aggregate quantity] pair.
type PriceLevel struct {
	Price float64 `json:"price"`
	Qty   int64   `json:"qty"`
}

// TradeInfo is one executed trade.
type TradeInfo struct {
	ID        int64   `json:"id"`
	Price     float64 `json:"price"`
	Qty       int64   `json:"qty"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds, simulated time
}

// CandleInfo is one OHLCV bar.
type CandleInfo struct {
	Timestamp  int64   `json:"timestamp"` // window start, unix milliseconds
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	Volume     int64   `json:"volume"`
	TradeCount int     `json:"tradeCount"`
}

// MarketResponse is the full market snapshot.
type MarketResponse struct {
	Price        float64      `json:"price"`
	BestBid      *float64     `json:"bestBid"`
	BestAsk      *float64     `json:"bestAsk"`
	Spread       *float64     `json:"spread"`
	Bids         []PriceLevel `json:"bids"`
	Asks         []PriceLevel `json:"asks"`
	RecentTrades []TradeInfo  `json:"recentTrades"`
	ActiveCandle CandleInfo   `json:"activeCandle"`
	Timestamp    int64        `json:"timestamp"`
}

// StatsResponse mirrors sim.SimulationStats for the dashboard.
type StatsResponse struct {
	RunID        string  `json:"runId"`
	StepCount    int64   `json:"stepCount"`
	CurrentTime  int64   `json:"currentTime"`
	Running      bool    `json:"running"`
	CurrentPrice float64 `json:"currentPrice"`
	TotalTrades  int64   `json:"totalTrades"`
	TotalVolume  int64   `json:"totalVolume"`
	OrdersPerSec float64 `json:"ordersPerSec"`
	TradesPerSec float64 `json:"tradesPerSec"`
	CandleCount  int     `json:"candleCount"`
	PriceMin     float64 `json:"priceMin"`
	PriceMax     float64 `json:"priceMax"`
	CandleVolume int64   `json:"candleVolume"`
	TotalTraders int     `json:"totalTraders"`
	TotalOrders  int64   `json:"totalOrders"`
}

// StepResponse reports what a single step did.
type StepResponse struct {
	Step           int64    `json:"step"`
	Timestamp      int64    `json:"timestamp"`
	Price          float64  `json:"price"`
	OrdersPlaced   int      `json:"ordersPlaced"`
	OrdersRejected int      `json:"ordersRejected"`
	TradesExecuted int      `json:"tradesExecuted"`
	Volume         int64    `json:"volume"`
	BestBid        *float64 `json:"bestBid"`
	BestAsk        *float64 `json:"bestAsk"`
	Spread         *float64 `json:"spread"`
	ProcessingMs   float64  `json:"processingMs"`
}

// ControlResponse acknowledges a control command.
type ControlResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is sent by clients to manage channel subscriptions.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// MarketUpdate is broadcast on the "market" channel after every step.
type MarketUpdate struct {
	Type   string         `json:"type"` // "market"
	Step   StepResponse   `json:"step"`
	Market MarketResponse `json:"market"`
}
