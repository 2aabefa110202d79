package orderbook

import "time"

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Kind is the execution style of an order.
type Kind int

const (
	// Limit orders rest on the book after matching down to non-crossing.
	Limit Kind = iota
	// Market orders consume liquidity immediately; any remainder is dropped.
	Market
)

func (k Kind) String() string {
	if k == Limit {
		return "limit"
	}
	return "market"
}

// Order is a trading intent plus its remaining quantity. Price is in ticks
// and is advisory for market orders. Qty mutates downward as the order fills
// and never goes negative. Seq is assigned by the book on submission and is
// the FIFO tie-break source within a price level.
type Order struct {
	ID       string
	TraderID string
	Side     Side
	Kind     Kind
	Price    int64
	Qty      int64
	Seq      int64
}

// Trade is the immutable record of one match. Price and Qty are set from the
// resting (passive) side at match time and never change afterwards.
type Trade struct {
	ID          int64
	BuyOrderID  string
	SellOrderID string
	Price       int64
	Qty         int64
	Time        time.Time
}

// Level aggregates the resting quantity at one price.
type Level struct {
	Price int64
	Qty   int64
}
