// Package orderbook implements a price-time priority order book for a single
// simulated instrument. Prices are int64 ticks. Levels are FIFO queues keyed
// by price, with heaps tracking the best price on each side.
package orderbook

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidOrder is returned for orders that must never enter the book:
// non-positive quantity, or a limit order with a non-positive price.
// A rejected order leaves the book untouched and produces no trades.
var ErrInvalidOrder = errors.New("invalid order")

// OrderBook holds resting liquidity for both sides plus the trade history
// and the running last-trade price. All exported methods are safe for
// concurrent use; mutation is serialized behind a single writer lock.
type OrderBook struct {
	mu sync.RWMutex

	bidHeap *MaxPriceHeap
	askHeap *MinPriceHeap

	// price -> FIFO queue of resting orders, oldest first
	bids map[int64][]*Order
	asks map[int64][]*Order

	lastPrice int64
	trades    []Trade
	orderSeq  int64
	tradeSeq  int64
}

// NewOrderBook creates an empty book. initialPrice seeds the last-trade
// price so the market has a quote before the first trade.
func NewOrderBook(initialPrice int64) *OrderBook {
	bidHeap := &MaxPriceHeap{}
	askHeap := &MinPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &OrderBook{
		bidHeap:   bidHeap,
		askHeap:   askHeap,
		bids:      make(map[int64][]*Order),
		asks:      make(map[int64][]*Order),
		lastPrice: initialPrice,
	}
}

// Submit matches o against resting liquidity and returns the trades produced,
// in match order. Limit remainders rest at the tail of their price level;
// market remainders are dropped. Validation happens before any mutation, so a
// returned error guarantees the book is unchanged.
func (b *OrderBook) Submit(o Order, now time.Time) ([]Trade, error) {
	if o.Qty <= 0 {
		return nil, fmt.Errorf("%w: quantity %d must be positive", ErrInvalidOrder, o.Qty)
	}
	if o.Kind == Limit && o.Price <= 0 {
		return nil, fmt.Errorf("%w: limit price %d must be positive", ErrInvalidOrder, o.Price)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.orderSeq++
	o.Seq = b.orderSeq

	var trades []Trade
	if o.Side == Buy {
		trades = b.matchBuy(&o, now)
	} else {
		trades = b.matchSell(&o, now)
	}

	if o.Qty > 0 && o.Kind == Limit {
		rest := o
		if o.Side == Buy {
			b.addBid(o.Price, &rest)
		} else {
			b.addAsk(o.Price, &rest)
		}
	}

	if len(trades) > 0 {
		b.lastPrice = trades[len(trades)-1].Price
	}
	return trades, nil
}

// matchBuy sweeps ask levels from cheapest up. Limit orders stop at their
// limit; market orders take every level. Must hold b.mu.
func (b *OrderBook) matchBuy(o *Order, now time.Time) []Trade {
	var trades []Trade
	for o.Qty > 0 {
		askP, ok := b.bestAskLocked()
		if !ok {
			break
		}
		if o.Kind == Limit && askP > o.Price {
			break
		}
		level := b.asks[askP]
		maker := level[0]
		match := minQty(o.Qty, maker.Qty)
		o.Qty -= match
		maker.Qty -= match
		trades = append(trades, b.recordTrade(o.ID, maker.ID, askP, match, now))
		if maker.Qty == 0 {
			b.asks[askP] = level[1:]
			if len(b.asks[askP]) == 0 {
				delete(b.asks, askP)
				b.removeFromAskHeap(askP)
			}
		}
	}
	return trades
}

// matchSell sweeps bid levels from richest down; symmetric with matchBuy.
func (b *OrderBook) matchSell(o *Order, now time.Time) []Trade {
	var trades []Trade
	for o.Qty > 0 {
		bidP, ok := b.bestBidLocked()
		if !ok {
			break
		}
		if o.Kind == Limit && bidP < o.Price {
			break
		}
		level := b.bids[bidP]
		maker := level[0]
		match := minQty(o.Qty, maker.Qty)
		o.Qty -= match
		maker.Qty -= match
		trades = append(trades, b.recordTrade(maker.ID, o.ID, bidP, match, now))
		if maker.Qty == 0 {
			b.bids[bidP] = level[1:]
			if len(b.bids[bidP]) == 0 {
				delete(b.bids, bidP)
				b.removeFromBidHeap(bidP)
			}
		}
	}
	return trades
}

func (b *OrderBook) recordTrade(buyID, sellID string, price, qty int64, now time.Time) Trade {
	b.tradeSeq++
	t := Trade{
		ID:          b.tradeSeq,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Price:       price,
		Qty:         qty,
		Time:        now,
	}
	b.trades = append(b.trades, t)
	return t
}

func (b *OrderBook) addBid(p int64, o *Order) {
	if len(b.bids[p]) == 0 {
		heap.Push(b.bidHeap, p)
	}
	b.bids[p] = append(b.bids[p], o)
}

func (b *OrderBook) addAsk(p int64, o *Order) {
	if len(b.asks[p]) == 0 {
		heap.Push(b.askHeap, p)
	}
	b.asks[p] = append(b.asks[p], o)
}

func (b *OrderBook) bestBidLocked() (int64, bool) {
	if b.bidHeap.Len() == 0 {
		return 0, false
	}
	return b.bidHeap.Peek(), true
}

func (b *OrderBook) bestAskLocked() (int64, bool) {
	if b.askHeap.Len() == 0 {
		return 0, false
	}
	return b.askHeap.Peek(), true
}

// removeFromBidHeap removes a price level from the bid heap (O(N) worst case,
// but a level dies at most once).
func (b *OrderBook) removeFromBidHeap(price int64) {
	for i := 0; i < b.bidHeap.Len(); i++ {
		if (*b.bidHeap)[i] == price {
			heap.Remove(b.bidHeap, i)
			return
		}
	}
}

func (b *OrderBook) removeFromAskHeap(price int64) {
	for i := 0; i < b.askHeap.Len(); i++ {
		if (*b.askHeap)[i] == price {
			heap.Remove(b.askHeap, i)
			return
		}
	}
}

// BestBid returns the highest bid price, or false if the bid side is empty.
func (b *OrderBook) BestBid() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestBidLocked()
}

// BestAsk returns the lowest ask price, or false if the ask side is empty.
func (b *OrderBook) BestAsk() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bestAskLocked()
}

// Spread returns ask minus bid, or false when either side is empty.
func (b *OrderBook) Spread() (int64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bid, okB := b.bestBidLocked()
	ask, okA := b.bestAskLocked()
	if !okB || !okA {
		return 0, false
	}
	return ask - bid, true
}

// LastPrice returns the price of the most recent trade, or the seed price
// before any trade has occurred.
func (b *OrderBook) LastPrice() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastPrice
}

// Depth returns up to levels price levels per side with aggregate resting
// quantity, best price first.
func (b *OrderBook) Depth(levels int) (bids []Level, asks []Level) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bidHeap := append(MaxPriceHeap(nil), *b.bidHeap...)
	for len(bidHeap) > 0 && len(bids) < levels {
		p := heap.Pop(&bidHeap).(int64)
		bids = append(bids, Level{Price: p, Qty: levelQty(b.bids[p])})
	}
	askHeap := append(MinPriceHeap(nil), *b.askHeap...)
	for len(askHeap) > 0 && len(asks) < levels {
		p := heap.Pop(&askHeap).(int64)
		asks = append(asks, Level{Price: p, Qty: levelQty(b.asks[p])})
	}
	return bids, asks
}

func levelQty(orders []*Order) int64 {
	var total int64
	for _, o := range orders {
		total += o.Qty
	}
	return total
}

// RecentTrades returns the last count trades in chronological order.
func (b *OrderBook) RecentTrades(count int) []Trade {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if count > len(b.trades) {
		count = len(b.trades)
	}
	if count <= 0 {
		return nil
	}
	out := make([]Trade, count)
	copy(out, b.trades[len(b.trades)-count:])
	return out
}

// TradeCount returns the number of trades currently held in history.
func (b *OrderBook) TradeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.trades)
}

// TruncateTrades keeps the most recent keep trades and drops older ones.
// Returns the number of trades dropped.
func (b *OrderBook) TruncateTrades(keep int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if keep < 0 || len(b.trades) <= keep {
		return 0
	}
	dropped := len(b.trades) - keep
	kept := make([]Trade, keep)
	copy(kept, b.trades[dropped:])
	b.trades = kept
	return dropped
}

func minQty(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
