package orderbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func limit(id, trader string, side Side, price, qty int64) Order {
	return Order{ID: id, TraderID: trader, Side: side, Kind: Limit, Price: price, Qty: qty}
}

func market(id, trader string, side Side, qty int64) Order {
	return Order{ID: id, TraderID: trader, Side: side, Kind: Market, Qty: qty}
}

func TestSubmitRejectsInvalidOrders(t *testing.T) {
	tests := []struct {
		name  string
		order Order
	}{
		{"zero quantity", limit("o1", "a", Buy, 10000, 0)},
		{"negative quantity", limit("o2", "a", Sell, 10000, -5)},
		{"zero limit price", limit("o3", "a", Buy, 0, 10)},
		{"negative limit price", limit("o4", "a", Sell, -100, 10)},
		{"zero quantity market", market("o5", "a", Buy, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := NewOrderBook(10000)
			trades, err := book.Submit(tt.order, t0)
			require.ErrorIs(t, err, ErrInvalidOrder)
			require.Empty(t, trades)

			// A rejected order must leave no trace.
			require.Zero(t, book.TradeCount())
			bids, asks := book.Depth(10)
			require.Empty(t, bids)
			require.Empty(t, asks)
		})
	}
}

func TestLimitOrderRestsWhenNotCrossing(t *testing.T) {
	book := NewOrderBook(10000)

	trades, err := book.Submit(limit("b1", "alice", Buy, 9990, 10), t0)
	require.NoError(t, err)
	require.Empty(t, trades)

	trades, err = book.Submit(limit("a1", "bob", Sell, 10010, 5), t0)
	require.NoError(t, err)
	require.Empty(t, trades)

	bid, ok := book.BestBid()
	require.True(t, ok)
	require.Equal(t, int64(9990), bid)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	require.Equal(t, int64(10010), ask)

	spread, ok := book.Spread()
	require.True(t, ok)
	require.Equal(t, int64(20), spread)

	// No trade: the seed price stands.
	require.Equal(t, int64(10000), book.LastPrice())
}

func TestExecutionAtPassivePrice(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "maker", Sell, 10010, 10), t0)
	require.NoError(t, err)

	// Aggressive buy well above the resting ask still fills at the ask.
	trades, err := book.Submit(limit("b1", "taker", Buy, 10100, 10), t0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, int64(10010), trades[0].Price)
	require.Equal(t, int64(10), trades[0].Qty)
	require.Equal(t, "b1", trades[0].BuyOrderID)
	require.Equal(t, "a1", trades[0].SellOrderID)
	require.Equal(t, int64(10010), book.LastPrice())
}

func TestFIFOWithinPriceLevel(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "first", Sell, 10005, 10), t0)
	require.NoError(t, err)
	_, err = book.Submit(limit("a2", "second", Sell, 10005, 10), t0)
	require.NoError(t, err)

	// Enough to fill exactly one resting order: the earlier one goes first.
	trades, err := book.Submit(market("m1", "taker", Buy, 10), t0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, "a1", trades[0].SellOrderID)

	// The later order is untouched at the level.
	_, asks := book.Depth(1)
	require.Len(t, asks, 1)
	require.Equal(t, int64(10005), asks[0].Price)
	require.Equal(t, int64(10), asks[0].Qty)
}

func TestBestPriceFirstAcrossLevels(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "m1", Sell, 10020, 5), t0)
	require.NoError(t, err)
	_, err = book.Submit(limit("a2", "m2", Sell, 10010, 5), t0)
	require.NoError(t, err)

	trades, err := book.Submit(market("m1", "taker", Buy, 8), t0)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	require.Equal(t, int64(10010), trades[0].Price)
	require.Equal(t, int64(5), trades[0].Qty)
	require.Equal(t, int64(10020), trades[1].Price)
	require.Equal(t, int64(3), trades[1].Qty)

	// Last price follows the final trade, not the best one.
	require.Equal(t, int64(10020), book.LastPrice())
}

func TestMarketRemainderNeverRests(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "maker", Sell, 10010, 5), t0)
	require.NoError(t, err)

	trades, err := book.Submit(market("m1", "taker", Buy, 50), t0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, int64(5), trades[0].Qty)

	bids, asks := book.Depth(10)
	require.Empty(t, bids, "market remainder must not rest")
	require.Empty(t, asks)
}

func TestPartialFillRestsNonCrossing(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "maker", Sell, 10005, 4), t0)
	require.NoError(t, err)

	// Crossing limit buy larger than available: fills 4, rests 6 at 10005.
	trades, err := book.Submit(limit("b1", "taker", Buy, 10005, 10), t0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, int64(4), trades[0].Qty)

	bids, asks := book.Depth(10)
	require.Empty(t, asks)
	require.Len(t, bids, 1)
	require.Equal(t, int64(10005), bids[0].Price)
	require.Equal(t, int64(6), bids[0].Qty)
}

func TestNoCrossAfterSubmit(t *testing.T) {
	book := NewOrderBook(10000)

	orders := []Order{
		limit("o1", "a", Buy, 9995, 10),
		limit("o2", "b", Sell, 10005, 10),
		limit("o3", "c", Buy, 10010, 3),
		limit("o4", "d", Sell, 9990, 2),
		limit("o5", "e", Buy, 10000, 7),
		market("o6", "f", Sell, 4),
		limit("o7", "g", Sell, 9999, 20),
	}
	for _, o := range orders {
		_, err := book.Submit(o, t0)
		require.NoError(t, err)

		bid, okB := book.BestBid()
		ask, okA := book.BestAsk()
		if okB && okA {
			require.Less(t, bid, ask, "book crossed after %s", o.ID)
		}
	}
}

func TestConservation(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "m1", Sell, 10000, 7), t0)
	require.NoError(t, err)
	_, err = book.Submit(limit("a2", "m2", Sell, 10001, 9), t0)
	require.NoError(t, err)

	trades, err := book.Submit(limit("b1", "taker", Buy, 10001, 12), t0)
	require.NoError(t, err)

	var total int64
	for _, tr := range trades {
		require.Positive(t, tr.Qty)
		total += tr.Qty
	}
	// 12 demanded against 16 supplied: exactly 12 executes, split 7 + 5.
	require.Equal(t, int64(12), total)
	require.Len(t, trades, 2)
	require.Equal(t, int64(7), trades[0].Qty)
	require.Equal(t, int64(5), trades[1].Qty)

	// The 4 leftover from a2 remains on the ask side.
	_, asks := book.Depth(10)
	require.Len(t, asks, 1)
	require.Equal(t, int64(4), asks[0].Qty)
}

func TestSelfTradePermitted(t *testing.T) {
	book := NewOrderBook(10000)

	_, err := book.Submit(limit("a1", "same", Sell, 10000, 5), t0)
	require.NoError(t, err)

	trades, err := book.Submit(limit("b1", "same", Buy, 10000, 5), t0)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.Equal(t, int64(5), trades[0].Qty)
}

func TestRecentTradesChronological(t *testing.T) {
	book := NewOrderBook(10000)

	for i := 0; i < 5; i++ {
		_, err := book.Submit(limit("a", "m", Sell, 10000, 1), t0)
		require.NoError(t, err)
		_, err = book.Submit(market("b", "t", Buy, 1), t0)
		require.NoError(t, err)
	}

	recent := book.RecentTrades(3)
	require.Len(t, recent, 3)
	require.Equal(t, int64(3), recent[0].ID)
	require.Equal(t, int64(4), recent[1].ID)
	require.Equal(t, int64(5), recent[2].ID)

	// Asking for more than exists returns everything.
	require.Len(t, book.RecentTrades(100), 5)
}

func TestTruncateTradesDropsOldestFirst(t *testing.T) {
	book := NewOrderBook(10000)

	for i := 0; i < 20; i++ {
		_, err := book.Submit(limit("a", "m", Sell, 10000, 1), t0)
		require.NoError(t, err)
		_, err = book.Submit(market("b", "t", Buy, 1), t0)
		require.NoError(t, err)
	}
	require.Equal(t, 20, book.TradeCount())

	dropped := book.TruncateTrades(8)
	require.Equal(t, 12, dropped)
	require.Equal(t, 8, book.TradeCount())

	recent := book.RecentTrades(8)
	require.Equal(t, int64(13), recent[0].ID, "oldest survivors must be the newest trades")
	require.Equal(t, int64(20), recent[7].ID)

	// Truncating below the cap is a no-op.
	require.Zero(t, book.TruncateTrades(8))
}

func TestDepthOrderingAndLimit(t *testing.T) {
	book := NewOrderBook(10000)

	for _, o := range []Order{
		limit("b1", "a", Buy, 9990, 1),
		limit("b2", "a", Buy, 9995, 2),
		limit("b3", "a", Buy, 9985, 3),
		limit("s1", "a", Sell, 10010, 1),
		limit("s2", "a", Sell, 10005, 2),
		limit("s3", "a", Sell, 10015, 3),
	} {
		_, err := book.Submit(o, t0)
		require.NoError(t, err)
	}

	bids, asks := book.Depth(2)
	require.Len(t, bids, 2)
	require.Len(t, asks, 2)
	require.Equal(t, int64(9995), bids[0].Price)
	require.Equal(t, int64(9990), bids[1].Price)
	require.Equal(t, int64(10005), asks[0].Price)
	require.Equal(t, int64(10010), asks[1].Price)
}

func TestMarketOrderOnEmptyBook(t *testing.T) {
	book := NewOrderBook(10000)

	trades, err := book.Submit(market("m1", "t", Buy, 10), t0)
	require.NoError(t, err)
	require.Empty(t, trades)
	require.Zero(t, book.TradeCount())
	require.Equal(t, int64(10000), book.LastPrice())
}
