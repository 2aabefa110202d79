package orderbook

import (
	"fmt"
	"testing"
	"time"
)

func prefillBook(levels int) *OrderBook {
	book := NewOrderBook(10000)
	now := time.Now()
	for i := 0; i < levels; i++ {
		book.Submit(Order{
			ID: fmt.Sprintf("b-%d", i), TraderID: "maker",
			Side: Buy, Kind: Limit, Price: int64(9900 - i), Qty: 10,
		}, now)
		book.Submit(Order{
			ID: fmt.Sprintf("s-%d", i), TraderID: "maker",
			Side: Sell, Kind: Limit, Price: int64(10100 + i), Qty: 10,
		}, now)
	}
	return book
}

func BenchmarkSubmitResting(b *testing.B) {
	book := prefillBook(100)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.Submit(Order{
			ID: fmt.Sprintf("o-%d", i), TraderID: "bench",
			Side: Buy, Kind: Limit, Price: int64(9000 - i%500), Qty: 5,
		}, now)
	}
}

func BenchmarkSubmitMatching(b *testing.B) {
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		book := NewOrderBook(10000)
		book.Submit(Order{ID: "rest", TraderID: "maker", Side: Sell, Kind: Limit, Price: 10000, Qty: 10}, now)
		b.StartTimer()

		book.Submit(Order{ID: "take", TraderID: "taker", Side: Buy, Kind: Market, Qty: 10}, now)
	}
}

func BenchmarkBestPrices(b *testing.B) {
	book := prefillBook(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.BestBid()
		book.BestAsk()
	}
}

func BenchmarkDepth(b *testing.B) {
	book := prefillBook(500)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		book.Depth(10)
	}
}

func BenchmarkRealisticWorkload(b *testing.B) {
	book := prefillBook(200)
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		switch i % 10 {
		case 0, 1: // aggressive takers
			side := Buy
			if i%2 == 0 {
				side = Sell
			}
			book.Submit(Order{
				ID: fmt.Sprintf("t-%d", i), TraderID: "taker",
				Side: side, Kind: Market, Qty: 3,
			}, now)
		case 2, 3, 4: // queries
			book.Depth(10)
		default: // passive makers
			book.Submit(Order{
				ID: fmt.Sprintf("m-%d", i), TraderID: "maker",
				Side: Buy, Kind: Limit, Price: int64(9800 - i%100), Qty: 5,
			}, now)
		}
	}
}
