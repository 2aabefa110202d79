// Package api exposes the simulation over REST and WebSocket for dashboards.
// It holds no market state of its own: every handler reads an engine snapshot
// or forwards a control command.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Urftt/stock-market-model/params"
	"github.com/Urftt/stock-market-model/pkg/sim"
	"github.com/Urftt/stock-market-model/pkg/sim/candle"
)

const (
	defaultDepthLevels = 10
	defaultTradeCount  = 20
	maxDepthLevels     = 100
	maxTradeCount      = 500
)

// Server handles the REST API and WebSocket connections.
type Server struct {
	engine  *sim.Engine
	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
	origins []string
}

func NewServer(engine *sim.Engine, origins []string, log *zap.SugaredLogger) *Server {
	s := &Server{
		engine:  engine,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
		origins: origins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/market", s.handleGetMarket).Methods("GET")
	api.HandleFunc("/market/candles", s.handleGetCandles).Methods("GET")
	api.HandleFunc("/market/trades", s.handleGetTrades).Methods("GET")
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")

	api.HandleFunc("/control/start", s.handleStart).Methods("POST")
	api.HandleFunc("/control/stop", s.handleStop).Methods("POST")
	api.HandleFunc("/control/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/control/step", s.handleStep).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	levels := queryInt(r, "levels", defaultDepthLevels, maxDepthLevels)
	trades := queryInt(r, "trades", defaultTradeCount, maxTradeCount)
	respondJSON(w, marketResponse(s.engine.Snapshot(levels, trades)))
}

func (s *Server) handleGetCandles(w http.ResponseWriter, r *http.Request) {
	history := s.engine.Candles()
	out := make([]CandleInfo, len(history))
	for i, c := range history {
		out[i] = candleInfo(c)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultTradeCount, maxTradeCount)
	snap := s.engine.Snapshot(0, limit)
	out := make([]TradeInfo, len(snap.RecentTrades))
	for i, t := range snap.RecentTrades {
		out[i] = TradeInfo{
			ID:        t.ID,
			Price:     params.Dollars(t.Price),
			Qty:       t.Qty,
			Timestamp: t.Time.UnixMilli(),
		}
	}
	respondJSON(w, out)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Stats()
	respondJSON(w, StatsResponse{
		RunID:        st.RunID,
		StepCount:    st.StepCount,
		CurrentTime:  st.CurrentTime.UnixMilli(),
		Running:      st.Running,
		CurrentPrice: params.Dollars(st.CurrentPrice),
		TotalTrades:  st.TotalTrades,
		TotalVolume:  st.TotalVolume,
		OrdersPerSec: st.OrdersPerSec,
		TradesPerSec: st.TradesPerSec,
		CandleCount:  st.CandleCount,
		PriceMin:     params.Dollars(st.PriceMin),
		PriceMax:     params.Dollars(st.PriceMax),
		CandleVolume: st.CandleVolume,
		TotalTraders: st.Traders.TotalTraders,
		TotalOrders:  st.Traders.TotalOrders,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.engine.Start()
	respondJSON(w, ControlResponse{Status: "ok", Running: s.engine.Running()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.engine.Stop()
	respondJSON(w, ControlResponse{Status: "ok", Running: s.engine.Running()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	respondJSON(w, ControlResponse{Status: "ok", Running: s.engine.Running()})
}

// handleStep runs one step on demand. Stepping a stopped engine is a no-op
// and reports step 0, matching the engine contract.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, stepResponse(s.engine.Step()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// BroadcastStep pushes the step summary plus a fresh snapshot to WebSocket
// subscribers. Wired to sim.Engine.OnStep by the caller.
func (s *Server) BroadcastStep(summary sim.StepSummary) {
	update := MarketUpdate{
		Type:   "market",
		Step:   stepResponse(summary),
		Market: marketResponse(s.engine.Snapshot(defaultDepthLevels, defaultTradeCount)),
	}
	s.hub.BroadcastToChannel("market", update)
}

func marketResponse(snap sim.MarketSnapshot) MarketResponse {
	bids := make([]PriceLevel, len(snap.Bids))
	for i, l := range snap.Bids {
		bids[i] = PriceLevel{Price: params.Dollars(l.Price), Qty: l.Qty}
	}
	asks := make([]PriceLevel, len(snap.Asks))
	for i, l := range snap.Asks {
		asks[i] = PriceLevel{Price: params.Dollars(l.Price), Qty: l.Qty}
	}
	trades := make([]TradeInfo, len(snap.RecentTrades))
	for i, t := range snap.RecentTrades {
		trades[i] = TradeInfo{
			ID:        t.ID,
			Price:     params.Dollars(t.Price),
			Qty:       t.Qty,
			Timestamp: t.Time.UnixMilli(),
		}
	}
	return MarketResponse{
		Price:        params.Dollars(snap.Price),
		BestBid:      optDollars(snap.BestBid),
		BestAsk:      optDollars(snap.BestAsk),
		Spread:       optDollars(snap.Spread),
		Bids:         bids,
		Asks:         asks,
		RecentTrades: trades,
		ActiveCandle: candleInfo(snap.ActiveCandle),
		Timestamp:    snap.Time.UnixMilli(),
	}
}

func stepResponse(summary sim.StepSummary) StepResponse {
	return StepResponse{
		Step:           summary.Step,
		Timestamp:      summary.Timestamp.UnixMilli(),
		Price:          params.Dollars(summary.Price),
		OrdersPlaced:   summary.OrdersPlaced,
		OrdersRejected: summary.OrdersRejected,
		TradesExecuted: summary.TradesExecuted,
		Volume:         summary.Volume,
		BestBid:        optDollars(summary.BestBid),
		BestAsk:        optDollars(summary.BestAsk),
		Spread:         optDollars(summary.Spread),
		ProcessingMs:   float64(summary.Processing.Microseconds()) / 1000,
	}
}

func candleInfo(c candle.Candle) CandleInfo {
	return CandleInfo{
		Timestamp:  c.StartTime.UnixMilli(),
		Open:       params.Dollars(c.Open),
		High:       params.Dollars(c.High),
		Low:        params.Dollars(c.Low),
		Close:      params.Dollars(c.Close),
		Volume:     c.Volume,
		TradeCount: c.TradeCount,
	}
}

func optDollars(ticks *int64) *float64 {
	if ticks == nil {
		return nil
	}
	d := params.Dollars(*ticks)
	return &d
}

func queryInt(r *http.Request, key string, def, max int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
