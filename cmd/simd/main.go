package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Urftt/stock-market-model/params"
	"github.com/Urftt/stock-market-model/pkg/api"
	"github.com/Urftt/stock-market-model/pkg/sim"
	"github.com/Urftt/stock-market-model/pkg/sim/trader"
	"github.com/Urftt/stock-market-model/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "data/sim.log"
	}
	logger, err := util.NewLoggerWithFile(logFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	seed := cfg.Sim.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	roster := trader.NewRoster(cfg.Sim.NumTraders, cfg.Traders, rand.New(rand.NewSource(seed)))

	engine, err := sim.NewEngine(cfg, roster, sugar, util.RealClock{})
	if err != nil {
		sugar.Fatalw("engine_init_failed", "err", err)
	}

	sugar.Infow("simulation_configured",
		"initial_price", cfg.Market.InitialPrice,
		"traders", cfg.Sim.NumTraders,
		"time_step", cfg.Sim.TimeStep,
		"candle_interval", cfg.Market.CandleInterval,
		"seed", seed)

	if os.Getenv("SIM_MODE") == "console" {
		runConsole(engine, cfg, sugar)
		return
	}
	runServe(engine, cfg, sugar)
}

// runConsole steps the simulation a fixed number of times and dumps final
// statistics, pacing steps by the configured speed.
func runConsole(engine *sim.Engine, cfg params.Config, sugar *zap.SugaredLogger) {
	steps := 100
	if v := os.Getenv("SIM_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			steps = n
		}
	}
	interval := time.Duration(float64(cfg.Sim.TimeStep) / cfg.Sim.Speed)

	engine.Start()
	for i := 0; i < steps; i++ {
		summary := engine.Step()
		if i%10 == 0 {
			sugar.Infow("step",
				"n", summary.Step,
				"price", params.Dollars(summary.Price),
				"orders", summary.OrdersPlaced,
				"trades", summary.TradesExecuted,
				"volume", summary.Volume)
		}
		time.Sleep(interval)
	}
	engine.Stop()

	stats := engine.Stats()
	sugar.Infow("final_stats",
		"steps", stats.StepCount,
		"final_price", params.Dollars(stats.CurrentPrice),
		"total_trades", stats.TotalTrades,
		"total_volume", stats.TotalVolume,
		"price_min", params.Dollars(stats.PriceMin),
		"price_max", params.Dollars(stats.PriceMax),
		"candles", stats.CandleCount)
}

// runServe runs the engine on its own goroutine with the HTTP/WebSocket
// dashboard attached, until interrupted.
func runServe(engine *sim.Engine, cfg params.Config, sugar *zap.SugaredLogger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiServer := api.NewServer(engine, cfg.Server.AllowedOrigins, sugar)
	engine.OnStep = apiServer.BroadcastStep

	go func() {
		if err := apiServer.Start(cfg.Server.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	if os.Getenv("AUTO_START") != "false" {
		engine.Start()
	}
	go engine.Run(ctx)

	// Progress logging: report every logInterval steps to keep noise down.
	const logInterval = 100
	var lastLogged int64
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			engine.Stop()
			return
		case <-ticker.C:
			stats := engine.Stats()
			if stats.StepCount-lastLogged >= logInterval {
				sugar.Infow("simulation_progress",
					"steps", stats.StepCount,
					"price", params.Dollars(stats.CurrentPrice),
					"trades", stats.TotalTrades,
					"trades_per_sec", stats.TradesPerSec,
					"candles", stats.CandleCount)
				lastLogged = stats.StepCount
			}
		}
	}
}
