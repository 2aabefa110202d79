package params

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// TicksPerDollar fixes the price grid: 1 tick = $0.01.
const TicksPerDollar = 100

// Market holds the instrument parameters for the simulated book.
type Market struct {
	InitialPrice   float64       // dollars; converted to ticks once at startup
	CandleInterval time.Duration // width of one OHLCV bar in simulated time
	CandleHistory  int           // closed candles kept, oldest evicted first
	TradeHistory   int           // executed trades kept after truncation
}

// Sim holds the stepping-loop parameters.
type Sim struct {
	NumTraders    int
	TimeStep      time.Duration // simulated time advanced per step
	TruncateEvery int           // steps between trade-history truncations
	Speed         float64       // simulated-time / wall-clock multiplier
	Seed          int64         // 0 = seed traders from the wall clock
}

// Traders controls the random order-flow mix.
type Traders struct {
	MakerRatio    float64 // fraction placing limit orders; the rest go to market
	BuyRatio      float64
	PriceVariance float64 // maker limit price drawn within ±variance of last price

	SmallRatio  float64 // remaining probability mass goes to large orders
	MediumRatio float64
	SmallMax    int64 // small orders: 1..SmallMax shares
	MediumMax   int64 // medium orders: SmallMax+1..MediumMax
	LargeMax    int64 // large orders: MediumMax+1..LargeMax
}

// Server holds the HTTP/WebSocket front-end parameters.
type Server struct {
	Addr           string
	AllowedOrigins []string
}

type Config struct {
	Market  Market
	Sim     Sim
	Traders Traders
	Server  Server
}

// Default mirrors the simulation baseline: $100 start, 1000 traders,
// 100ms steps, 1-minute candles, 1000-entry histories.
func Default() Config {
	return Config{
		Market: Market{
			InitialPrice:   100.0,
			CandleInterval: 60 * time.Second,
			CandleHistory:  1000,
			TradeHistory:   1000,
		},
		Sim: Sim{
			NumTraders:    1000,
			TimeStep:      100 * time.Millisecond,
			TruncateEvery: 100,
			Speed:         1.0,
		},
		Traders: Traders{
			MakerRatio:    0.2,
			BuyRatio:      0.5,
			PriceVariance: 0.01,
			SmallRatio:    0.7,
			MediumRatio:   0.25,
			SmallMax:      10,
			MediumMax:     100,
			LargeMax:      1000,
		},
		Server: Server{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:8050"},
		},
	}
}

// LoadFromEnv loads configuration from a .env file (if it exists) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("SIM_INITIAL_PRICE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Market.InitialPrice = f
		}
	}
	if v := os.Getenv("SIM_CANDLE_INTERVAL_S"); v != "" {
		if s, err := strconv.Atoi(v); err == nil {
			cfg.Market.CandleInterval = time.Duration(s) * time.Second
		}
	}
	if v := os.Getenv("SIM_CANDLE_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.CandleHistory = n
		}
	}
	if v := os.Getenv("SIM_TRADE_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.TradeHistory = n
		}
	}
	if v := os.Getenv("SIM_NUM_TRADERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sim.NumTraders = n
		}
	}
	if v := os.Getenv("SIM_TIME_STEP_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Sim.TimeStep = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("SIM_TRUNCATE_EVERY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sim.TruncateEvery = n
		}
	}
	if v := os.Getenv("SIM_SPEED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sim.Speed = f
		}
	}
	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.Seed = n
		}
	}
	if v := os.Getenv("SIM_MAKER_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Traders.MakerRatio = f
		}
	}
	if v := os.Getenv("SIM_BUY_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Traders.BuyRatio = f
		}
	}
	if v := os.Getenv("SIM_PRICE_VARIANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Traders.PriceVariance = f
		}
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	return cfg
}

// Validate fails fast on parameters that would corrupt the simulation.
// Called once at engine construction, before any step runs.
func (c Config) Validate() error {
	if math.IsNaN(c.Market.InitialPrice) || c.Market.InitialPrice <= 0 {
		return fmt.Errorf("initial price must be positive, got %v", c.Market.InitialPrice)
	}
	if c.Market.CandleInterval <= 0 {
		return errors.New("candle interval must be positive")
	}
	if c.Market.CandleHistory <= 0 {
		return errors.New("candle history must be positive")
	}
	if c.Market.TradeHistory <= 0 {
		return errors.New("trade history must be positive")
	}
	if c.Sim.NumTraders <= 0 {
		return errors.New("trader count must be positive")
	}
	if c.Sim.TimeStep <= 0 {
		return errors.New("time step must be positive")
	}
	if c.Sim.TruncateEvery <= 0 {
		return errors.New("truncation period must be positive")
	}
	if c.Sim.Speed <= 0 || math.IsNaN(c.Sim.Speed) {
		return errors.New("speed multiplier must be positive")
	}
	if c.Traders.MakerRatio < 0 || c.Traders.MakerRatio > 1 {
		return errors.New("maker ratio must be in [0,1]")
	}
	if c.Traders.BuyRatio < 0 || c.Traders.BuyRatio > 1 {
		return errors.New("buy ratio must be in [0,1]")
	}
	if c.Traders.SmallRatio < 0 || c.Traders.MediumRatio < 0 || c.Traders.SmallRatio+c.Traders.MediumRatio > 1 {
		return errors.New("order size ratios must be non-negative and sum to at most 1")
	}
	if c.Traders.SmallMax <= 0 || c.Traders.MediumMax <= c.Traders.SmallMax || c.Traders.LargeMax <= c.Traders.MediumMax {
		return errors.New("order size buckets must be increasing and positive")
	}
	return nil
}

// InitialPriceTicks projects the configured dollar price onto the tick grid.
func (c Config) InitialPriceTicks() int64 {
	return int64(math.Round(c.Market.InitialPrice * TicksPerDollar))
}

// Dollars converts a tick price back to dollars for display surfaces.
func Dollars(ticks int64) float64 {
	return float64(ticks) / TicksPerDollar
}
