package params

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero initial price", func(c *Config) { c.Market.InitialPrice = 0 }},
		{"negative initial price", func(c *Config) { c.Market.InitialPrice = -5 }},
		{"NaN initial price", func(c *Config) { c.Market.InitialPrice = math.NaN() }},
		{"zero candle interval", func(c *Config) { c.Market.CandleInterval = 0 }},
		{"zero candle history", func(c *Config) { c.Market.CandleHistory = 0 }},
		{"zero trade history", func(c *Config) { c.Market.TradeHistory = 0 }},
		{"no traders", func(c *Config) { c.Sim.NumTraders = 0 }},
		{"zero time step", func(c *Config) { c.Sim.TimeStep = 0 }},
		{"zero truncation period", func(c *Config) { c.Sim.TruncateEvery = 0 }},
		{"zero speed", func(c *Config) { c.Sim.Speed = 0 }},
		{"NaN speed", func(c *Config) { c.Sim.Speed = math.NaN() }},
		{"maker ratio above one", func(c *Config) { c.Traders.MakerRatio = 1.5 }},
		{"negative buy ratio", func(c *Config) { c.Traders.BuyRatio = -0.1 }},
		{"size ratios above one", func(c *Config) { c.Traders.SmallRatio, c.Traders.MediumRatio = 0.8, 0.3 }},
		{"non-increasing size buckets", func(c *Config) { c.Traders.MediumMax = c.Traders.SmallMax }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIM_INITIAL_PRICE", "250.5")
	t.Setenv("SIM_NUM_TRADERS", "50")
	t.Setenv("SIM_TIME_STEP_MS", "250")
	t.Setenv("SIM_CANDLE_INTERVAL_S", "30")
	t.Setenv("SIM_SPEED", "2.5")
	t.Setenv("SIM_SEED", "12345")
	t.Setenv("API_ADDR", ":9090")

	cfg := LoadFromEnv("")
	require.Equal(t, 250.5, cfg.Market.InitialPrice)
	require.Equal(t, 50, cfg.Sim.NumTraders)
	require.Equal(t, 250*time.Millisecond, cfg.Sim.TimeStep)
	require.Equal(t, 30*time.Second, cfg.Market.CandleInterval)
	require.Equal(t, 2.5, cfg.Sim.Speed)
	require.Equal(t, int64(12345), cfg.Sim.Seed)
	require.Equal(t, ":9090", cfg.Server.Addr)

	// Untouched settings keep their defaults.
	require.Equal(t, 1000, cfg.Market.CandleHistory)
	require.Equal(t, 0.2, cfg.Traders.MakerRatio)
}

func TestEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SIM_INITIAL_PRICE", "not-a-number")
	t.Setenv("SIM_NUM_TRADERS", "ten")

	cfg := LoadFromEnv("")
	require.Equal(t, 100.0, cfg.Market.InitialPrice)
	require.Equal(t, 1000, cfg.Sim.NumTraders)
}

func TestTickConversion(t *testing.T) {
	cfg := Default()
	require.Equal(t, int64(10000), cfg.InitialPriceTicks())

	cfg.Market.InitialPrice = 100.505
	require.Equal(t, int64(10051), cfg.InitialPriceTicks(), "rounds to the nearest tick")

	require.Equal(t, 100.5, Dollars(10050))
	require.Equal(t, 0.01, Dollars(1))
}
