package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/storesim/internal/engine"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "New Store", cfg.Store.Name)
	assert.Equal(t, 5, cfg.Store.IntervalMinutes)
	assert.Equal(t, engine.DefaultProbabilities(), cfg.Simulation.Probabilities)
	assert.Equal(t, 0.1, cfg.Simulation.ArrivalChance)
	assert.Equal(t, 3, cfg.Simulation.MaxArrivals)
	assert.False(t, cfg.Simulation.AllowSynthetic)
	assert.Equal(t, 100, cfg.Customers.Count)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())

	ec := cfg.Engine()
	assert.Equal(t, 540, ec.OpenMinute)
	assert.Equal(t, 1080, ec.CloseMinute)
	assert.Equal(t, 0.2, ec.LookDecay)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storesim.yaml")
	content := `
store:
  name: Corner Shop
  catalog: items.csv
  open_hour: 6.5
  close_hour: 20
  interval_minutes: 10
simulation:
  seed: 99
  probabilities:
    look: 0.6
    buy: 0.35
    leave: 0.05
  arrival_chance: 0.25
  max_arrivals: 4
  allow_synthetic: true
  traffic:
    enabled: true
    amplitude: 0.3
customers:
  count: 12
  spawn:
    min_money: 5
    max_money: 50
    min_attempts: 1
    max_attempts: 3
api:
  admin_key: ${STORESIM_TEST_KEY}
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("STORESIM_TEST_KEY", "s3cret")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Corner Shop", cfg.Store.Name)
	assert.Equal(t, "items.csv", cfg.Store.Catalog)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, 0.05, cfg.Simulation.Probabilities.Leave)
	assert.True(t, cfg.Simulation.AllowSynthetic)
	assert.True(t, cfg.Simulation.Traffic.Enabled)
	assert.Equal(t, 120.0, cfg.Simulation.Traffic.PeriodMinutes, "unset fields keep defaults")
	assert.Equal(t, 12, cfg.Customers.Count)
	assert.Equal(t, 50.0, cfg.Customers.Spawn.MaxMoney)
	assert.Equal(t, "s3cret", cfg.API.AdminKey)
	assert.Equal(t, 8080, cfg.API.Port)

	ec := cfg.Engine()
	assert.Equal(t, 390, ec.OpenMinute)
	assert.Equal(t, 1200, ec.CloseMinute)
	assert.Equal(t, 10, ec.IntervalMinutes)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Store, cfg.Store)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STORESIM_STORE_NAME", "Env Store")
	t.Setenv("STORESIM_SEED", "1234")
	t.Setenv("STORESIM_ARRIVAL_CHANCE", "0.5")
	t.Setenv("STORESIM_ALLOW_SYNTHETIC", "true")
	t.Setenv("STORESIM_API_PORT", "9999")
	t.Setenv("STORESIM_ADMIN_KEY", "k")
	t.Setenv("STORESIM_LOG_LEVEL", "trace")
	t.Setenv("STORESIM_DB_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Env Store", cfg.Store.Name)
	assert.Equal(t, int64(1234), cfg.Simulation.Seed)
	assert.Equal(t, 0.5, cfg.Simulation.ArrivalChance)
	assert.True(t, cfg.Simulation.AllowSynthetic)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, "k", cfg.API.AdminKey)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "data/storesim.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Store.Name = " " }},
		{"zero interval", func(c *Config) { c.Store.IntervalMinutes = 0 }},
		{"arrival chance", func(c *Config) { c.Simulation.ArrivalChance = 1.2 }},
		{"max arrivals", func(c *Config) { c.Simulation.MaxArrivals = 0 }},
		{"customer count", func(c *Config) { c.Customers.Count = -1 }},
		{"money range", func(c *Config) { c.Customers.Spawn.MaxMoney = 0.5 }},
		{"attempt range", func(c *Config) { c.Customers.Spawn.MinAttempts = 0 }},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"probabilities", func(c *Config) { c.Simulation.Probabilities = engine.Probabilities{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestExampleConfigLoads(t *testing.T) {
	t.Setenv("STORESIM_ADMIN_KEY", "")
	cfg, err := LoadFromFile(filepath.Join("..", "..", "storesim.example.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	def := Default()
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.Customers, cfg.Customers)
	assert.Equal(t, def.Simulation.Probabilities, cfg.Simulation.Probabilities)
}
