// Package config provides configuration loading for storesim.
// Order: defaults -> YAML file -> STORESIM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/storesim/internal/customer"
	"github.com/talgya/storesim/internal/engine"
)

// ErrInvalid means a configuration value is out of range.
var ErrInvalid = errors.New("invalid config")

// Config contains all storesim settings.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Simulation SimulationConfig `yaml:"simulation"`
	Customers  CustomersConfig  `yaml:"customers"`
	Database   DatabaseConfig   `yaml:"database"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig describes the shop being simulated.
type StoreConfig struct {
	// Name is also the directory CSV snapshots are written to.
	Name string `yaml:"name"`

	// Catalog is the path to the item CSV.
	Catalog string `yaml:"catalog"`

	// OpenHour and CloseHour may be fractional (6.5 = 6:30).
	OpenHour  float64 `yaml:"open_hour"`
	CloseHour float64 `yaml:"close_hour"`

	// IntervalMinutes is the simulated time between ticks.
	IntervalMinutes int `yaml:"interval_minutes"`

	// OutputDir is the parent of the store directory.
	OutputDir string `yaml:"output_dir"`
}

// SimulationConfig holds engine behavior and arrival settings.
type SimulationConfig struct {
	// Seed for the random stream; 0 picks one at random.
	Seed int64 `yaml:"seed"`

	Probabilities engine.Probabilities `yaml:"probabilities"`

	// LookDecay is how many buy attempts one browsing tick costs.
	LookDecay float64 `yaml:"look_decay"`

	ArrivalChance  float64 `yaml:"arrival_chance"`
	MaxArrivals    int     `yaml:"max_arrivals"`
	AllowSynthetic bool    `yaml:"allow_synthetic"`

	// Verbose logs every customer action.
	Verbose bool `yaml:"verbose"`

	Traffic TrafficConfig `yaml:"traffic"`
}

// TrafficConfig enables noise-driven swings in the arrival chance.
type TrafficConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Amplitude     float64 `yaml:"amplitude"`
	PeriodMinutes float64 `yaml:"period_minutes"`
}

// CustomersConfig controls the seed queue of reusable customers.
type CustomersConfig struct {
	Count int                  `yaml:"count"`
	Spawn customer.SpawnConfig `yaml:"spawn"`
}

// DatabaseConfig configures the SQLite archive. An empty path disables it.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Port int `yaml:"port"`

	// AdminKey guards POST endpoints. Supports ${VAR} syntax. Empty = POST disabled.
	AdminKey string `yaml:"admin_key"`
}

// LoggingConfig sets log verbosity: "info" (default), "debug", or "trace".
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a Config with the console's defaults.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Name:            "New Store",
			Catalog:         "ItemList.csv",
			OpenHour:        9,
			CloseHour:       18,
			IntervalMinutes: 5,
			OutputDir:       ".",
		},
		Simulation: SimulationConfig{
			Probabilities:  engine.DefaultProbabilities(),
			LookDecay:      0.2,
			ArrivalChance:  0.1,
			MaxArrivals:    3,
			AllowSynthetic: false,
			Traffic: TrafficConfig{
				Amplitude:     0.5,
				PeriodMinutes: 120,
			},
		},
		Customers: CustomersConfig{
			Count: 100,
			Spawn: customer.DefaultSpawnConfig(),
		},
		Database: DatabaseConfig{
			Path: "data/storesim.db",
		},
		API: APIConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path if it exists (a missing file means defaults), then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			fileCfg, err := LoadFromFile(path)
			if err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
			cfg = fileCfg
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.API.AdminKey = expandEnvVars(cfg.API.AdminKey)
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store.Name) == "" {
		return fmt.Errorf("%w: store name is empty", ErrInvalid)
	}
	if c.Store.IntervalMinutes <= 0 {
		return fmt.Errorf("%w: interval_minutes must be positive, got %d", ErrInvalid, c.Store.IntervalMinutes)
	}
	if c.Simulation.ArrivalChance < 0 || c.Simulation.ArrivalChance > 1 {
		return fmt.Errorf("%w: arrival_chance must be between 0 and 1, got %f", ErrInvalid, c.Simulation.ArrivalChance)
	}
	if c.Simulation.MaxArrivals < 1 {
		return fmt.Errorf("%w: max_arrivals must be at least 1, got %d", ErrInvalid, c.Simulation.MaxArrivals)
	}
	if c.Customers.Count < 0 {
		return fmt.Errorf("%w: customer count must be non-negative, got %d", ErrInvalid, c.Customers.Count)
	}
	sp := c.Customers.Spawn
	if sp.MinMoney < 0 || sp.MaxMoney < sp.MinMoney {
		return fmt.Errorf("%w: money range [%v, %v]", ErrInvalid, sp.MinMoney, sp.MaxMoney)
	}
	if sp.MinAttempts <= 0 || sp.MaxAttempts < sp.MinAttempts {
		return fmt.Errorf("%w: attempts range [%v, %v]", ErrInvalid, sp.MinAttempts, sp.MaxAttempts)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("%w: log level %s (valid: info, debug, trace, or empty for default)", ErrInvalid, c.Logging.Level)
	}

	if err := c.Engine().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Engine converts the settings into an engine configuration. Opening hours
// are clamped the way engine.OpeningWindow describes.
func (c *Config) Engine() engine.Config {
	open, closing := engine.OpeningWindow(c.Store.OpenHour, c.Store.CloseHour)
	return engine.Config{
		OpenMinute:      open,
		CloseMinute:     closing,
		IntervalMinutes: c.Store.IntervalMinutes,
		Probabilities:   c.Simulation.Probabilities,
		LookDecay:       c.Simulation.LookDecay,
		Verbose:         c.Simulation.Verbose,
	}
}

// DayOptions returns arrival options for one day with the given queue.
func (c *Config) DayOptions(queue []*customer.Customer) engine.DayOptions {
	return engine.DayOptions{
		Customers:      queue,
		AllowSynthetic: c.Simulation.AllowSynthetic,
		ArrivalChance:  c.Simulation.ArrivalChance,
		MaxArrivals:    c.Simulation.MaxArrivals,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STORESIM_STORE_NAME"); v != "" {
		cfg.Store.Name = v
	}
	if v := os.Getenv("STORESIM_CATALOG"); v != "" {
		cfg.Store.Catalog = v
	}
	if v := os.Getenv("STORESIM_OUTPUT_DIR"); v != "" {
		cfg.Store.OutputDir = v
	}
	if v := os.Getenv("STORESIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = n
		}
	}
	if v := os.Getenv("STORESIM_ARRIVAL_CHANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.ArrivalChance = f
		}
	}
	if v := os.Getenv("STORESIM_ALLOW_SYNTHETIC"); v != "" {
		cfg.Simulation.AllowSynthetic = v == "true" || v == "1"
	}
	if v := os.Getenv("STORESIM_VERBOSE"); v != "" {
		cfg.Simulation.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("STORESIM_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("STORESIM_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}
	if v := os.Getenv("STORESIM_ADMIN_KEY"); v != "" {
		cfg.API.AdminKey = v
	}
	if v := os.Getenv("STORESIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
