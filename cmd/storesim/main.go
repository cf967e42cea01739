// Command storesim simulates a retail store one business day at a time.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/storesim/internal/config"
	"github.com/talgya/storesim/internal/logging"
	"github.com/talgya/storesim/internal/shop"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("storesim failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "storesim",
		Short: "Store simulator - agent-based retail day simulation",
		Long: `storesim simulates a single store: customers arrive, browse, buy what
their budgets and the shelves allow, and leave. Each simulated day writes a
stock snapshot and a transaction ledger to the store directory.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "storesim.yaml", "Config file (missing file = defaults)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")
	rootCmd.PersistentFlags().String("catalog", "", "Item catalog CSV (overrides config)")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed (0 = config value or random)")
	rootCmd.PersistentFlags().Bool("no-db", false, "Disable the SQLite archive")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log every customer action")

	rootCmd.AddCommand(
		newSimulateCmd(),
		newConsoleCmd(),
		newServeCmd(),
		newStockCmd(),
	)
	return rootCmd
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.Store.Catalog = v
	}
	if v, _ := cmd.Flags().GetInt64("seed"); v != 0 {
		cfg.Simulation.Seed = v
	}
	if noDB, _ := cmd.Flags().GetBool("no-db"); noDB {
		cfg.Database.Path = ""
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Simulation.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession loads config, installs the logger and opens the store.
// Logs go to stderr so command output stays clean.
func openSession(cmd *cobra.Command) (*shop.Session, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)
	slog.SetDefault(logger)

	session, err := shop.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return session, cfg, nil
}
