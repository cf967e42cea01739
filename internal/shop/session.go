// Package shop wires a store together with its seed customers, snapshot
// directory and optional archive, and runs whole days against them. The CLI,
// the console and the HTTP API all drive a store through a Session.
package shop

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/config"
	"github.com/talgya/storesim/internal/customer"
	"github.com/talgya/storesim/internal/engine"
	"github.com/talgya/storesim/internal/entropy"
	"github.com/talgya/storesim/internal/persistence"
	"github.com/talgya/storesim/internal/storefiles"
)

// ErrUnknownCustomer means no seed customer or resident has the given name.
var ErrUnknownCustomer = errors.New("unknown customer")

// Session is one store plus everything a driver needs around it.
type Session struct {
	Store *engine.Store
	Queue []*customer.Customer
	Files storefiles.Dir
	DB    *persistence.DB // nil when archiving is disabled
	RunID string

	cfg    *config.Config
	logger *slog.Logger
}

// Open builds a session from cfg: catalog, store, seed queue, foot traffic
// and, if a database path is set, the archive. Stock and the day counter
// are restored from the archive when it holds earlier days.
func Open(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	rng := entropy.NewSource(cfg.Simulation.Seed)
	store, err := engine.NewStore(cfg.Store.Name, cfg.Engine(), nil, rng)
	if err != nil {
		return nil, err
	}
	store.SetLogger(logger)
	store.SetSpawnConfig(cfg.Customers.Spawn)

	items, err := storefiles.LoadCatalog(cfg.Store.Catalog)
	if err != nil {
		return nil, err
	}
	if err := store.LoadCatalog(items); err != nil {
		return nil, err
	}

	if t := cfg.Simulation.Traffic; t.Enabled {
		store.Traffic = engine.NewFootTraffic(rng.Seed(), t.Amplitude, t.PeriodMinutes)
	}

	s := &Session{
		Store:  store,
		Queue:  store.Spawner.SpawnBatch(cfg.Customers.Count),
		Files:  storefiles.NewDir(cfg.Store.OutputDir, cfg.Store.Name),
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Database.Path != "" {
		if err := s.openArchive(cfg.Database.Path, rng.Seed()); err != nil {
			return nil, err
		}
	}

	logger.Info("store ready",
		"store", store.Name,
		"items", len(items),
		"customers", len(s.Queue),
		"seed", rng.Seed(),
		"open", engine.ClockString(store.Config().OpenMinute),
		"close", engine.ClockString(store.Config().CloseMinute),
	)
	return s, nil
}

func (s *Session) openArchive(path string, seed int64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		return err
	}
	s.DB = db

	if db.HasState() {
		s.logger.Info("found saved state, resuming", "path", path)
		levels, err := db.LatestStock()
		if err != nil {
			return fmt.Errorf("load saved stock: %w", err)
		}
		if err := s.Store.RestoreStock(levels); err != nil {
			return err
		}
		if day, err := db.LastDay(); err == nil {
			s.Store.SetDay(day)
		}
	}

	s.RunID, err = db.StartRun(s.Store.Name, seed)
	return err
}

// Close releases the archive, if any.
func (s *Session) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// RunDay resets the seed customers, simulates the next day, writes the day's
// stock and transaction files and archives the day.
func (s *Session) RunDay() (engine.DaySummary, error) {
	for _, c := range s.Queue {
		if err := c.Reset(); err != nil {
			return engine.DaySummary{}, fmt.Errorf("reset %s: %w", c.Name(), err)
		}
	}

	summary, err := s.Store.SimulateDay(s.cfg.DayOptions(s.Queue))
	if err != nil {
		return engine.DaySummary{}, err
	}

	records := s.Store.Ledger()
	items := s.Store.StockSnapshot()
	if err := s.Files.WriteDay(summary.Day, items, records); err != nil {
		return summary, err
	}
	if s.DB != nil {
		if err := s.DB.SaveDay(s.RunID, summary, records, items); err != nil {
			return summary, fmt.Errorf("archive day %d: %w", summary.Day, err)
		}
	}
	return summary, nil
}

// RunDays runs n consecutive days and returns their summaries.
func (s *Session) RunDays(n int) ([]engine.DaySummary, error) {
	out := make([]engine.DaySummary, 0, n)
	for i := 0; i < n; i++ {
		summary, err := s.RunDay()
		if err != nil {
			return out, err
		}
		out = append(out, summary)
	}
	return out, nil
}

// WriteUpdatedStock writes the current stock to the store directory and
// returns the file path.
func (s *Session) WriteUpdatedStock() (string, error) {
	if err := s.Files.Ensure(); err != nil {
		return "", err
	}
	path := s.Files.UpdatedStockPath()
	if err := storefiles.WriteStockFile(path, s.Store.StockSnapshot()); err != nil {
		return "", err
	}
	s.logger.Info("stock written", "path", path)
	return path, nil
}

// ClearFiles removes the CSV files from the store directory.
func (s *Session) ClearFiles() (int, error) {
	n, err := s.Files.Clear()
	if err != nil {
		return n, err
	}
	s.logger.Info("store directory cleared", "dir", s.Files.Root, "removed", n)
	return n, nil
}

// FindCustomer looks a customer up by name among residents first, then the
// seed queue. Matching ignores case.
func (s *Session) FindCustomer(name string) (*customer.Customer, error) {
	name = strings.TrimSpace(name)
	for _, c := range s.Store.Residents() {
		if strings.EqualFold(c.Name(), name) {
			return c, nil
		}
	}
	for _, c := range s.Queue {
		if strings.EqualFold(c.Name(), name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCustomer, name)
}

// Restock adds quantity to one item and returns it. Negative quantities are
// rejected so stock can only be removed by purchases.
func (s *Session) Restock(id catalog.ItemID, quantity int) (catalog.Item, error) {
	if quantity < 0 {
		return catalog.Item{}, fmt.Errorf("%w: restock quantity must be non-negative, got %d", engine.ErrInvalidOptions, quantity)
	}
	if _, err := s.Store.AdjustStock(id, float64(quantity)); err != nil {
		return catalog.Item{}, err
	}
	return s.Store.Item(id)
}
