// Package engine provides the store simulation: the fixed-interval clock,
// customer arrivals, the per-tick action state machine and the day's
// transaction ledger.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/customer"
	"github.com/talgya/storesim/internal/entropy"
)

var (
	// ErrNotResident means the operation requires the customer to be inside the store.
	ErrNotResident = errors.New("customer is not in the store")

	// ErrNoCatalog means no catalog has been loaded yet.
	ErrNoCatalog = errors.New("no catalog loaded")

	// ErrInvalidOptions means day options or engine config are out of range.
	ErrInvalidOptions = errors.New("invalid options")
)

// Store is one simulated shop. It is single-threaded: callers that share a
// Store across goroutines must serialize access themselves.
type Store struct {
	Name string

	cfg     Config
	catalog *catalog.Catalog
	rng     *entropy.Source
	logger  *slog.Logger

	// Spawner creates synthetic walk-ins once the day's queue runs dry.
	Spawner *customer.Spawner
	// Traffic optionally modulates the arrival chance over the day.
	Traffic *FootTraffic
	// OnAction, if set, is called after every resolved customer action.
	OnAction func(Action)

	spawnCfg          customer.SpawnConfig
	currentMinute     int
	day               int
	residents         map[string]*customer.Customer
	ledger            Ledger
	nextTransactionID int
	visitors          int
}

// NewStore creates a store. cat may be nil until LoadCatalog is called.
func NewStore(name string, cfg Config, cat *catalog.Catalog, rng *entropy.Source) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = entropy.NewSource(0)
	}
	s := &Store{
		Name:          name,
		cfg:           cfg,
		catalog:       cat,
		rng:           rng,
		logger:        slog.Default(),
		spawnCfg:      customer.DefaultSpawnConfig(),
		currentMinute: cfg.OpenMinute,
		residents:     make(map[string]*customer.Customer),
	}
	s.rebuildSpawner()
	return s, nil
}

// SetLogger replaces the logger (slog.Default by default).
func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// SetSpawnConfig changes the ranges used for synthetic customers.
func (s *Store) SetSpawnConfig(cfg customer.SpawnConfig) {
	s.spawnCfg = cfg
	s.rebuildSpawner()
}

func (s *Store) rebuildSpawner() {
	var tags []string
	if s.catalog != nil {
		tags = s.catalog.Groups().Tags()
	}
	s.Spawner = customer.NewSpawner(s.spawnCfg, tags, s.rng)
}

// Config returns the engine configuration.
func (s *Store) Config() Config { return s.cfg }

// Rand returns the store's random stream.
func (s *Store) Rand() *entropy.Source { return s.rng }

// Day returns the number of days simulated so far.
func (s *Store) Day() int { return s.day }

// SetDay sets the day counter, used when resuming from saved state.
func (s *Store) SetDay(day int) { s.day = day }

// CurrentMinute returns the store clock in minutes since midnight.
func (s *Store) CurrentMinute() int { return s.currentMinute }

// LoadCatalog replaces the catalog with records. A duplicate id fails the
// load and leaves the store untouched.
func (s *Store) LoadCatalog(records []catalog.Item) error {
	cat, err := catalog.New(records)
	if err != nil {
		return err
	}
	s.catalog = cat
	s.rebuildSpawner()
	s.logger.Info("catalog loaded", "store", s.Name, "items", cat.Len(), "tags", len(cat.Groups().Tags()))
	return nil
}

// HasCatalog reports whether a catalog is loaded.
func (s *Store) HasCatalog() bool {
	return s.catalog != nil
}

// Item looks up one item.
func (s *Store) Item(id catalog.ItemID) (catalog.Item, error) {
	if s.catalog == nil {
		return catalog.Item{}, ErrNoCatalog
	}
	return s.catalog.Get(id)
}

// StockSnapshot returns every item with its current stock, in catalog order.
func (s *Store) StockSnapshot() []catalog.Item {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Items()
}

// AdjustStock adds delta to an item's stock and returns the new level.
func (s *Store) AdjustStock(id catalog.ItemID, delta float64) (int, error) {
	if s.catalog == nil {
		return 0, ErrNoCatalog
	}
	return s.catalog.AdjustStock(id, delta)
}

// LowStock returns the items whose stock is at most threshold.
func (s *Store) LowStock(threshold int) []catalog.Item {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.ItemsWithStockAtMost(threshold)
}

// RestockLow adds amount to every item at or below threshold and returns the
// updated items. A negative amount is rejected with ErrInvalidOptions.
func (s *Store) RestockLow(threshold int, amount int) ([]catalog.Item, error) {
	if s.catalog == nil {
		return nil, ErrNoCatalog
	}
	if amount < 0 {
		return nil, fmt.Errorf("%w: restock amount must be non-negative, got %d", ErrInvalidOptions, amount)
	}
	low := s.catalog.ItemsWithStockAtMost(threshold)
	for i, it := range low {
		level, err := s.catalog.AdjustStock(it.ID, float64(amount))
		if err != nil {
			return nil, err
		}
		low[i].Stock = level
	}
	s.logger.Info("restocked low items", "threshold", threshold, "amount", amount, "items", len(low))
	return low, nil
}

// RestoreStock sets stock levels from a saved snapshot. Unknown ids are skipped.
func (s *Store) RestoreStock(levels map[catalog.ItemID]int) error {
	if s.catalog == nil {
		return ErrNoCatalog
	}
	for id, level := range levels {
		it, err := s.catalog.Get(id)
		if err != nil {
			s.logger.Warn("saved stock for unknown item", "item_id", id)
			continue
		}
		if _, err := s.catalog.AdjustStock(id, float64(level-it.Stock)); err != nil {
			return fmt.Errorf("restore stock: %w", err)
		}
	}
	return nil
}

// Ledger returns the current day's transaction records.
func (s *Store) Ledger() []TransactionRecord {
	return s.ledger.Records()
}

// Income returns the total spent over the current day's ledger, rounded to cents.
func (s *Store) Income() decimal.Decimal {
	return s.ledger.Income()
}

// Residents returns the customers currently inside, ordered by name.
func (s *Store) Residents() []*customer.Customer {
	out := make([]*customer.Customer, 0, len(s.residents))
	for _, name := range s.residentNames() {
		out = append(out, s.residents[name])
	}
	return out
}

// IsResident reports whether a customer with this name is inside.
func (s *Store) IsResident(name string) bool {
	_, ok := s.residents[name]
	return ok
}

// residentNames freezes the resident set for one pass. Departures mutate
// the map, so every walk over residents goes through this snapshot.
func (s *Store) residentNames() []string {
	return slices.Sorted(maps.Keys(s.residents))
}

// Admit lets a customer in at the current minute and returns the admitted
// customer. If the name is already inside, a copy with " ?" appended to the
// name is admitted instead.
func (s *Store) Admit(c *customer.Customer) *customer.Customer {
	name := c.Name()
	if _, taken := s.residents[name]; taken {
		for {
			name += " ?"
			if _, taken := s.residents[name]; !taken {
				break
			}
		}
		s.logger.Warn("customer already in store, renaming", "customer", c.Name(), "admitted_as", name)
		c = c.Clone(name)
	}

	c.Enter(s.currentMinute)
	s.residents[name] = c
	s.visitors++
	s.logger.Debug("customer arrived", "customer", name, "time", ClockString(s.currentMinute))
	return c
}

// Depart removes a resident and records their visit in the ledger.
func (s *Store) Depart(name string) (TransactionRecord, error) {
	c, ok := s.residents[name]
	if !ok {
		return TransactionRecord{}, fmt.Errorf("depart %q: %w", name, ErrNotResident)
	}
	return s.depart(c), nil
}

// depart is the only path out of the resident set.
func (s *Store) depart(c *customer.Customer) TransactionRecord {
	entered, _ := c.EntryMinute()
	rec := TransactionRecord{
		ID:           s.nextTransactionID,
		CustomerName: c.Name(),
		Items:        c.Purchases().Lines(),
		AmountSpent:  c.Spent(),
		TimeEntered:  entered,
		TimeLeft:     s.currentMinute,
	}
	s.nextTransactionID++
	s.ledger.Append(rec)

	delete(s.residents, c.Name())
	c.Leave()
	return rec
}

// Act runs one state-machine step for a resident.
func (s *Store) Act(name string) (Action, error) {
	c, ok := s.residents[name]
	if !ok {
		return Action{}, fmt.Errorf("act %q: %w", name, ErrNotResident)
	}
	return s.act(c), nil
}

// clearResidents drops anyone left inside without recording a visit.
func (s *Store) clearResidents() {
	for _, name := range s.residentNames() {
		s.residents[name].Leave()
	}
	s.residents = make(map[string]*customer.Customer)
}
