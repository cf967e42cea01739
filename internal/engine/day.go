package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/talgya/storesim/internal/customer"
)

// DayOptions controls arrivals for one simulated day.
type DayOptions struct {
	// Customers is the queue of specific shoppers; each visits at most once.
	Customers []*customer.Customer
	// AllowSynthetic spawns fresh customers once the queue is exhausted.
	AllowSynthetic bool
	// ArrivalChance is the per-tick probability that anyone arrives.
	ArrivalChance float64
	// MaxArrivals caps how many arrive in one tick.
	MaxArrivals int
}

// Validate checks the options are in range.
func (o DayOptions) Validate() error {
	if o.ArrivalChance < 0 || o.ArrivalChance > 1 {
		return fmt.Errorf("%w: arrival chance %v outside [0, 1]", ErrInvalidOptions, o.ArrivalChance)
	}
	if o.MaxArrivals < 1 {
		return fmt.Errorf("%w: max arrivals must be at least 1, got %d", ErrInvalidOptions, o.MaxArrivals)
	}
	return nil
}

// DaySummary describes a finished day.
type DaySummary struct {
	Day          int             `json:"day"`
	Visitors     int             `json:"visitors"`
	Transactions int             `json:"transactions"`
	Income       decimal.Decimal `json:"income"`
}

// SimulateDay runs one full business day from opening to the closing sweep.
// The ledger, resident set and transaction ids start fresh; the catalog
// carries its stock over from previous days.
func (s *Store) SimulateDay(opts DayOptions) (DaySummary, error) {
	if s.catalog == nil {
		return DaySummary{}, ErrNoCatalog
	}
	if err := opts.Validate(); err != nil {
		return DaySummary{}, err
	}

	s.clearResidents()
	s.ledger.reset()
	s.nextTransactionID = 0
	s.visitors = 0
	s.currentMinute = s.cfg.OpenMinute
	s.day++

	s.logger.Info("day opened",
		"store", s.Name,
		"day", s.day,
		"time", ClockString(s.currentMinute),
		"queue", len(opts.Customers),
		"synthetic", opts.AllowSynthetic,
	)

	queue := append([]*customer.Customer(nil), opts.Customers...)
	s.rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })

	for {
		queue = s.arrivals(queue, opts)
		if s.AdvanceOneInterval() {
			break
		}
	}

	summary := DaySummary{
		Day:          s.day,
		Visitors:     s.visitors,
		Transactions: s.ledger.Len(),
		Income:       s.ledger.Income(),
	}
	s.logger.Info("day closed",
		"store", s.Name,
		"day", summary.Day,
		"time", ClockString(s.currentMinute),
		"visitors", summary.Visitors,
		"transactions", summary.Transactions,
		"income", summary.Income.StringFixed(2),
	)
	return summary, nil
}

// arrivals admits this tick's walk-ins and returns what is left of the queue.
func (s *Store) arrivals(queue []*customer.Customer, opts DayOptions) []*customer.Customer {
	chance := opts.ArrivalChance
	if s.Traffic != nil {
		chance = s.Traffic.Modulate(chance, s.day, s.currentMinute)
	}
	if !s.rng.Chance(chance) {
		return queue
	}

	n := s.rng.IntBetween(1, opts.MaxArrivals)
	for i := 0; i < n; i++ {
		switch {
		case len(queue) > 0:
			next := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			s.Admit(next)
		case opts.AllowSynthetic && s.Spawner != nil:
			s.Admit(s.Spawner.Spawn())
		default:
			return queue
		}
	}
	return queue
}
