package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/customer"
	"github.com/talgya/storesim/internal/logging"
)

// Intent is what a resident decided to do this tick.
type Intent uint8

const (
	IntentLook Intent = iota
	IntentBuy
	IntentLeave
)

func (i Intent) String() string {
	switch i {
	case IntentLook:
		return "look"
	case IntentBuy:
		return "buy"
	case IntentLeave:
		return "leave"
	default:
		return fmt.Sprintf("intent(%d)", uint8(i))
	}
}

// Action is the outcome of one resident's step.
type Action struct {
	Minute            int
	Customer          string
	Intent            Intent
	ItemID            catalog.ItemID // Set for buy attempts
	Bought            bool
	Departed          bool
	Forced            bool // Left because attempts ran out or nothing was buyable
	RemainingAttempts float64
}

// AdvanceOneInterval moves the clock forward one interval and resolves the
// tick. It returns true when the store has closed: everyone still inside is
// swept out and the day is over.
func (s *Store) AdvanceOneInterval() (dayOver bool) {
	s.currentMinute += s.cfg.IntervalMinutes
	if s.currentMinute >= s.cfg.CloseMinute {
		s.currentMinute = s.cfg.CloseMinute
		for _, name := range s.residentNames() {
			c := s.residents[name]
			s.depart(c)
			s.emit(Action{
				Minute:            s.currentMinute,
				Customer:          name,
				Intent:            IntentLeave,
				Departed:          true,
				Forced:            true,
				RemainingAttempts: c.RemainingAttempts(),
			})
		}
		return true
	}

	for _, name := range s.residentNames() {
		s.act(s.residents[name])
	}
	return false
}

// act resolves one resident's turn.
func (s *Store) act(c *customer.Customer) Action {
	a := Action{Minute: s.currentMinute, Customer: c.Name()}

	if !c.WantsToContinue() {
		a.Intent = IntentLeave
		a.Forced = true
		s.depart(c)
		a.Departed = true
		return s.finish(a, c)
	}

	a.Intent = s.drawIntent()
	switch a.Intent {
	case IntentLook:
		c.Decay(s.cfg.LookDecay)

	case IntentBuy:
		candidates := s.candidates(c.Tags())
		if len(candidates) == 0 {
			a.Forced = true
			s.depart(c)
			a.Departed = true
			break
		}
		a.ItemID = candidates[s.rng.Intn(len(candidates))]
		it, err := s.catalog.Get(a.ItemID)
		if err != nil {
			// Candidates come from the catalog itself.
			panic(fmt.Sprintf("candidate %d missing from catalog: %v", a.ItemID, err))
		}
		if c.AttemptPurchase(a.ItemID, it.Cost) {
			if _, err := s.catalog.AdjustStock(a.ItemID, -1); err != nil {
				panic(fmt.Sprintf("adjust stock for candidate %d: %v", a.ItemID, err))
			}
			a.Bought = true
		}

	case IntentLeave:
		s.depart(c)
		a.Departed = true
	}

	return s.finish(a, c)
}

func (s *Store) finish(a Action, c *customer.Customer) Action {
	a.RemainingAttempts = c.RemainingAttempts()
	s.emit(a)
	return a
}

func (s *Store) emit(a Action) {
	level := logging.LevelTrace
	if s.cfg.Verbose {
		level = slog.LevelInfo
	}
	if s.logger.Enabled(context.Background(), level) {
		s.logger.Log(context.Background(), level, "customer action",
			"time", ClockString(a.Minute),
			"customer", a.Customer,
			"intent", a.Intent,
			"item_id", a.ItemID,
			"bought", a.Bought,
			"departed", a.Departed,
			"forced", a.Forced,
			"remaining_attempts", fmt.Sprintf("%.1f", a.RemainingAttempts),
		)
	}
	if s.OnAction != nil {
		s.OnAction(a)
	}
}

func (s *Store) candidates(tags []string) []catalog.ItemID {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Candidates(tags)
}

// drawIntent makes the single weighted Look/Buy/Leave draw.
func (s *Store) drawIntent() Intent {
	p := s.cfg.Probabilities
	r := s.rng.Float64() * p.total()
	switch {
	case r < p.Look:
		return IntentLook
	case r < p.Look+p.Buy:
		return IntentBuy
	default:
		return IntentLeave
	}
}

// ClockString renders minutes since midnight as H:MM.
func ClockString(minute int) string {
	return fmt.Sprintf("%d:%02d", minute/60, minute%60)
}
