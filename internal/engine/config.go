package engine

import (
	"fmt"
	"math"
)

// Probabilities is the Look/Buy/Leave split for a resident's per-tick intent.
// Values are relative weights; they need not sum to 1.
type Probabilities struct {
	Look  float64 `yaml:"look"`
	Buy   float64 `yaml:"buy"`
	Leave float64 `yaml:"leave"`
}

// DefaultProbabilities returns the 60/37/3 split.
func DefaultProbabilities() Probabilities {
	return Probabilities{Look: 0.60, Buy: 0.37, Leave: 0.03}
}

func (p Probabilities) total() float64 {
	return p.Look + p.Buy + p.Leave
}

// Config holds the engine's clock and behavior constants.
type Config struct {
	OpenMinute      int
	CloseMinute     int
	IntervalMinutes int
	Probabilities   Probabilities
	LookDecay       float64 // Attempts lost per Look action
	Verbose         bool    // Log every customer action at info
}

// DefaultConfig opens 9:00 to 18:00 with a 5 minute action interval.
func DefaultConfig() Config {
	return Config{
		OpenMinute:      9 * 60,
		CloseMinute:     18 * 60,
		IntervalMinutes: 5,
		Probabilities:   DefaultProbabilities(),
		LookDecay:       0.2,
	}
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	switch {
	case c.IntervalMinutes <= 0:
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidOptions, c.IntervalMinutes)
	case c.OpenMinute < 0 || c.CloseMinute > 24*60 || c.OpenMinute > c.CloseMinute:
		return fmt.Errorf("%w: bad opening window %d-%d", ErrInvalidOptions, c.OpenMinute, c.CloseMinute)
	case c.Probabilities.Look < 0 || c.Probabilities.Buy < 0 || c.Probabilities.Leave < 0:
		return fmt.Errorf("%w: intent probabilities must be non-negative", ErrInvalidOptions)
	case c.Probabilities.total() <= 0:
		return fmt.Errorf("%w: intent probabilities sum to zero", ErrInvalidOptions)
	case c.LookDecay < 0:
		return fmt.Errorf("%w: look decay must be non-negative", ErrInvalidOptions)
	}
	return nil
}

// OpeningWindow converts opening hours to minutes. Hours are clamped to
// [0, 24]; if the store would open after it closes, 9 to 17 is used instead.
func OpeningWindow(openHour, closeHour float64) (openMinute, closeMinute int) {
	clamp := func(h float64) float64 {
		return math.Min(math.Max(h, 0), 24)
	}
	openHour, closeHour = clamp(openHour), clamp(closeHour)
	if openHour > closeHour {
		openHour, closeHour = 9, 17
	}
	return int(math.Round(openHour * 60)), int(math.Round(closeHour * 60))
}
