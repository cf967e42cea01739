// Foot traffic is smooth simplex noise over (day, time of day) that scales the
// arrival chance up and down, giving busy and quiet stretches.
package engine

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// FootTraffic modulates the per-tick arrival chance.
type FootTraffic struct {
	noise     opensimplex.Noise
	Amplitude float64 // 0 = no effect, 1 = chance swings between 0 and 2x
	Period    float64 // Minutes per unit of noise space; larger = slower swings
}

// NewFootTraffic creates a modulator. Same seed, same traffic pattern.
func NewFootTraffic(seed int64, amplitude, period float64) *FootTraffic {
	if period <= 0 {
		period = 120
	}
	return &FootTraffic{
		noise:     opensimplex.NewNormalized(seed),
		Amplitude: math.Max(0, math.Min(amplitude, 1)),
		Period:    period,
	}
}

// Modulate returns chance scaled by the traffic level at (day, minute),
// clamped to [0, 1].
func (f *FootTraffic) Modulate(chance float64, day, minute int) float64 {
	level := f.noise.Eval2(float64(day)*7.3, float64(minute)/f.Period) // [0, 1]
	scaled := chance * (1 + f.Amplitude*(2*level-1))
	return math.Max(0, math.Min(scaled, 1))
}
