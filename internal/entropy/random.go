// Package entropy provides the single seedable random stream every stochastic
// decision in the store simulation draws from.
// A zero seed is replaced by one drawn from crypto/rand so unseeded runs still vary.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is a deterministic random stream. It is not safe for concurrent use;
// one engine owns one Source.
type Source struct {
	seed int64
	rng  *mrand.Rand
}

// NewSource creates a stream from seed. Seed 0 means "pick one at random".
func NewSource(seed int64) *Source {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Source{
		seed: seed,
		rng:  mrand.New(mrand.NewSource(seed)),
	}
}

// Seed returns the seed the stream was created with (after any crypto substitution).
func (s *Source) Seed() int64 {
	return s.seed
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// Intn returns a value in [0, n). Panics if n <= 0, like math/rand.
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// IntBetween returns a value in [lo, hi] inclusive.
func (s *Source) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

// Uniform returns a value in [lo, hi).
func (s *Source) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}

// Chance reports true with probability p.
func (s *Source) Chance(p float64) bool {
	return s.rng.Float64() < p
}

// Shuffle permutes n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen but return a fixed seed as a safe default.
		return 42
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
