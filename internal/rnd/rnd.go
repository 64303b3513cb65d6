// Package rnd provides the injectable random source used by every
// probabilistic combat roll (accuracy, crit, block, escape, AI choice).
package rnd

import (
	"math/rand/v2"
	"time"
)

// Source is the only randomness the combat engine consumes.
// IntN returns a uniform integer in [0, n). n must be > 0.
type Source interface {
	IntN(n int) int
}

// Seeded is a deterministic PCG-backed Source.
type Seeded struct {
	rng *rand.Rand
}

// NewSeeded creates a Source from seed. Seed 0 uses the current time.
func NewSeeded(seed uint64) *Seeded {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Seeded{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a uniform integer in [0, n).
func (s *Seeded) IntN(n int) int {
	return s.rng.IntN(n)
}

// Roll100 draws a uniform percentile roll in [1, 100].
func Roll100(s Source) int {
	return s.IntN(100) + 1
}

// Chance reports whether a percentile roll in [1, 100] lands at or below percent.
func Chance(s Source, percent int) bool {
	return Roll100(s) <= percent
}

// Pick returns a uniform index in [0, n), or -1 when n <= 0.
func Pick(s Source, n int) int {
	if n <= 0 {
		return -1
	}
	return s.IntN(n)
}
