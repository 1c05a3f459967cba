package rng

import (
	"math/rand"
	"time"
)

// Source is the only randomness the engine consumes. Float64 is uniform in [0,1),
// Intn uniform in [0,n), and Read supplies id entropy.
type Source interface {
	Float64() float64
	Intn(n int) int
	Read(p []byte) (int, error)
}

type Rand struct{ r *rand.Rand }

// New returns a seeded source; seed 0 seeds from the wall clock.
func New(seed int64) *Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

func (s *Rand) Float64() float64 { return s.r.Float64() }
func (s *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.Intn(n)
}
func (s *Rand) Read(p []byte) (int, error) { return s.r.Read(p) }

// Percent draws uniformly from [0,100).
func Percent(src Source) float64 { return src.Float64() * 100 }

// Between draws an integer uniformly from [lo,hi].
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// Pick returns a uniformly chosen element, or the zero value for an empty slice.
func Pick[T any](src Source, xs []T) T {
	var zero T
	if len(xs) == 0 {
		return zero
	}
	return xs[src.Intn(len(xs))]
}
