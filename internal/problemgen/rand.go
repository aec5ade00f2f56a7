package problemgen

import "math/rand/v2"

// Rand is the random source the generator draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	// IntN returns a value in [0, n). Panics if n <= 0.
	IntN(n int) int
}

// NewRand returns a PCG-backed source seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// between returns a uniform value in [lo, hi]. Callers guarantee lo <= hi.
func between(r Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

func pick[T any](r Rand, items []T) T {
	return items[r.IntN(len(items))]
}
