package engine

import (
	"math/rand"
	"time"
)

// Rand is the randomness source the simulation draws from. Injected so the
// bonus and random-event rolls are deterministic under test.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns a seeded source. A zero seed derives one from the clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
