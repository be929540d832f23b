package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"
	"sync"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics if n <= 0 or crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// seededSource is a reproducible Source for replays and tests.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// seedStream is the PCG increment shared by every seeded source.
const seedStream = 0x9e3779b97f4a7c15

// NewSeededSource returns a deterministic PCG-backed Source: two sources
// built with the same seed yield the same sequence.
func NewSeededSource(seed int64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(uint64(seed), seedStream))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0. Panics if n <= 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
