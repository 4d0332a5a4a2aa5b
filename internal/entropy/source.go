// Package entropy provides uniform float sources for relationship
// transition sampling. The default source draws from crypto/rand; a seeded
// source gives byte-for-byte replayable simulation runs.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source yields uniform float64 values in [0, 1).
type Source interface {
	Float() float64
}

// CryptoSource draws from crypto/rand. Safe for concurrent use.
type CryptoSource struct{}

// Float returns a uniform float64 in [0, 1).
func (CryptoSource) Float() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; 0.5 keeps the
		// sampler total if it somehow does.
		return 0.5
	}
	// 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// SeededSource is a deterministic source for replayable runs and tests.
type SeededSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// NewSeeded creates a deterministic source from a seed.
func NewSeeded(seed int64) *SeededSource {
	return &SeededSource{rng: mathrand.New(mathrand.NewSource(seed))}
}

// Float returns the next uniform float64 in [0, 1).
func (s *SeededSource) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
