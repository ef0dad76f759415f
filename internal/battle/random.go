package battle

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// RandomSource supplies the draws used for hit and damage rolls.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntRange returns a value in [min, max], inclusive on both ends.
	IntRange(min, max int) int
}

type seededSource struct {
	rnd *rand.Rand
}

// NewSeededSource returns a deterministic source. The same seed always yields
// the same sequence of draws.
func NewSeededSource(seed int64) RandomSource {
	return &seededSource{rnd: rand.New(rand.NewSource(seed))}
}

// NewSource returns a source seeded from crypto/rand.
func NewSource() (RandomSource, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeededSource(seed), nil
}

// NewSeed generates a high-entropy seed.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func (s *seededSource) Float64() float64 {
	return s.rnd.Float64()
}

func (s *seededSource) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rnd.Intn(max-min+1)
}
