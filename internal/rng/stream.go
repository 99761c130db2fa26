// Package rng implements seeded, forkable random streams.
//
// Every value a Stream produces is a pure function of (seed, label path,
// draw index). Nothing in this package reads the clock or any other
// external entropy source, so replaying a run from its seed reproduces
// every draw exactly.
package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
)

// Stream is a deterministic random stream backed by a SplitMix64 core.
// A Stream is exclusively owned by the scope that created it and must not
// be shared between concurrent consumers.
type Stream struct {
	state uint64
	draws uint64
}

// New creates a root stream from a run seed.
func New(seed int64) *Stream {
	return &Stream{state: uint64(seed)}
}

// step advances the SplitMix64 state by one draw.
func (s *Stream) step() uint64 {
	s.state += 0x9E3779B97F4A7C15
	s.draws++
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Next advances the stream and returns the high 32 bits of the draw.
func (s *Stream) Next() uint32 {
	return uint32(s.step() >> 32)
}

// Fork derives an independent child stream from the parent and a label.
//
// Forking consumes exactly two draws from the parent, so a fork is
// observable in the parent's sequence. The child seed is
// HMAC-SHA256(key=the two parent draws, msg=label), which makes forks
// with equal labels from equal parent states identical, and forks with
// different labels diverge.
func (s *Stream) Fork(label string) *Stream {
	var key [16]byte
	binary.LittleEndian.PutUint64(key[:8], s.step())
	binary.LittleEndian.PutUint64(key[8:], s.step())
	m := hmac.New(sha256.New, key[:])
	m.Write([]byte(label))
	sum := m.Sum(nil)
	return &Stream{state: binary.LittleEndian.Uint64(sum[:8])}
}

// Draws returns the number of draws taken from this stream so far.
func (s *Stream) Draws() uint64 {
	return s.draws
}

// Int returns a value in [min, max] inclusive.
func (s *Stream) Int(min, max int) int {
	if min >= max {
		return min
	}
	span := uint64(max-min) + 1
	return min + int(s.step()%span)
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.step() % uint64(n))
}

// Float returns a value in [0, 1) with 53 bits of precision.
func (s *Stream) Float() float64 {
	return float64(s.step()>>11) / (1 << 53)
}

// Bool returns true with probability p. Out-of-range p clamps to [0, 1],
// but a draw is consumed either way so callers stay in sequence.
func (s *Stream) Bool(p float64) bool {
	f := s.Float()
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return f < p
}

// Choose returns a uniformly drawn element of xs.
// It panics on an empty slice, matching the contract of indexing.
func Choose[T any](s *Stream, xs []T) T {
	return xs[s.Intn(len(xs))]
}

// Shuffle permutes xs in place with a Fisher-Yates walk.
func Shuffle[T any](s *Stream, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
