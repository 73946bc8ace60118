package identity

import (
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// Allocator hands out resource identities. Zero is never returned.
type Allocator interface {
	NewID() uint64
}

type RandomAllocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New seeds a generator from a random UUID.
func New() *RandomAllocator {
	seed := uuid.New()
	return NewSeeded(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
}

// NewSeeded returns a deterministic allocator for tests and tooling.
func NewSeeded(seed1, seed2 uint64) *RandomAllocator {
	return &RandomAllocator{
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (a *RandomAllocator) NewID() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	for {
		if id := a.rng.Uint64(); id != 0 {
			return id
		}
	}
}

// Sequence allocates 1, 2, 3, ... and is meant for tests that assert ids.
type Sequence struct {
	mu   sync.Mutex
	next uint64
}

func (s *Sequence) NewID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	return s.next
}
