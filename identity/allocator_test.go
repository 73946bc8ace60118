package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomAllocatorUnique(t *testing.T) {
	alloc := New()
	seen := make(map[uint64]struct{})

	for i := 0; i < 10000; i++ {
		id := alloc.NewID()
		assert.NotZero(t, id)
		_, dup := seen[id]
		assert.False(t, dup, "Expected unique id, got duplicate %d", id)
		seen[id] = struct{}{}
	}
}

func TestSeededAllocatorDeterministic(t *testing.T) {
	a := NewSeeded(1, 2)
	b := NewSeeded(1, 2)

	for i := 0; i < 16; i++ {
		assert.Equal(t, a.NewID(), b.NewID())
	}
}

func TestAllocatorConcurrent(t *testing.T) {
	alloc := New()

	var mu sync.Mutex
	seen := make(map[uint64]struct{})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := alloc.NewID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 8*500)
}

func TestSequence(t *testing.T) {
	var seq Sequence
	assert.Equal(t, uint64(1), seq.NewID())
	assert.Equal(t, uint64(2), seq.NewID())
}
