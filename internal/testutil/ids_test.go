package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDs_CountsFromStart(t *testing.T) {
	g := NewSequentialIDs(10)

	assert.Equal(t, int64(10), g.NewID())
	assert.Equal(t, int64(11), g.NewID())
}

func TestSequentialIDs_ClampsStart(t *testing.T) {
	assert.Equal(t, int64(1), NewSequentialIDs(0).NewID())
	assert.Equal(t, int64(1), NewSequentialIDs(-4).NewID())
}

func TestSequentialIDs_ThreadSafe(t *testing.T) {
	g := NewSequentialIDs(1)
	const n = 200

	ids := make(chan int64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ids <- g.NewID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
