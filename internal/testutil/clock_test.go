package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, Epoch, clock.Now())
	assert.Equal(t, int64(1), clock.Ticks())
}

func TestDeterministicClock_StepsOneSecond(t *testing.T) {
	clock := NewDeterministicClock()

	first := clock.Now()
	second := clock.Now()
	third := clock.Now()

	assert.Equal(t, time.Second, second.Sub(first))
	assert.Equal(t, time.Second, third.Sub(second))
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()

	clock.Now()
	clock.Now()
	clock.Reset()

	assert.Equal(t, int64(0), clock.Ticks())
	assert.Equal(t, Epoch, clock.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const numGoroutines = 50
	const callsPerGoroutine = 50

	var mu sync.Mutex
	seen := make(map[time.Time]bool)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				now := clock.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.Equal(t, int64(numGoroutines*callsPerGoroutine), clock.Ticks())
}
