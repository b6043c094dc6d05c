package testutil

import "sync"

// SequentialIDs hands out ids 1, 2, 3, ... in call order.
//
// Scenario goldens depend on stable ids, so tests swap this in for the
// UUIDv7-based generator.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu   sync.Mutex
	next int64
}

// NewSequentialIDs returns a generator whose first id is start. A start below
// 1 is treated as 1.
func NewSequentialIDs(start int64) *SequentialIDs {
	if start < 1 {
		start = 1
	}
	return &SequentialIDs{next: start}
}

// NewID returns the next id.
func (g *SequentialIDs) NewID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}
