// Package idgen generates entity identifiers.
package idgen

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Generator produces positive, unique int64 ids.
type Generator interface {
	NewID() int64
}

// UUIDv7 derives ids from the leading 64 bits of a UUIDv7: the 48-bit
// millisecond timestamp, the version nibble and the 12-bit sub-millisecond
// counter. Ids from one process are strictly increasing.
type UUIDv7 struct{}

// NewID returns the next id.
func (UUIDv7) NewID() int64 {
	u := uuid.Must(uuid.NewV7())
	return int64(binary.BigEndian.Uint64(u[:8]) &^ (1 << 63))
}

// Func adapts a plain function to Generator.
type Func func() int64

// NewID calls f.
func (f Func) NewID() int64 { return f() }
