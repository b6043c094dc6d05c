package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7_PositiveAndIncreasing(t *testing.T) {
	var g Generator = UUIDv7{}

	prev := g.NewID()
	require.Positive(t, prev)
	for i := 0; i < 1000; i++ {
		id := g.NewID()
		require.Greater(t, id, prev)
		prev = id
	}
}

func TestFunc(t *testing.T) {
	n := int64(0)
	g := Func(func() int64 { n++; return n })

	assert.Equal(t, int64(1), g.NewID())
	assert.Equal(t, int64(2), g.NewID())
}
