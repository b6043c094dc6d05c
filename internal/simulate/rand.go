package simulate

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/roach88/pitwall/internal/race"
)

// RandSource supplies the random source for one progression call, starting
// at lap firstLap of the session identified by key.
type RandSource func(key race.SessionKey, firstLap uint16) *rand.Rand

// Unseeded returns a source that draws a fresh random seed on every call.
// Progressions are not reproducible with it; this is the default.
func Unseeded() RandSource {
	return func(race.SessionKey, uint16) *rand.Rand {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// Seeded returns a source that derives its stream from seed, the session
// key and the first lap, so the same progression always draws the same
// numbers. A zero seed selects Unseeded.
func Seeded(seed uint64) RandSource {
	if seed == 0 {
		return Unseeded()
	}
	return func(key race.SessionKey, firstLap uint16) *rand.Rand {
		h := fnv.New64a()
		h.Write([]byte(key.String()))
		return rand.New(rand.NewPCG(seed^h.Sum64(), uint64(firstLap)))
	}
}
