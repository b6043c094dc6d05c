// Package feature implements the lap-time plugin engine.
//
// A feature is one pluggable piece of race simulation. For every lap and
// every participant, each enabled feature of the session contributes a
// duration; the sum is the participant's lap time.
//
// Features are registered explicitly at startup. A registration names the
// feature id used as the key in championship and session configs, the scope
// of auxiliary data it reads (driver, team or track), and how to decode its
// configuration and data payloads.
package feature

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/roach88/pitwall/internal/race"
)

// Scope is the entity kind a feature's auxiliary data is attached to.
type Scope string

const (
	ScopeNone   Scope = ""
	ScopeDriver Scope = "driver"
	ScopeTeam   Scope = "team"
	ScopeTrack  Scope = "track"
)

// Lap is everything a feature may read while computing one participant's
// lap time.
type Lap struct {
	Number      uint16
	Session     *race.Session
	Participant *race.Participant
	// Previous is the participant's result on the previous lap, nil on the
	// first lap.
	Previous *race.ParticipantLapResult
	// Track is the event's track, nil when the event has none.
	Track *race.Track
	Rand  *rand.Rand
}

// Feature contributes time to a lap.
type Feature interface {
	Enabled() bool
	LapTime(lap Lap) (time.Duration, error)
}

// Registration describes one feature kind.
type Registration struct {
	ID    string
	Scope Scope
	// Decode builds the feature from its configuration payload.
	Decode func(config json.RawMessage) (Feature, error)
	// ValidateData checks an auxiliary data payload. Required unless Scope
	// is ScopeNone.
	ValidateData func(data json.RawMessage) error
}

// Registry maps feature ids to registrations. It is built once at startup
// and read-only afterwards.
type Registry struct {
	regs map[string]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{regs: make(map[string]Registration)}
}

// Register adds a feature kind.
func (r *Registry) Register(reg Registration) error {
	if reg.ID == "" {
		return fmt.Errorf("register feature: empty id")
	}
	if _, ok := r.regs[reg.ID]; ok {
		return fmt.Errorf("register feature %s: already registered", reg.ID)
	}
	if reg.Decode == nil {
		return fmt.Errorf("register feature %s: missing decoder", reg.ID)
	}
	if reg.Scope != ScopeNone && reg.ValidateData == nil {
		return fmt.Errorf("register feature %s: %s scope requires a data validator", reg.ID, reg.Scope)
	}
	r.regs[reg.ID] = reg
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(reg Registration) {
	if err := r.Register(reg); err != nil {
		panic(err)
	}
}

// Lookup returns the registration for id.
func (r *Registry) Lookup(id string) (Registration, bool) {
	reg, ok := r.regs[id]
	return reg, ok
}

// IDs returns every registered feature id in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.regs))
	for id := range r.regs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Decode builds the feature set of a config map. Features are ordered by id
// so random draws happen in a stable order.
func (r *Registry) Decode(configs race.FeatureConfigs) (Set, error) {
	ids := make([]string, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	set := make(Set, 0, len(ids))
	for _, id := range ids {
		reg, ok := r.regs[id]
		if !ok {
			return nil, &UnknownError{ID: id}
		}
		f, err := reg.Decode(configs[id])
		if err != nil {
			return nil, fmt.Errorf("decode feature %s: %w", id, err)
		}
		set = append(set, f)
	}
	return set, nil
}

// ValidateConfigs checks that every config names a registered feature and
// decodes.
func (r *Registry) ValidateConfigs(configs race.FeatureConfigs) error {
	_, err := r.Decode(configs)
	return err
}

// ValidateData checks auxiliary data attached to an entity of the given
// scope. Every key must be a registered feature of that scope.
func (r *Registry) ValidateData(scope Scope, data race.FeatureData) error {
	for id, payload := range data {
		reg, ok := r.regs[id]
		if !ok {
			return &UnknownError{ID: id}
		}
		if reg.Scope != scope {
			return fmt.Errorf("feature %s: takes %q data, not %q", id, reg.Scope, scope)
		}
		if err := reg.ValidateData(payload); err != nil {
			return fmt.Errorf("feature %s data: %w", id, err)
		}
	}
	return nil
}

// UnknownError reports a feature id with no registration.
type UnknownError struct {
	ID string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown feature %q", e.ID)
}

// Set is the decoded feature set of one session.
type Set []Feature

// LapTime sums the contributions of every enabled feature. An empty or fully
// disabled set yields zero.
func (s Set) LapTime(lap Lap) (time.Duration, error) {
	var total time.Duration
	for _, f := range s {
		if !f.Enabled() {
			continue
		}
		d, err := f.LapTime(lap)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}
