package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pitwall/internal/race"
)

// Scenario is a race weekend described in YAML: the championship and its
// roster, the operations to run against it, and what must hold afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed makes lap progression reproducible. Zero leaves it random, which
	// only suits scenarios whose features draw no random numbers.
	Seed uint64 `yaml:"seed,omitempty"`

	Championship ChampionshipSetup `yaml:"championship"`
	Tracks       []TrackSetup      `yaml:"tracks"`
	Drivers      []DriverSetup     `yaml:"drivers"`
	Events       []EventSetup      `yaml:"events"`

	// Sessions are created in order, so their order within an event is
	// the event's schedule.
	Sessions []SessionSetup `yaml:"sessions"`

	// Flow is run after setup. Each step may expect an error outcome.
	Flow []FlowStep `yaml:"flow"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ChampionshipSetup creates the scenario's championship.
type ChampionshipSetup struct {
	Name     string                    `yaml:"name"`
	Features map[string]map[string]any `yaml:"features,omitempty"`
}

// TrackSetup creates one track.
type TrackSetup struct {
	Ref               string                    `yaml:"ref"`
	Name              string                    `yaml:"name"`
	LengthMillimeters int64                     `yaml:"lengthMillimeters"`
	City              string                    `yaml:"city,omitempty"`
	Country           string                    `yaml:"country,omitempty"`
	Data              map[string]map[string]any `yaml:"data,omitempty"`
}

// DriverSetup creates one driver. Roster order is file order.
type DriverSetup struct {
	Ref          string                    `yaml:"ref"`
	Name         []string                  `yaml:"name"`
	Abbreviation string                    `yaml:"abbreviation,omitempty"`
	Number       string                    `yaml:"number,omitempty"`
	Data         map[string]map[string]any `yaml:"data,omitempty"`
}

// EventSetup creates one event at a track.
type EventSetup struct {
	Ref   string `yaml:"ref"`
	Name  string `yaml:"name"`
	Track string `yaml:"track"`
}

// SessionSetup creates one session and appends it to its event's schedule.
type SessionSetup struct {
	Ref      string `yaml:"ref"`
	Event    string `yaml:"event"`
	Name     string `yaml:"name"`
	LapCount uint16 `yaml:"lapCount"`
}

// Flow operations.
const (
	OpStart    = "start"
	OpProgress = "progress"
	OpFinish   = "finish"
	OpSetState = "set_state"
)

// FlowStep runs one session operation.
type FlowStep struct {
	// Invoke is the operation: start, progress, finish or set_state.
	Invoke string `yaml:"invoke"`

	// Session is the ref of the target session.
	Session string `yaml:"session"`

	// Laps is the progress target (progress only).
	Laps uint16 `yaml:"laps,omitempty"`

	// State is the requested state (set_state only).
	State string `yaml:"state,omitempty"`

	// Stale sends the version the session had before its last successful
	// operation instead of the current one.
	Stale bool `yaml:"stale,omitempty"`

	// Expect names the error outcome the step must produce. If nil, the
	// step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected outcome.
type ExpectClause struct {
	// Error is an outcome code such as SCHEDULE_CONFLICT or VERSION_CONFLICT.
	Error string `yaml:"error"`
}

// Assertion types
const (
	AssertStandings        = "standings"
	AssertState            = "state"
	AssertElapsedLaps      = "elapsed_laps"
	AssertPreviousFinished = "previous_finished"
	AssertTraceCount       = "trace_count"
)

// Assertion validates the final state or the trace.
type Assertion struct {
	Type string `yaml:"type"`

	// Session is the ref of the session checked (all types but trace_count).
	Session string `yaml:"session,omitempty"`

	// Order lists driver refs from first to last (standings).
	Order []string `yaml:"order,omitempty"`

	// State is the expected session state (state).
	State string `yaml:"state,omitempty"`

	// Laps is the expected elapsed lap count (elapsed_laps).
	Laps *uint16 `yaml:"laps,omitempty"`

	// Finished is the expected PreviousSessionHasFinished flag
	// (previous_finished).
	Finished *bool `yaml:"finished,omitempty"`

	// Invoke and Outcome select the trace events counted (trace_count).
	Invoke  string `yaml:"invoke,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
	Count   int    `yaml:"count,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or references undefined refs.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and every ref
// resolves.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Championship.Name == "" {
		return fmt.Errorf("championship.name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	tracks, err := collectRefs("tracks", len(s.Tracks), func(i int) string { return s.Tracks[i].Ref })
	if err != nil {
		return err
	}
	drivers, err := collectRefs("drivers", len(s.Drivers), func(i int) string { return s.Drivers[i].Ref })
	if err != nil {
		return err
	}
	events, err := collectRefs("events", len(s.Events), func(i int) string { return s.Events[i].Ref })
	if err != nil {
		return err
	}
	sessions, err := collectRefs("sessions", len(s.Sessions), func(i int) string { return s.Sessions[i].Ref })
	if err != nil {
		return err
	}

	for i, e := range s.Events {
		if !tracks[e.Track] {
			return fmt.Errorf("events[%d]: unknown track %q", i, e.Track)
		}
	}
	for i, sess := range s.Sessions {
		if !events[sess.Event] {
			return fmt.Errorf("sessions[%d]: unknown event %q", i, sess.Event)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step, sessions); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a, sessions, drivers); err != nil {
			return err
		}
	}
	return nil
}

func collectRefs(section string, n int, ref func(int) string) (map[string]bool, error) {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		r := ref(i)
		if r == "" {
			return nil, fmt.Errorf("%s[%d]: ref is required", section, i)
		}
		if seen[r] {
			return nil, fmt.Errorf("%s[%d]: duplicate ref %q", section, i, r)
		}
		seen[r] = true
	}
	return seen, nil
}

func validateStep(index int, step *FlowStep, sessions map[string]bool) error {
	if !sessions[step.Session] {
		return fmt.Errorf("flow[%d]: unknown session %q", index, step.Session)
	}
	switch step.Invoke {
	case OpStart, OpFinish:
	case OpProgress:
		if step.Laps == 0 && step.Expect == nil {
			return fmt.Errorf("flow[%d]: laps is required for progress", index)
		}
	case OpSetState:
		if _, ok := race.ParseState(step.State); !ok {
			return fmt.Errorf("flow[%d]: unknown state %q", index, step.State)
		}
	default:
		return fmt.Errorf("flow[%d]: unknown operation %q", index, step.Invoke)
	}
	if step.Expect != nil && step.Expect.Error == "" {
		return fmt.Errorf("flow[%d].expect: error is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, sessions, drivers map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Type != AssertTraceCount && !sessions[a.Session] {
		return fmt.Errorf("assertions[%d]: unknown session %q", index, a.Session)
	}

	switch a.Type {
	case AssertStandings:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order is required for standings", index)
		}
		for _, d := range a.Order {
			if !drivers[d] {
				return fmt.Errorf("assertions[%d]: unknown driver %q", index, d)
			}
		}
	case AssertState:
		if _, ok := race.ParseState(a.State); !ok {
			return fmt.Errorf("assertions[%d]: unknown state %q", index, a.State)
		}
	case AssertElapsedLaps:
		if a.Laps == nil {
			return fmt.Errorf("assertions[%d]: laps is required for elapsed_laps", index)
		}
	case AssertPreviousFinished:
		if a.Finished == nil {
			return fmt.Errorf("assertions[%d]: finished is required for previous_finished", index)
		}
	case AssertTraceCount:
		if a.Invoke == "" {
			return fmt.Errorf("assertions[%d]: invoke is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// rawPayloads re-encodes YAML feature payloads as JSON.
func rawPayloads(in map[string]map[string]any) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(in))
	for id, payload := range in {
		if payload == nil {
			payload = map[string]any{}
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", id, err)
		}
		out[id] = data
	}
	return out, nil
}
