package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/service"
	"github.com/roach88/pitwall/internal/simulate"
	"github.com/roach88/pitwall/internal/store"
	"github.com/roach88/pitwall/internal/testutil"
)

// Outcome codes for errors that are not session rule violations.
const (
	OutcomeNotFound        = "NOT_FOUND"
	OutcomeVersionConflict = "VERSION_CONFLICT"
	OutcomeInvalid         = "INVALID"
)

// missingVersion is sent for a stale step on a session that has not been
// written yet.
const missingVersion store.Version = "00000000"

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and sequential ids.
type Harness struct {
	svc *service.Service

	champ    race.ChampionshipID
	tracks   map[string]race.TrackID
	drivers  map[string]race.DriverID
	events   map[string]race.EventID
	sessions map[string]race.SessionKey

	// previous holds, per session ref, the version the session had before
	// its last successful step.
	previous map[string]store.Version
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Create the championship, tracks, drivers, events and sessions
// 3. Execute flow steps with expect validation
// 4. Snapshot every session and check invariants and assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	clock := testutil.NewDeterministicClock()
	st, err := store.Open(":memory:", store.WithClock(clock.Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		svc: service.New(st,
			service.WithIDs(testutil.NewSequentialIDs(1)),
			service.WithRandSource(simulate.Seeded(scenario.Seed)),
		),
		tracks:   make(map[string]race.TrackID),
		drivers:  make(map[string]race.DriverID),
		events:   make(map[string]race.EventID),
		sessions: make(map[string]race.SessionKey),
		previous: make(map[string]store.Version),
	}

	result := NewResult()
	if err := h.setup(ctx, scenario, result); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for _, s := range scenario.Sessions {
		rec, err := h.svc.FindSession(ctx, h.sessions[s.Ref])
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", s.Ref, err)
		}
		result.Sessions = append(result.Sessions, SessionSnapshot{Ref: s.Ref, Session: rec.Object})
	}

	for _, snap := range result.Sessions {
		for _, err := range CheckInvariants(&snap.Session) {
			result.AddError(fmt.Sprintf("session %s: %v", snap.Ref, err))
		}
	}
	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

// setup creates every entity the scenario declares. Setup is assumed to
// succeed; any error aborts the run.
func (h *Harness) setup(ctx context.Context, sc *Scenario, result *Result) error {
	features, err := rawPayloads(sc.Championship.Features)
	if err != nil {
		return err
	}
	champ, err := h.svc.CreateChampionship(ctx, service.ChampionshipChange{
		Name:     sc.Championship.Name,
		Features: features,
	})
	if err != nil {
		return err
	}
	h.champ = champ.Object.ChampionshipID

	for _, t := range sc.Tracks {
		data, err := rawPayloads(t.Data)
		if err != nil {
			return fmt.Errorf("track %s: %w", t.Ref, err)
		}
		rec, err := h.svc.CreateTrack(ctx, h.champ, service.TrackChange{
			Name:              t.Name,
			LengthMillimeters: t.LengthMillimeters,
			City:              t.City,
			Country:           t.Country,
			Data:              data,
		})
		if err != nil {
			return fmt.Errorf("track %s: %w", t.Ref, err)
		}
		h.tracks[t.Ref] = rec.Object.TrackID
	}

	for _, d := range sc.Drivers {
		data, err := rawPayloads(d.Data)
		if err != nil {
			return fmt.Errorf("driver %s: %w", d.Ref, err)
		}
		rec, err := h.svc.CreateDriver(ctx, h.champ, service.DriverChange{
			Name:         d.Name,
			Abbreviation: d.Abbreviation,
			Number:       d.Number,
			Data:         data,
		})
		if err != nil {
			return fmt.Errorf("driver %s: %w", d.Ref, err)
		}
		h.drivers[d.Ref] = rec.Object.DriverID
		result.Drivers[rec.Object.DriverID] = d.Ref
	}

	for _, e := range sc.Events {
		rec, err := h.svc.CreateEvent(ctx, h.champ, service.EventChange{Name: e.Name, TrackID: h.tracks[e.Track]})
		if err != nil {
			return fmt.Errorf("event %s: %w", e.Ref, err)
		}
		h.events[e.Ref] = rec.Object.EventID
	}

	for _, s := range sc.Sessions {
		rec, err := h.svc.CreateSession(ctx, h.champ, h.events[s.Event], service.SessionChange{
			Name:     s.Name,
			LapCount: s.LapCount,
		})
		if err != nil {
			return fmt.Errorf("session %s: %w", s.Ref, err)
		}
		h.sessions[s.Ref] = rec.Object.Key()
	}
	return nil
}

// executeStep runs one flow step and compares its outcome with the step's
// expect clause. Only errors the scenario cannot express abort the run.
func (h *Harness) executeStep(ctx context.Context, seq int, step FlowStep, result *Result) error {
	key := h.sessions[step.Session]
	current, err := h.svc.FindSession(ctx, key)
	if err != nil {
		return err
	}
	version := current.Version
	if step.Stale {
		version = missingVersion
		if v, ok := h.previous[step.Session]; ok {
			version = v
		}
	}

	event := TraceEvent{Seq: seq, Invoke: step.Invoke, Session: step.Session, Args: stepArgs(step)}
	switch step.Invoke {
	case OpStart:
		_, err = h.svc.Start(ctx, key, version)
	case OpProgress:
		_, err = h.svc.Progress(ctx, key, version, step.Laps)
	case OpFinish:
		_, err = h.svc.Finish(ctx, key, version)
	case OpSetState:
		_, err = h.svc.SetState(ctx, key, version, race.State(step.State))
	default:
		return fmt.Errorf("unknown operation %q", step.Invoke)
	}

	event.Outcome, err = outcome(err)
	if err != nil {
		return err
	}
	result.Trace = append(result.Trace, event)
	if event.Outcome == OutcomeOK {
		h.previous[step.Session] = current.Version
	}

	want := OutcomeOK
	if step.Expect != nil {
		want = step.Expect.Error
	}
	if event.Outcome != want {
		result.AddError(fmt.Sprintf("step %d (%s %s): expected %s, got %s",
			seq, step.Invoke, step.Session, want, event.Outcome))
	}
	return nil
}

// outcome classifies the error of a step. Errors outside the domain's
// taxonomy are returned as is.
func outcome(err error) (string, error) {
	var se *race.SessionError
	switch {
	case err == nil:
		return OutcomeOK, nil
	case errors.As(err, &se):
		return string(se.Code), nil
	case race.IsNotFound(err):
		return OutcomeNotFound, nil
	case errors.Is(err, store.ErrConflict):
		return OutcomeVersionConflict, nil
	case errors.Is(err, service.ErrInvalid):
		return OutcomeInvalid, nil
	}
	return "", err
}

func stepArgs(step FlowStep) string {
	var args string
	switch step.Invoke {
	case OpProgress:
		args = fmt.Sprintf("laps=%d", step.Laps)
	case OpSetState:
		args = "state=" + step.State
	}
	if step.Stale {
		if args != "" {
			args += " "
		}
		args += "stale"
	}
	return args
}
