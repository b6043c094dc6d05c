package harness

import "github.com/roach88/pitwall/internal/race"

// OutcomeOK is the outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent records one flow step and its outcome.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Invoke  string `json:"invoke"`
	Session string `json:"session"`
	Args    string `json:"args,omitempty"`
	Outcome string `json:"outcome"`
}

// SessionSnapshot is a session as stored at the end of a run.
type SessionSnapshot struct {
	Ref     string       `json:"ref"`
	Session race.Session `json:"session"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step produced its expected outcome, every
	// assertion held and no session broke an invariant.
	Pass bool `json:"pass"`

	// Trace contains every flow step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Sessions holds every session in setup order.
	Sessions []SessionSnapshot `json:"sessions"`

	// Drivers maps driver ids back to scenario refs.
	Drivers map[race.DriverID]string `json:"drivers"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
		Sessions: []SessionSnapshot{},
		Drivers:  make(map[race.DriverID]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Session returns the snapshot of the session with the given ref.
func (r *Result) Session(ref string) (*race.Session, bool) {
	for i := range r.Sessions {
		if r.Sessions[i].Ref == ref {
			return &r.Sessions[i].Session, true
		}
	}
	return nil, false
}

// driverRef names a driver by its scenario ref, falling back to its id.
func (r *Result) driverRef(id race.DriverID) string {
	if ref, ok := r.Drivers[id]; ok {
		return ref
	}
	return id.String()
}
