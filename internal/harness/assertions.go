package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluateAssertion checks a single assertion against a finished run.
func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertStandings:
		return assertStandings(result, a)
	case AssertState:
		return assertState(result, a)
	case AssertElapsedLaps:
		return assertElapsedLaps(result, a)
	case AssertPreviousFinished:
		return assertPreviousFinished(result, a)
	case AssertTraceCount:
		return assertTraceCount(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertStandings compares the running order after the last elapsed lap
// with the expected driver refs.
func assertStandings(result *Result, a Assertion) error {
	s, ok := result.Session(a.Session)
	if !ok {
		return fmt.Errorf("unknown session %q", a.Session)
	}
	got := standings(result, s)
	if !slices.Equal(got, a.Order) {
		return &AssertionError{
			Type:     AssertStandings,
			Expected: "[" + strings.Join(a.Order, ", ") + "]",
			Actual:   "[" + strings.Join(got, ", ") + "]",
		}
	}
	return nil
}

func assertState(result *Result, a Assertion) error {
	s, ok := result.Session(a.Session)
	if !ok {
		return fmt.Errorf("unknown session %q", a.Session)
	}
	if string(s.State) != a.State {
		return &AssertionError{Type: AssertState, Expected: a.State, Actual: string(s.State)}
	}
	return nil
}

func assertElapsedLaps(result *Result, a Assertion) error {
	s, ok := result.Session(a.Session)
	if !ok {
		return fmt.Errorf("unknown session %q", a.Session)
	}
	if s.ElapsedLaps != *a.Laps {
		return &AssertionError{
			Type:     AssertElapsedLaps,
			Expected: fmt.Sprint(*a.Laps),
			Actual:   fmt.Sprint(s.ElapsedLaps),
		}
	}
	return nil
}

func assertPreviousFinished(result *Result, a Assertion) error {
	s, ok := result.Session(a.Session)
	if !ok {
		return fmt.Errorf("unknown session %q", a.Session)
	}
	if s.PreviousSessionHasFinished != *a.Finished {
		return &AssertionError{
			Type:     AssertPreviousFinished,
			Expected: fmt.Sprint(*a.Finished),
			Actual:   fmt.Sprint(s.PreviousSessionHasFinished),
		}
	}
	return nil
}

// assertTraceCount counts trace events for an operation. An empty outcome
// counts every event regardless of how it ended.
func assertTraceCount(result *Result, a Assertion) error {
	count := 0
	for _, ev := range result.Trace {
		if ev.Invoke != a.Invoke {
			continue
		}
		if a.Outcome != "" && ev.Outcome != a.Outcome {
			continue
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Invoke),
			Actual:   fmt.Sprintf("%d", count),
		}
	}
	return nil
}
