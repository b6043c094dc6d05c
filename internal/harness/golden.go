package harness

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pitwall/internal/race"
)

// Report renders a result as stable text: the trace, then every session
// with the running order after each lap and, once finished, the
// classification. Drivers are named by scenario ref.
func Report(name string, result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "trace:\n")
	for _, ev := range result.Trace {
		fmt.Fprintf(&buf, "  %d %s %s", ev.Seq, ev.Invoke, ev.Session)
		if ev.Args != "" {
			fmt.Fprintf(&buf, " %s", ev.Args)
		}
		fmt.Fprintf(&buf, " -> %s\n", ev.Outcome)
	}

	fmt.Fprintf(&buf, "sessions:\n")
	for _, snap := range result.Sessions {
		s := &snap.Session
		fmt.Fprintf(&buf, "  %s %q %s %d/%d\n", snap.Ref, s.Name, s.State, s.ElapsedLaps, s.LapCount)
		for lap := uint16(1); lap <= s.ElapsedLaps; lap++ {
			entries := make([]string, 0, len(s.Participants))
			for _, r := range lapOrder(s.LapResults[lap]) {
				entries = append(entries, fmt.Sprintf("%s %s", result.driverRef(r.id), seconds(r.TotalTime)))
			}
			fmt.Fprintf(&buf, "    lap %d: %s\n", lap, strings.Join(entries, ", "))
		}
		if s.State == race.Finished {
			entries := make([]string, 0, len(s.Participants))
			for _, p := range classification(s) {
				entries = append(entries, fmt.Sprintf("%d %s %s",
					p.Result.Position, result.driverRef(p.DriverID), seconds(p.Result.TotalTime)))
			}
			fmt.Fprintf(&buf, "    result: %s\n", strings.Join(entries, ", "))
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(&buf, "errors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&buf, "  %s\n", e)
		}
	}
	fmt.Fprintf(&buf, "pass: %t\n", result.Pass)
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares its report against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result's report against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Report(scenarioName, result))
}

type rankedResult struct {
	id race.DriverID
	race.ParticipantLapResult
}

// lapOrder lists a lap's results by position.
func lapOrder(lap race.LapResult) []rankedResult {
	out := make([]rankedResult, 0, len(lap.Results))
	for id, r := range lap.Results {
		out = append(out, rankedResult{id: id, ParticipantLapResult: r})
	}
	slices.SortFunc(out, func(a, b rankedResult) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.id, b.id))
	})
	return out
}

// classification lists the classified participants by final position.
func classification(s *race.Session) []race.Participant {
	out := make([]race.Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.Result != nil {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b race.Participant) int {
		return cmp.Compare(a.Result.Position, b.Result.Position)
	})
	return out
}

// standings names drivers in running order after the last elapsed lap, or
// in grid order before the first.
func standings(result *Result, s *race.Session) []string {
	out := make([]string, 0, len(s.Participants))
	if last, ok := s.LastLap(); ok {
		for _, r := range lapOrder(last) {
			out = append(out, result.driverRef(r.id))
		}
		return out
	}
	grid := slices.Clone(s.Participants)
	slices.SortFunc(grid, func(a, b race.Participant) int {
		return cmp.Compare(a.StartingPosition, b.StartingPosition)
	})
	for _, p := range grid {
		out = append(out, result.driverRef(p.DriverID))
	}
	return out
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3fs", d.Seconds())
}
