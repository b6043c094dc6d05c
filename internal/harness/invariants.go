package harness

import (
	"fmt"
	"slices"

	"github.com/roach88/pitwall/internal/race"
)

// InvariantError reports a stored session that breaks a lap progression
// invariant.
type InvariantError struct {
	Lap     uint16 // zero when the violation is not tied to a lap
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	if e.Lap == 0 {
		return e.Message
	}
	return fmt.Sprintf("lap %d: %s", e.Lap, e.Message)
}

// CheckInvariants verifies the lap results of a stored session:
//   - ElapsedLaps never exceeds LapCount
//   - lap results are keyed exactly 1..ElapsedLaps
//   - every lap ranks each participant once, positions 1..n
//   - totals accumulate lap times, and positions follow totals
//   - a finished session classifies each participant from its final lap
func CheckInvariants(s *race.Session) []error {
	var errs []error
	fail := func(lap uint16, format string, args ...any) {
		errs = append(errs, &InvariantError{Lap: lap, Message: fmt.Sprintf(format, args...)})
	}

	if s.ElapsedLaps > s.LapCount {
		fail(0, "elapsed laps %d exceed lap count %d", s.ElapsedLaps, s.LapCount)
	}
	if len(s.LapResults) != int(s.ElapsedLaps) {
		fail(0, "%d lap results for %d elapsed laps", len(s.LapResults), s.ElapsedLaps)
	}

	var previous map[race.DriverID]race.ParticipantLapResult
	for lap := uint16(1); lap <= s.ElapsedLaps; lap++ {
		result, ok := s.LapResults[lap]
		if !ok {
			fail(lap, "missing lap result")
			previous = nil
			continue
		}
		if len(result.Results) != len(s.Participants) {
			fail(lap, "%d results for %d participants", len(result.Results), len(s.Participants))
		}

		positions := make([]uint16, 0, len(result.Results))
		for _, p := range s.Participants {
			r, ok := result.Results[p.DriverID]
			if !ok {
				fail(lap, "no result for driver %s", p.DriverID)
				continue
			}
			positions = append(positions, r.Position)

			want := r.LapTime
			if prev, ok := previous[p.DriverID]; ok {
				want += prev.TotalTime
			}
			if previous != nil || lap == 1 {
				if r.TotalTime != want {
					fail(lap, "driver %s total %v, want %v", p.DriverID, r.TotalTime, want)
				}
			}
		}
		slices.Sort(positions)
		for i, pos := range positions {
			if pos != uint16(i+1) {
				fail(lap, "positions %v are not 1..%d", positions, len(positions))
				break
			}
		}

		for a, ra := range result.Results {
			for b, rb := range result.Results {
				if ra.Position < rb.Position && ra.TotalTime > rb.TotalTime {
					fail(lap, "driver %s ahead of %s with a slower total", a, b)
				}
			}
		}
		previous = result.Results
	}

	if s.State == race.Finished {
		final, _ := s.LastLap()
		for _, p := range s.Participants {
			r, ok := final.Results[p.DriverID]
			if !ok {
				continue
			}
			if p.Result == nil {
				fail(0, "finished session has no result for driver %s", p.DriverID)
				continue
			}
			if p.Result.Position != r.Position || p.Result.TotalTime != r.TotalTime {
				fail(0, "driver %s result differs from the final lap", p.DriverID)
			}
		}
	}
	return errs
}
