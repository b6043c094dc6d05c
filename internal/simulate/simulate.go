// Package simulate computes lap-by-lap standings for a running session.
package simulate

import (
	"fmt"
	"sort"
	"time"

	"github.com/roach88/pitwall/internal/feature"
	"github.com/roach88/pitwall/internal/race"
)

// Laps computes the results of laps ElapsedLaps+1 through target without
// modifying the session. For each lap, every participant's lap time is the
// sum of the enabled features; participants are ranked by cumulative time
// and ties keep grid order.
func Laps(set feature.Set, s *race.Session, track *race.Track, target uint16, src RandSource) ([]race.LapResult, error) {
	if err := s.CanProgressTo(target); err != nil {
		return nil, err
	}
	rnd := src(s.Key(), s.ElapsedLaps+1)

	var prev map[race.DriverID]race.ParticipantLapResult
	if last, ok := s.LastLap(); ok {
		prev = last.Results
	}

	type standing struct {
		driver  race.DriverID
		total   time.Duration
		lapTime time.Duration
	}

	laps := make([]race.LapResult, 0, int(target-s.ElapsedLaps))
	for n := s.ElapsedLaps + 1; n <= target; n++ {
		standings := make([]standing, len(s.Participants))
		for i := range s.Participants {
			p := &s.Participants[i]
			lap := feature.Lap{Number: n, Session: s, Participant: p, Track: track, Rand: rnd}
			var prevTotal time.Duration
			if r, ok := prev[p.DriverID]; ok {
				lap.Previous = &r
				prevTotal = r.TotalTime
			}
			lapTime, err := set.LapTime(lap)
			if err != nil {
				return nil, fmt.Errorf("lap %d driver %s: %w", n, p.DriverID, err)
			}
			standings[i] = standing{driver: p.DriverID, total: prevTotal + lapTime, lapTime: lapTime}
		}

		sort.SliceStable(standings, func(a, b int) bool {
			return standings[a].total < standings[b].total
		})

		results := make(map[race.DriverID]race.ParticipantLapResult, len(standings))
		for rank, st := range standings {
			results[st.driver] = race.ParticipantLapResult{
				Position:  uint16(rank + 1),
				TotalTime: st.total,
				LapTime:   st.lapTime,
			}
		}
		laps = append(laps, race.LapResult{Results: results})
		prev = results
	}
	return laps, nil
}

// Advance computes laps up to target and applies them to the session.
func Advance(set feature.Set, s *race.Session, track *race.Track, target uint16, src RandSource) error {
	laps, err := Laps(set, s, track, target, src)
	if err != nil {
		return err
	}
	return s.Progress(target, laps)
}
