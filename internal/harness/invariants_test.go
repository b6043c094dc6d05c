package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/pitwall/internal/race"
)

func lapFixture() *race.Session {
	return &race.Session{
		LapCount:    2,
		State:       race.Finished,
		ElapsedLaps: 2,
		Participants: []race.Participant{
			{DriverID: 1, StartingPosition: 1, Result: &race.SessionResult{Position: 2, TotalTime: 21 * time.Second}},
			{DriverID: 2, StartingPosition: 2, Result: &race.SessionResult{Position: 1, TotalTime: 19 * time.Second}},
		},
		LapResults: map[uint16]race.LapResult{
			1: {Results: map[race.DriverID]race.ParticipantLapResult{
				1: {Position: 1, TotalTime: 10 * time.Second, LapTime: 10 * time.Second},
				2: {Position: 2, TotalTime: 11 * time.Second, LapTime: 11 * time.Second},
			}},
			2: {Results: map[race.DriverID]race.ParticipantLapResult{
				1: {Position: 2, TotalTime: 21 * time.Second, LapTime: 11 * time.Second},
				2: {Position: 1, TotalTime: 19 * time.Second, LapTime: 8 * time.Second},
			}},
		},
	}
}

func TestCheckInvariants_Valid(t *testing.T) {
	assert.Empty(t, CheckInvariants(lapFixture()))
}

func TestCheckInvariants_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*race.Session)
		want   string
	}{
		{
			name:   "elapsed beyond lap count",
			mutate: func(s *race.Session) { s.LapCount = 1 },
			want:   "elapsed laps 2 exceed lap count 1",
		},
		{
			name:   "missing lap",
			mutate: func(s *race.Session) { delete(s.LapResults, 1) },
			want:   "lap 1: missing lap result",
		},
		{
			name: "total does not accumulate",
			mutate: func(s *race.Session) {
				r := s.LapResults[2].Results[1]
				r.LapTime = 12 * time.Second
				s.LapResults[2].Results[1] = r
			},
			want: "lap 2: driver 1 total 21s, want 22s",
		},
		{
			name: "duplicate position",
			mutate: func(s *race.Session) {
				r := s.LapResults[1].Results[2]
				r.Position = 1
				s.LapResults[1].Results[2] = r
			},
			want: "lap 1: positions [1 1] are not 1..2",
		},
		{
			name: "order against totals",
			mutate: func(s *race.Session) {
				a, b := s.LapResults[1].Results[1], s.LapResults[1].Results[2]
				a.Position, b.Position = 2, 1
				s.LapResults[1].Results[1], s.LapResults[1].Results[2] = a, b
			},
			want: "lap 1: driver 2 ahead of 1 with a slower total",
		},
		{
			name:   "result differs from final lap",
			mutate: func(s *race.Session) { s.Participants[0].Result.Position = 1 },
			want:   "driver 1 result differs from the final lap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := lapFixture()
			tt.mutate(s)

			var msgs []string
			for _, err := range CheckInvariants(s) {
				msgs = append(msgs, err.Error())
			}
			assert.Contains(t, msgs, tt.want)
		})
	}
}
