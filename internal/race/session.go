package race

import "fmt"

// Session is one timed run (practice, qualifying, race) within an event.
//
// State, ElapsedLaps, Features, Participants and LapResults are exported for
// serialization only. They must change through Start, Progress and Finish,
// which enforce:
//   - NotStarted -> Running -> Finished, never backwards
//   - 0 <= ElapsedLaps <= LapCount
//   - LapResults keys are exactly 1..ElapsedLaps
type Session struct {
	ChampionshipID ChampionshipID `json:"championshipId"`
	EventID        EventID        `json:"eventId"`
	SessionID      SessionID      `json:"sessionId"`

	Name     string `json:"name"`
	LapCount uint16 `json:"lapCount"`

	State       State  `json:"state"`
	ElapsedLaps uint16 `json:"elapsedLaps"`

	Features     FeatureConfigs       `json:"features"`
	Participants []Participant        `json:"participants"`
	LapResults   map[uint16]LapResult `json:"lapResults"`

	PreviousSessionHasFinished bool `json:"previousSessionHasFinished"`
}

// NewSession returns a session in its initial NotStarted state.
func NewSession(key SessionKey) *Session {
	return &Session{
		ChampionshipID: key.ChampionshipID,
		EventID:        key.EventID,
		SessionID:      key.SessionID,
		State:          NotStarted,
		Features:       FeatureConfigs{},
		Participants:   []Participant{},
		LapResults:     map[uint16]LapResult{},
	}
}

// Key returns the session's composite key.
func (s *Session) Key() SessionKey {
	return SessionKey{ChampionshipID: s.ChampionshipID, EventID: s.EventID, SessionID: s.SessionID}
}

// CanStart reports whether Start would succeed.
func (s *Session) CanStart() bool {
	return s.State == NotStarted
}

// CanFinish reports whether Finish would succeed.
func (s *Session) CanFinish() bool {
	return s.State == Running && s.ElapsedLaps == s.LapCount
}

// Start moves the session to Running and captures the feature set and the
// starting grid.
func (s *Session) Start(features FeatureConfigs, participants []Participant) error {
	if !s.CanStart() {
		return &SessionError{
			Code:      ErrCodeInvalidStateChange,
			Message:   "session can only start from NotStarted",
			Session:   s.Key(),
			Current:   s.State,
			Requested: Running,
			Valid:     []State{NotStarted},
		}
	}

	s.State = Running
	s.Features = features.Clone()
	s.Participants = append([]Participant(nil), participants...)
	return nil
}

// CanProgressTo checks that the session may advance to elapsedLaps.
func (s *Session) CanProgressTo(elapsedLaps uint16) error {
	if s.State != Running {
		return &SessionError{
			Code:    ErrCodeInvalidState,
			Message: "session must be running to progress",
			Session: s.Key(),
			Current: s.State,
			Valid:   []State{Running},
		}
	}
	if elapsedLaps <= s.ElapsedLaps || elapsedLaps > s.LapCount {
		return &SessionError{
			Code:              ErrCodeInvalidProgress,
			Message:           "requested progress is out of range",
			Session:           s.Key(),
			Current:           s.State,
			RequestedProgress: elapsedLaps,
			MinimumProgress:   s.ElapsedLaps + 1,
			MaximumProgress:   s.LapCount,
		}
	}
	return nil
}

// Progress appends one lap result per lap between the current ElapsedLaps
// and elapsedLaps, then advances ElapsedLaps.
func (s *Session) Progress(elapsedLaps uint16, laps []LapResult) error {
	if err := s.CanProgressTo(elapsedLaps); err != nil {
		return err
	}
	if want := int(elapsedLaps - s.ElapsedLaps); len(laps) != want {
		return fmt.Errorf("progress session %s: got %d lap results, want %d", s.Key(), len(laps), want)
	}

	if s.LapResults == nil {
		s.LapResults = make(map[uint16]LapResult, len(laps))
	}
	for i, lap := range laps {
		s.LapResults[s.ElapsedLaps+uint16(i)+1] = lap
	}
	s.ElapsedLaps = elapsedLaps
	return nil
}

// Finish moves the session to Finished and classifies each participant from
// the final lap.
func (s *Session) Finish() error {
	if !s.CanFinish() {
		return &SessionError{
			Code:      ErrCodeInvalidStateChange,
			Message:   "session can only finish when running with all laps elapsed",
			Session:   s.Key(),
			Current:   s.State,
			Requested: Finished,
			Valid:     []State{Running},
		}
	}

	s.State = Finished
	final, ok := s.LapResults[s.ElapsedLaps]
	if !ok {
		return nil
	}
	for i := range s.Participants {
		r, ok := final.Results[s.Participants[i].DriverID]
		if !ok {
			continue
		}
		s.Participants[i].Result = &SessionResult{Position: r.Position, TotalTime: r.TotalTime}
	}
	return nil
}

// LastLap returns the most recent lap result, if any lap has elapsed.
func (s *Session) LastLap() (LapResult, bool) {
	if s.ElapsedLaps == 0 {
		return LapResult{}, false
	}
	lap, ok := s.LapResults[s.ElapsedLaps]
	return lap, ok
}

// NewParticipants builds the starting grid from a driver roster. Starting
// positions follow roster order, beginning at 1.
func NewParticipants(drivers []Driver) []Participant {
	out := make([]Participant, 0, len(drivers))
	for i, d := range drivers {
		out = append(out, Participant{
			DriverID:         d.DriverID,
			StartingPosition: uint16(i + 1),
			Data:             d.Data.Clone(),
		})
	}
	return out
}
