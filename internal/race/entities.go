package race

import (
	"encoding/json"
	"time"
)

// FeatureConfigs holds the raw configuration of every feature enabled on a
// championship, keyed by feature id. Bodies are decoded by the feature
// registry; the domain never interprets them.
type FeatureConfigs map[string]json.RawMessage

// FeatureData holds auxiliary per-feature data attached to a driver, team or
// track, keyed by feature id.
type FeatureData map[string]json.RawMessage

// Clone returns a deep copy so sessions never alias the championship's map.
func (c FeatureConfigs) Clone() FeatureConfigs {
	if c == nil {
		return FeatureConfigs{}
	}
	out := make(FeatureConfigs, len(c))
	for k, v := range c {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Clone returns a deep copy of the data map.
func (d FeatureData) Clone() FeatureData {
	if d == nil {
		return FeatureData{}
	}
	out := make(FeatureData, len(d))
	for k, v := range d {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// Championship is the root aggregate; every other entity is scoped to one.
type Championship struct {
	ChampionshipID ChampionshipID `json:"championshipId"`
	Name           string         `json:"name"`
	Features       FeatureConfigs `json:"features"`
}

// Track is a circuit that events are held at.
type Track struct {
	ChampionshipID    ChampionshipID `json:"championshipId"`
	TrackID           TrackID        `json:"trackId"`
	Name              string         `json:"name"`
	LengthMillimeters int64          `json:"lengthMillimeters"`
	City              string         `json:"city"`
	Country           string         `json:"country"`
	Data              FeatureData    `json:"data"`
}

// Driver is a member of a championship's roster.
type Driver struct {
	ChampionshipID ChampionshipID `json:"championshipId"`
	DriverID       DriverID       `json:"driverId"`
	Name           []string       `json:"name"`
	Abbreviation   string         `json:"abbreviation"`
	Number         string         `json:"number"`
	Data           FeatureData    `json:"data"`
}

// Event groups sessions held at one track. Schedule is the race order.
type Event struct {
	ChampionshipID ChampionshipID `json:"championshipId"`
	EventID        EventID        `json:"eventId"`
	Name           string         `json:"name"`
	TrackID        TrackID        `json:"trackId"`
	Schedule       []SessionID    `json:"schedule"`
}

// Previous returns the session scheduled immediately before id.
func (e *Event) Previous(id SessionID) (SessionID, bool) {
	for i, s := range e.Schedule {
		if s == id {
			if i == 0 {
				return 0, false
			}
			return e.Schedule[i-1], true
		}
	}
	return 0, false
}

// Next returns the session scheduled immediately after id.
func (e *Event) Next(id SessionID) (SessionID, bool) {
	for i, s := range e.Schedule {
		if s == id && i+1 < len(e.Schedule) {
			return e.Schedule[i+1], true
		}
	}
	return 0, false
}

// Last returns the final scheduled session, if any.
func (e *Event) Last() (SessionID, bool) {
	if len(e.Schedule) == 0 {
		return 0, false
	}
	return e.Schedule[len(e.Schedule)-1], true
}

// State is the lifecycle state of a session.
type State string

const (
	NotStarted State = "NotStarted"
	Running    State = "Running"
	Finished   State = "Finished"
)

// ParseState maps the wire name of a state onto State.
func ParseState(s string) (State, bool) {
	switch State(s) {
	case NotStarted, Running, Finished:
		return State(s), true
	}
	return "", false
}

// SessionResult is a participant's classification once a session finished.
type SessionResult struct {
	Position  uint16        `json:"position"`
	TotalTime time.Duration `json:"totalTime"`
}

// Participant is one driver taking part in a session.
type Participant struct {
	DriverID         DriverID       `json:"driverId"`
	StartingPosition uint16         `json:"startingPosition"`
	Data             FeatureData    `json:"data"`
	Result           *SessionResult `json:"result,omitempty"`
}

// ParticipantLapResult is one driver's standing after a lap.
type ParticipantLapResult struct {
	Position  uint16        `json:"position"`
	TotalTime time.Duration `json:"totalTime"`
	LapTime   time.Duration `json:"lapTime"`
}

// LapResult is the standing of every participant after one lap.
type LapResult struct {
	Results map[DriverID]ParticipantLapResult `json:"results"`
}

// SessionKey addresses a single session.
type SessionKey struct {
	ChampionshipID ChampionshipID
	EventID        EventID
	SessionID      SessionID
}
