package service

import "github.com/roach88/pitwall/internal/race"

// Change payloads carry the caller-editable fields of each entity. Keys,
// schedules and session progress are never set through them.

type ChampionshipChange struct {
	Name     string              `json:"name"`
	Features race.FeatureConfigs `json:"features"`
}

type TrackChange struct {
	Name              string           `json:"name"`
	LengthMillimeters int64            `json:"lengthMillimeters"`
	City              string           `json:"city"`
	Country           string           `json:"country"`
	Data              race.FeatureData `json:"data"`
}

type DriverChange struct {
	Name         []string         `json:"name"`
	Abbreviation string           `json:"abbreviation"`
	Number       string           `json:"number"`
	Data         race.FeatureData `json:"data"`
}

type EventChange struct {
	Name    string       `json:"name"`
	TrackID race.TrackID `json:"trackId"`
}

type SessionChange struct {
	Name     string `json:"name"`
	LapCount uint16 `json:"lapCount"`
}

// StateChange requests a session state transition.
type StateChange struct {
	State race.State `json:"state"`
}

// ProgressChange requests that a session advance to ElapsedLaps.
type ProgressChange struct {
	ElapsedLaps uint16 `json:"elapsedLaps"`
}
