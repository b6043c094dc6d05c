package feature

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Built-in feature ids.
const (
	FlatDriverSkillID = "flat_driver_skill"
	LapVarianceID     = "lap_variance"
	SlipstreamID      = "slipstream"
	TrackBaseTimeID   = "track_base_time"
)

// Builtin returns a registry holding every built-in feature.
func Builtin() *Registry {
	r := NewRegistry()
	r.MustRegister(Registration{
		ID:    FlatDriverSkillID,
		Scope: ScopeDriver,
		Decode: func(raw json.RawMessage) (Feature, error) {
			var f FlatDriverSkill
			if err := decodeStrict(raw, &f); err != nil {
				return nil, err
			}
			return f, nil
		},
		ValidateData: func(raw json.RawMessage) error {
			var d FlatDriverSkillData
			if err := decodeStrict(raw, &d); err != nil {
				return err
			}
			if d.Skill < 0 {
				return errors.New("skill must not be negative")
			}
			return nil
		},
	})
	r.MustRegister(Registration{
		ID: LapVarianceID,
		Decode: func(raw json.RawMessage) (Feature, error) {
			var f LapVariance
			if err := decodeStrict(raw, &f); err != nil {
				return nil, err
			}
			if f.MaxMillis < 0 {
				return nil, errors.New("maxMillis must not be negative")
			}
			return f, nil
		},
	})
	r.MustRegister(Registration{
		ID: SlipstreamID,
		Decode: func(raw json.RawMessage) (Feature, error) {
			var f Slipstream
			if err := decodeStrict(raw, &f); err != nil {
				return nil, err
			}
			if f.GainMillis < 0 {
				return nil, errors.New("gainMillis must not be negative")
			}
			return f, nil
		},
	})
	r.MustRegister(Registration{
		ID:    TrackBaseTimeID,
		Scope: ScopeTrack,
		Decode: func(raw json.RawMessage) (Feature, error) {
			var f TrackBaseTime
			if err := decodeStrict(raw, &f); err != nil {
				return nil, err
			}
			return f, nil
		},
		ValidateData: func(raw json.RawMessage) error {
			var d TrackBaseTimeData
			if err := decodeStrict(raw, &d); err != nil {
				return err
			}
			if d.LapMillis < 0 {
				return errors.New("lapMillis must not be negative")
			}
			return nil
		},
	})
	return r
}

// FlatDriverSkill gives each driver a fixed lap time taken from the driver's
// skill rating, in whole seconds.
type FlatDriverSkill struct {
	On bool `json:"enabled"`
}

// FlatDriverSkillData is the per-driver payload of FlatDriverSkill.
type FlatDriverSkillData struct {
	Skill int `json:"skill"`
}

func (f FlatDriverSkill) Enabled() bool { return f.On }

func (f FlatDriverSkill) LapTime(lap Lap) (time.Duration, error) {
	raw, ok := lap.Participant.Data[FlatDriverSkillID]
	if !ok {
		return 0, nil
	}
	var d FlatDriverSkillData
	if err := json.Unmarshal(raw, &d); err != nil {
		return 0, fmt.Errorf("%s: driver %s data: %w", FlatDriverSkillID, lap.Participant.DriverID, err)
	}
	return time.Duration(d.Skill) * time.Second, nil
}

// LapVariance adds uniform random jitter of 0..MaxMillis milliseconds.
type LapVariance struct {
	On        bool  `json:"enabled"`
	MaxMillis int64 `json:"maxMillis"`
}

func (f LapVariance) Enabled() bool { return f.On }

func (f LapVariance) LapTime(lap Lap) (time.Duration, error) {
	if f.MaxMillis == 0 {
		return 0, nil
	}
	if lap.Rand == nil {
		return 0, fmt.Errorf("%s: no random source", LapVarianceID)
	}
	return time.Duration(lap.Rand.Int64N(f.MaxMillis+1)) * time.Millisecond, nil
}

// Slipstream takes GainMillis off the lap of every participant who was not
// leading after the previous lap.
type Slipstream struct {
	On         bool  `json:"enabled"`
	GainMillis int64 `json:"gainMillis"`
}

func (f Slipstream) Enabled() bool { return f.On }

func (f Slipstream) LapTime(lap Lap) (time.Duration, error) {
	if lap.Previous == nil || lap.Previous.Position <= 1 {
		return 0, nil
	}
	return -time.Duration(f.GainMillis) * time.Millisecond, nil
}

// TrackBaseTime adds the track's reference lap time.
type TrackBaseTime struct {
	On bool `json:"enabled"`
}

// TrackBaseTimeData is the per-track payload of TrackBaseTime.
type TrackBaseTimeData struct {
	LapMillis int64 `json:"lapMillis"`
}

func (f TrackBaseTime) Enabled() bool { return f.On }

func (f TrackBaseTime) LapTime(lap Lap) (time.Duration, error) {
	if lap.Track == nil {
		return 0, nil
	}
	raw, ok := lap.Track.Data[TrackBaseTimeID]
	if !ok {
		return 0, nil
	}
	var d TrackBaseTimeData
	if err := json.Unmarshal(raw, &d); err != nil {
		return 0, fmt.Errorf("%s: track %s data: %w", TrackBaseTimeID, lap.Track.TrackID, err)
	}
	return time.Duration(d.LapMillis) * time.Millisecond, nil
}

// decodeStrict decodes raw into v, rejecting unknown fields. An empty payload
// leaves v at its zero value.
func decodeStrict(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
