package query

import (
	"fmt"

	"github.com/roach88/pitwall/internal/race"
	"github.com/roach88/pitwall/internal/schema"
)

// Key column names shared by the schema declarations and the spec kinds.
const (
	ColumnChampionshipID = "ChampionshipId"
	ColumnTrackID        = "TrackId"
	ColumnDriverID       = "DriverId"
	ColumnEventID        = "EventId"
	ColumnSessionID      = "SessionId"
)

// Predicate is a filter condition.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch exhaustively over Equals and And.
type Predicate interface {
	predicateNode()
}

// Equals holds when the column's stored value equals Value.
// Value must be an int64 or a string.
type Equals struct {
	Column string
	Value  any
}

func (Equals) predicateNode() {}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Spec is a composable record selector.
type Spec interface {
	Predicate() Predicate
}

// ChampionshipSpec matches every record of one championship.
type ChampionshipSpec struct {
	ChampionshipID race.ChampionshipID
}

func (s ChampionshipSpec) Predicate() Predicate {
	return Equals{Column: ColumnChampionshipID, Value: int64(s.ChampionshipID)}
}

// TrackSpec matches one track.
type TrackSpec struct {
	ChampionshipID race.ChampionshipID
	TrackID        race.TrackID
}

func (s TrackSpec) Predicate() Predicate {
	return And{Predicates: []Predicate{
		ChampionshipSpec{s.ChampionshipID}.Predicate(),
		Equals{Column: ColumnTrackID, Value: int64(s.TrackID)},
	}}
}

// DriverSpec matches one driver.
type DriverSpec struct {
	ChampionshipID race.ChampionshipID
	DriverID       race.DriverID
}

func (s DriverSpec) Predicate() Predicate {
	return And{Predicates: []Predicate{
		ChampionshipSpec{s.ChampionshipID}.Predicate(),
		Equals{Column: ColumnDriverID, Value: int64(s.DriverID)},
	}}
}

// EventSpec matches one event, or every session of that event when applied
// to the session table.
type EventSpec struct {
	ChampionshipID race.ChampionshipID
	EventID        race.EventID
}

func (s EventSpec) Predicate() Predicate {
	return And{Predicates: []Predicate{
		ChampionshipSpec{s.ChampionshipID}.Predicate(),
		Equals{Column: ColumnEventID, Value: int64(s.EventID)},
	}}
}

// SessionSpec matches one session.
type SessionSpec struct {
	Key race.SessionKey
}

func (s SessionSpec) Predicate() Predicate {
	return And{Predicates: []Predicate{
		EventSpec{s.Key.ChampionshipID, s.Key.EventID}.Predicate(),
		Equals{Column: ColumnSessionID, Value: int64(s.Key.SessionID)},
	}}
}

// VersionSpec matches only a record whose stored version equals Version.
// Combined with an id spec it turns an update into a compare-and-swap.
type VersionSpec struct {
	Version string
}

func (s VersionSpec) Predicate() Predicate {
	return Equals{Column: schema.ColumnVersion, Value: s.Version}
}

// ByChampionship selects records of a championship.
func ByChampionship(id race.ChampionshipID) Spec { return ChampionshipSpec{ChampionshipID: id} }

// ByTrack selects one track.
func ByTrack(c race.ChampionshipID, t race.TrackID) Spec {
	return TrackSpec{ChampionshipID: c, TrackID: t}
}

// ByDriver selects one driver.
func ByDriver(c race.ChampionshipID, d race.DriverID) Spec {
	return DriverSpec{ChampionshipID: c, DriverID: d}
}

// ByEvent selects one event, or the sessions of that event.
func ByEvent(c race.ChampionshipID, e race.EventID) Spec {
	return EventSpec{ChampionshipID: c, EventID: e}
}

// BySession selects one session.
func BySession(key race.SessionKey) Spec { return SessionSpec{Key: key} }

// VersionMatch selects a record only if it still carries version.
func VersionMatch(version string) Spec { return VersionSpec{Version: version} }

// Combine folds specs into a single predicate.
func Combine(specs ...Spec) Predicate {
	preds := make([]Predicate, 0, len(specs))
	for _, s := range specs {
		if s == nil {
			continue
		}
		preds = append(preds, s.Predicate())
	}
	return And{Predicates: preds}
}

// Flatten returns the equality leaves of p in evaluation order.
func Flatten(p Predicate) ([]Equals, error) {
	var out []Equals
	var walk func(Predicate) error
	walk = func(p Predicate) error {
		switch pred := p.(type) {
		case nil:
			return nil
		case Equals:
			if err := checkEquals(pred); err != nil {
				return err
			}
			out = append(out, pred)
		case And:
			for _, sub := range pred.Predicates {
				if err := walk(sub); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unsupported predicate type: %T", p)
		}
		return nil
	}
	if err := walk(p); err != nil {
		return nil, err
	}
	return out, nil
}

func checkEquals(eq Equals) error {
	if eq.Column == "" {
		return fmt.Errorf("equals predicate with empty column")
	}
	switch eq.Value.(type) {
	case int64, string:
		return nil
	default:
		return fmt.Errorf("column %s: unsupported value type %T", eq.Column, eq.Value)
	}
}
