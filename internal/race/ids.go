package race

import (
	"fmt"
	"strconv"
	"strings"
)

// Identifier types. All ids are positive int64 values generated by idgen and
// rendered in base 36 at the HTTP and CLI boundary.
type (
	ChampionshipID int64
	TrackID        int64
	DriverID       int64
	EventID        int64
	SessionID      int64
)

func (id ChampionshipID) String() string { return FormatID(int64(id)) }
func (id TrackID) String() string        { return FormatID(int64(id)) }
func (id DriverID) String() string       { return FormatID(int64(id)) }
func (id EventID) String() string        { return FormatID(int64(id)) }
func (id SessionID) String() string      { return FormatID(int64(id)) }

// Ids travel as base-36 strings in JSON, including as map keys.

func (id ChampionshipID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id TrackID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id DriverID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id SessionID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *ChampionshipID) UnmarshalText(b []byte) error { return unmarshalID((*int64)(id), b) }
func (id *TrackID) UnmarshalText(b []byte) error        { return unmarshalID((*int64)(id), b) }
func (id *DriverID) UnmarshalText(b []byte) error       { return unmarshalID((*int64)(id), b) }
func (id *EventID) UnmarshalText(b []byte) error        { return unmarshalID((*int64)(id), b) }
func (id *SessionID) UnmarshalText(b []byte) error      { return unmarshalID((*int64)(id), b) }

func unmarshalID(dst *int64, b []byte) error {
	v, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// FormatID renders an id in lowercase base 36.
func FormatID(v int64) string {
	return strconv.FormatInt(v, 36)
}

// ParseID parses a base-36 id as produced by FormatID. Input is case
// insensitive.
func ParseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse id: empty value")
	}
	v, err := strconv.ParseInt(strings.ToLower(s), 36, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return v, nil
}
