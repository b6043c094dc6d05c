package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pitwall/internal/race"
)

func sessionRow(c, e, s int64, version string) Row {
	return Row{
		ColumnChampionshipID: c,
		ColumnEventID:        e,
		ColumnSessionID:      s,
		"Version":            version,
	}
}

func TestMatch(t *testing.T) {
	row := sessionRow(1, 2, 3, "cafebabe")
	key := race.SessionKey{ChampionshipID: 1, EventID: 2, SessionID: 3}

	testCases := []struct {
		name  string
		specs []Spec
		want  bool
	}{
		{name: "no specs", specs: nil, want: true},
		{name: "championship", specs: []Spec{ByChampionship(1)}, want: true},
		{name: "other championship", specs: []Spec{ByChampionship(2)}, want: false},
		{name: "event", specs: []Spec{ByEvent(1, 2)}, want: true},
		{name: "session", specs: []Spec{BySession(key)}, want: true},
		{name: "session and version", specs: []Spec{BySession(key), VersionMatch("cafebabe")}, want: true},
		{name: "stale version", specs: []Spec{BySession(key), VersionMatch("deadbeef")}, want: false},
		{name: "column absent", specs: []Spec{ByDriver(1, 3)}, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Match(row, tc.specs...))
		})
	}
}

func TestMatch_TypedValues(t *testing.T) {
	// Ids are compared as int64, never as the named id types.
	row := Row{ColumnChampionshipID: int64(race.ChampionshipID(8))}
	assert.True(t, Match(row, ByChampionship(8)))
}

func TestFlatten_ImpliedColumns(t *testing.T) {
	leaves, err := Flatten(BySession(race.SessionKey{ChampionshipID: 1, EventID: 2, SessionID: 3}).Predicate())
	require.NoError(t, err)

	cols := make([]string, len(leaves))
	for i, l := range leaves {
		cols[i] = l.Column
	}
	assert.Equal(t, []string{ColumnChampionshipID, ColumnEventID, ColumnSessionID}, cols)
}

func TestFlatten_Rejects(t *testing.T) {
	_, err := Flatten(Equals{Column: "", Value: int64(1)})
	assert.Error(t, err)

	_, err = Flatten(And{Predicates: []Predicate{Equals{Column: "X", Value: true}}})
	assert.Error(t, err)
}

func TestCombine_SkipsNil(t *testing.T) {
	p := Combine(nil, ByChampionship(1))
	leaves, err := Flatten(p)
	require.NoError(t, err)
	assert.Len(t, leaves, 1)
}
