package race

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID_RoundTrip(t *testing.T) {
	for _, v := range []int64{1, 35, 36, 1296, 9_007_199_254_740_993} {
		got, err := ParseID(FormatID(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestParseID_Rejects(t *testing.T) {
	for _, s := range []string{"", "   ", "not-an-id", "zzzzzzzzzzzzzzzzz"} {
		_, err := ParseID(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestParseID_CaseInsensitive(t *testing.T) {
	got, err := ParseID("  ZZ ")
	require.NoError(t, err)
	assert.Equal(t, int64(1295), got)
}

func TestEvent_Neighbours(t *testing.T) {
	e := &Event{Schedule: []SessionID{7, 8, 9}}

	prev, ok := e.Previous(8)
	require.True(t, ok)
	assert.Equal(t, SessionID(7), prev)

	_, ok = e.Previous(7)
	assert.False(t, ok)

	next, ok := e.Next(8)
	require.True(t, ok)
	assert.Equal(t, SessionID(9), next)

	_, ok = e.Next(9)
	assert.False(t, ok)

	_, ok = e.Next(42)
	assert.False(t, ok)

	last, ok := e.Last()
	require.True(t, ok)
	assert.Equal(t, SessionID(9), last)

	_, ok = (&Event{}).Last()
	assert.False(t, ok)
}

func TestParseState(t *testing.T) {
	st, ok := ParseState("Running")
	require.True(t, ok)
	assert.Equal(t, Running, st)

	_, ok = ParseState("running")
	assert.False(t, ok)
}

func TestFeatureData_CloneIsDeep(t *testing.T) {
	orig := FeatureData{"flat_driver_skill": json.RawMessage(`{"skill":5}`)}
	clone := orig.Clone()
	clone["flat_driver_skill"][0] = '['

	assert.Equal(t, `{"skill":5}`, string(orig["flat_driver_skill"]))
	assert.NotNil(t, FeatureData(nil).Clone())
}

func TestDriver_Normalize(t *testing.T) {
	d := Driver{
		Name:         []string{" Kimi ", "", "Ra\u0308ikko\u0308nen"},
		Abbreviation: " rai ",
		Number:       " 7",
	}
	d.Normalize()

	assert.Equal(t, []string{"Kimi", "R\u00e4ikk\u00f6nen"}, d.Name)
	assert.Equal(t, "RAI", d.Abbreviation)
	assert.Equal(t, "7", d.Number)
}

func TestIDs_JSONAsBase36(t *testing.T) {
	lap := LapResult{Results: map[DriverID]ParticipantLapResult{
		DriverID(1295): {Position: 1},
	}}
	ev := Event{ChampionshipID: 36, EventID: 1, TrackID: 35, Schedule: []SessionID{10, 11}}

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"championshipId":"10"`)
	assert.Contains(t, string(data), `"trackId":"z"`)
	assert.Contains(t, string(data), `"schedule":["a","b"]`)

	var back Event
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ev, back)

	data, err = json.Marshal(lap)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"zz":`)

	var lapBack LapResult
	require.NoError(t, json.Unmarshal(data, &lapBack))
	assert.Equal(t, lap, lapBack)
}
