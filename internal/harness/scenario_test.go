package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One driver, one lap"
championship:
  name: Test Series
  features:
    flat_driver_skill: { enabled: true }
tracks:
  - ref: t
    name: Track
    lengthMillimeters: 1000
drivers:
  - ref: d
    name: [Only, Driver]
    data:
      flat_driver_skill: { skill: 3 }
events:
  - ref: e
    name: Event
    track: t
sessions:
  - ref: s
    event: e
    name: Race
    lapCount: 1
flow:
  - invoke: start
    session: s
  - invoke: progress
    session: s
    laps: 1
  - invoke: finish
    session: s
assertions:
  - type: standings
    session: s
    order: [d]
`

func TestParseScenario_Minimal(t *testing.T) {
	sc, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", sc.Name)
	assert.Equal(t, []string{"Only", "Driver"}, sc.Drivers[0].Name)
	assert.Equal(t, uint16(1), sc.Sessions[0].LapCount)
	require.Len(t, sc.Flow, 3)
	assert.Equal(t, OpProgress, sc.Flow[1].Invoke)
	assert.Nil(t, sc.Flow[0].Expect)
	assert.Equal(t, map[string]any{"skill": 3}, sc.Drivers[0].Data["flat_driver_skill"])
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "sponsor: nobody\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `description: x
championship: { name: c }
flow: [{ invoke: start, session: s }]`,
			want: "name is required",
		},
		{
			name: "missing championship",
			yaml: `name: n
description: x
flow: [{ invoke: start, session: s }]`,
			want: "championship.name is required",
		},
		{
			name: "empty flow",
			yaml: `name: n
description: x
championship: { name: c }`,
			want: "flow list is required",
		},
		{
			name: "unknown session",
			yaml: `name: n
description: x
championship: { name: c }
flow: [{ invoke: start, session: nope }]`,
			want: `unknown session "nope"`,
		},
		{
			name: "unknown track",
			yaml: `name: n
description: x
championship: { name: c }
events: [{ ref: e, name: E, track: nope }]
flow: [{ invoke: start, session: s }]`,
			want: `events[0]: unknown track "nope"`,
		},
		{
			name: "duplicate ref",
			yaml: `name: n
description: x
championship: { name: c }
drivers: [{ ref: d, name: [A] }, { ref: d, name: [B] }]
flow: [{ invoke: start, session: s }]`,
			want: `drivers[1]: duplicate ref "d"`,
		},
		{
			name: "unknown operation",
			yaml: `name: n
description: x
championship: { name: c }
tracks: [{ ref: t, name: T, lengthMillimeters: 1 }]
events: [{ ref: e, name: E, track: t }]
sessions: [{ ref: s, event: e, name: S, lapCount: 1 }]
flow: [{ invoke: pit_stop, session: s }]`,
			want: `unknown operation "pit_stop"`,
		},
		{
			name: "unknown state",
			yaml: `name: n
description: x
championship: { name: c }
tracks: [{ ref: t, name: T, lengthMillimeters: 1 }]
events: [{ ref: e, name: E, track: t }]
sessions: [{ ref: s, event: e, name: S, lapCount: 1 }]
flow: [{ invoke: set_state, session: s, state: Paused }]`,
			want: `unknown state "Paused"`,
		},
		{
			name: "progress without laps",
			yaml: `name: n
description: x
championship: { name: c }
tracks: [{ ref: t, name: T, lengthMillimeters: 1 }]
events: [{ ref: e, name: E, track: t }]
sessions: [{ ref: s, event: e, name: S, lapCount: 1 }]
flow: [{ invoke: progress, session: s }]`,
			want: "laps is required for progress",
		},
		{
			name: "standings with unknown driver",
			yaml: `name: n
description: x
championship: { name: c }
tracks: [{ ref: t, name: T, lengthMillimeters: 1 }]
events: [{ ref: e, name: E, track: t }]
sessions: [{ ref: s, event: e, name: S, lapCount: 1 }]
flow: [{ invoke: start, session: s }]
assertions: [{ type: standings, session: s, order: [ghost] }]`,
			want: `unknown driver "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			require.NoError(t, err)
		})
	}
}
