package harness

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pitwall/internal/race"
)

const scenarioDir = "../../testdata/scenarios"

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	sc, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return sc
}

func TestRun_MonzaWeekendGolden(t *testing.T) {
	sc, err := LoadScenario(filepath.Join(scenarioDir, "monza_weekend.yaml"))
	require.NoError(t, err)

	result, err := RunWithGolden(t, sc)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Trace, len(sc.Flow))
}

func TestRun_SeededVarianceIsReproducible(t *testing.T) {
	sc, err := LoadScenario(filepath.Join(scenarioDir, "variance_practice.yaml"))
	require.NoError(t, err)

	first, err := Run(context.Background(), sc)
	require.NoError(t, err)
	second, err := Run(context.Background(), sc)
	require.NoError(t, err)

	assert.True(t, first.Pass, "errors: %v", first.Errors)
	assert.Equal(t, string(Report(sc.Name, first)), string(Report(sc.Name, second)))

	s, ok := first.Session("practice")
	require.True(t, ok)
	for lap := uint16(1); lap <= s.ElapsedLaps; lap++ {
		for _, r := range s.LapResults[lap].Results {
			assert.True(t, r.LapTime >= 106*time.Second && r.LapTime <= 108*time.Second,
				"lap %d time %v outside variance window", lap, r.LapTime)
		}
	}
}

func TestRun_Minimal(t *testing.T) {
	result, err := Run(context.Background(), mustParse(t, minimalScenario))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	s, ok := result.Session("s")
	require.True(t, ok)
	assert.Equal(t, race.Finished, s.State)
	require.Len(t, s.Participants, 1)
	require.NotNil(t, s.Participants[0].Result)
	assert.Equal(t, 3*time.Second, s.Participants[0].Result.TotalTime)
}

func TestRun_UnexpectedOutcomeFails(t *testing.T) {
	yaml := strings.Replace(minimalScenario, `  - invoke: progress
    session: s
    laps: 1
`, "", 1)
	result, err := Run(context.Background(), mustParse(t, yaml))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "step 2 (finish s): expected ok, got INVALID_STATE_CHANGE")
}

func TestRun_StaleBeforeFirstWrite(t *testing.T) {
	yaml := strings.Replace(minimalScenario, `  - invoke: start
    session: s
`, `  - invoke: start
    session: s
    stale: true
    expect: { error: VERSION_CONFLICT }
  - invoke: start
    session: s
`, 1)
	result, err := Run(context.Background(), mustParse(t, yaml))
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, OutcomeVersionConflict, result.Trace[0].Outcome)
	assert.Equal(t, "stale", result.Trace[0].Args)
}

func TestRun_AssertionFailure(t *testing.T) {
	yaml := minimalScenario + `  - type: elapsed_laps
    session: s
    laps: 2
  - type: trace_count
    invoke: progress
    count: 4
`
	result, err := Run(context.Background(), mustParse(t, yaml))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, []string{
		"assertions[1]: elapsed_laps: expected 2, got 1",
		"assertions[2]: trace_count: expected 4 progress events, got 1",
	}, result.Errors)
}

func TestReport_ListsErrors(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace, TraceEvent{Seq: 1, Invoke: OpStart, Session: "s", Outcome: OutcomeOK})
	result.AddError("something broke")

	assert.Equal(t, `scenario: broken
trace:
  1 start s -> ok
sessions:
errors:
  something broke
pass: false
`, string(Report("broken", result)))
}
