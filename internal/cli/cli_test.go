package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pitwall/internal/config"
)

const scenarioDir = "../../testdata/scenarios"

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "pitwall", cmd.Use)

	for _, name := range []string{"serve", "migrate", "run", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestExecute_CommandErrors(t *testing.T) {
	code, _, stderr := execute(t, "migrate", "--format", "yaml")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, `invalid format "yaml"`)

	code, _, _ = execute(t, "pit-stop")
	assert.Equal(t, ExitCommandError, code)

	code, _, stderr = execute(t, "run")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "pitwall: E_COMMAND: ")
}

func TestMigrate(t *testing.T) {
	db := filepath.Join(t.TempDir(), "season.db")

	code, stdout, stderr := execute(t, "migrate", "--db", db, "--format", "json")
	require.Equal(t, ExitSuccess, code, stderr)

	var resp struct {
		Status string        `json:"status"`
		Data   MigrateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, db, resp.Data.DBPath)
	assert.Equal(t, 1, resp.Data.SchemaVersion)
	assert.FileExists(t, db)

	code, stdout, _ = execute(t, "migrate", "--db", db)
	require.Equal(t, ExitSuccess, code)
	assert.Equal(t, db+": schema version 1\n", stdout)
}

func TestRun_PrintsReport(t *testing.T) {
	code, stdout, stderr := execute(t, "run", filepath.Join(scenarioDir, "monza_weekend.yaml"))
	require.Equal(t, ExitSuccess, code, stderr)

	golden, err := os.ReadFile("../harness/testdata/golden/monza_weekend.golden")
	require.NoError(t, err)
	assert.Equal(t, string(golden), stdout)
}

func TestRun_JSON(t *testing.T) {
	code, stdout, _ := execute(t, "run", filepath.Join(scenarioDir, "monza_weekend.yaml"), "--format", "json")
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Status string         `json:"status"`
		Data   ScenarioResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, "monza_weekend", resp.Data.Name)
	require.NotEmpty(t, resp.Data.Trace)
	assert.Equal(t, "SCHEDULE_CONFLICT", resp.Data.Trace[0].Outcome)
}

func TestRun_MissingScenario(t *testing.T) {
	code, _, stderr := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "failed to load scenario")
}

const passingScenario = `name: solo
description: "One driver, one lap"
championship:
  name: Test Series
  features:
    flat_driver_skill: { enabled: true }
tracks:
  - { ref: t, name: Track, lengthMillimeters: 1000 }
drivers:
  - ref: d
    name: [Only, Driver]
    data: { flat_driver_skill: { skill: 3 } }
events:
  - { ref: e, name: Event, track: t }
sessions:
  - { ref: s, event: e, name: Race, lapCount: 1 }
flow:
  - { invoke: start, session: s }
  - { invoke: progress, session: s, laps: 1 }
  - { invoke: finish, session: s }
`

func TestTestCommand_GoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solo.yaml"), []byte(passingScenario), 0644))

	code, stdout, _ := execute(t, "test", dir, "--update")
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "✓ solo (golden updated)")
	golden := filepath.Join(dir, "golden", "solo.golden")
	assert.FileExists(t, golden)

	code, stdout, _ = execute(t, "test", dir)
	require.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0644))
	code, stdout, _ = execute(t, "test", dir)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stdout, "report does not match golden file")
}

func TestTestCommand_FailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	failing := passingScenario + `assertions:
  - { type: elapsed_laps, session: s, laps: 0 }
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "solo.yaml"), []byte(failing), 0644))

	code, stdout, _ := execute(t, "test", dir, "--format", "json")
	assert.Equal(t, ExitFailure, code)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, []string{"assertions[0]: elapsed_laps: expected 0, got 1"}, resp.Data.Scenarios[0].Errors)
}

func TestTestCommand_Directories(t *testing.T) {
	code, _, stderr := execute(t, "test", "/nonexistent/scenarios")
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr, "scenarios directory not found")

	code, stdout, _ := execute(t, "test", t.TempDir())
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "No scenarios found.")

	code, stdout, _ = execute(t, "test", scenarioDir, "--filter", "monza*")
	assert.Equal(t, ExitSuccess, code, stdout)
	assert.Contains(t, stdout, "✓ monza_weekend")
	assert.NotContains(t, stdout, "variance_practice")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, f.Error("E_STORE", "database locked", map[string]string{"db": "x.db"}))
	assert.Contains(t, buf.String(), "pitwall: E_STORE: database locked")
	assert.Contains(t, buf.String(), "map[db:x.db]")
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	f.VerboseLog("Opening %s", "x.db")
	assert.Empty(t, out.String())
	assert.Equal(t, "Opening x.db\n", errOut.String())
}

func TestRunServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runServe(ctx, config.Config{
		DBPath:          filepath.Join(t.TempDir(), "serve.db"),
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	})
	require.NoError(t, err)
}
