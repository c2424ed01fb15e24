package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuzzworker/internal/cli"
	"fuzzworker/internal/config"
	"fuzzworker/internal/device"
	"fuzzworker/internal/execution"
	"fuzzworker/internal/phoneagent"
)

const adbOutput = `List of devices attached
emulator-5554          device product:sdk_gphone64 model:Pixel_7 device:emu64a transport_id:1
R58M123456             unauthorized transport_id:2
`

type fakeAgent struct {
	failOn string
	device string
}

func (f *fakeAgent) Run(_ context.Context, instruction string) (string, error) {
	if instruction == f.failOn {
		return "", errors.New("element not found")
	}
	return "ok: " + instruction, nil
}

func (f *fakeAgent) UseDevice(id string) error {
	f.device = id
	return nil
}

type harness struct {
	root   *cobra.Command
	cmds   *Commands
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	agent  *fakeAgent
	model  phoneagent.ModelConfig
}

func newHarness(t *testing.T, adbOut string) *harness {
	t.Helper()
	// Keep model settings from the developer's environment out of the tests.
	t.Setenv(config.EnvModelURL, "")
	t.Setenv(config.EnvModel, "")
	t.Setenv(config.EnvAPIKey, "")

	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		agent:  &fakeAgent{failOn: "tap nowhere"},
	}
	collab := Collaborators{
		Runner: func(_ context.Context, name string, args ...string) ([]byte, error) {
			return []byte(adbOut), nil
		},
		Agents: func(_ *config.RunConfig, _ logrus.FieldLogger, _ *device.ADB) execution.AgentFactory {
			return func(mc phoneagent.ModelConfig) (execution.Agent, error) {
				h.model = mc
				return h.agent, nil
			}
		},
	}

	cfg := config.New()
	var flags cli.Flags
	h.cmds = NewCommands(cfg, h.stdout, h.stderr, collab)
	h.root = &cobra.Command{Use: "fuzzworker", SilenceErrors: true}
	h.cmds.Register(h.root, &flags, cfg)
	h.root.SetOut(h.stderr)
	h.root.SetErr(h.stderr)
	return h
}

func (h *harness) execute(args ...string) error {
	h.root.SetArgs(args)
	cmd, err := h.root.ExecuteC()
	h.cmds.Report(cmd, err)
	return err
}

func (h *harness) events(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(h.stdout.Bytes()))
	for sc.Scan() {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev), "line %q", sc.Text())
		out = append(out, ev)
	}
	return out
}

func writeCases(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runArgs(casesPath string, extra ...string) []string {
	args := []string{
		"--task-id", "t-42",
		"--target-app", "com.example.app",
		"--test-cases", casesPath,
		"--model-url", "http://localhost:8080/v1",
		"--model", "autoglm-phone",
		"--api-key", "secret",
	}
	return append(args, extra...)
}

func eventTypes(evs []map[string]any) []string {
	types := make([]string, len(evs))
	for i, ev := range evs {
		types[i], _ = ev["type"].(string)
	}
	return types
}

func TestRun_StreamsEventsForEveryCase(t *testing.T) {
	h := newHarness(t, adbOutput)
	cases := writeCases(t, `[{"description":"open settings"},{"description":"tap nowhere","priority":2}]`)

	require.NoError(t, h.execute(runArgs(cases)...))

	evs := h.events(t)
	assert.Equal(t, []string{"log", "log", "progress", "progress", "complete"}, eventTypes(evs))
	assert.Equal(t, "starting fuzz task: t-42", evs[0]["message"])
	assert.Equal(t, "using device: emulator-5554", evs[1]["message"])
	assert.Equal(t, "emulator-5554", h.agent.device)

	assert.EqualValues(t, 2, evs[3]["current"])
	assert.EqualValues(t, 2, evs[3]["total"])
	assert.Equal(t, "tap nowhere", evs[3]["description"])

	results, ok := evs[4]["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, true, first["success"])
	assert.Equal(t, "ok: open settings", first["result"])
	second := results[1].(map[string]any)
	assert.Equal(t, false, second["success"])
	assert.Equal(t, "element not found", second["error"])

	assert.Equal(t, "http://localhost:8080/v1", h.model.BaseURL)
	assert.Equal(t, "autoglm-phone", h.model.ModelName)
	assert.NotContains(t, h.stdout.String(), "secret")
}

func TestRun_RootCommandAcceptsRunFlags(t *testing.T) {
	h := newHarness(t, adbOutput)
	cases := writeCases(t, `[{"description":"open settings"}]`)

	require.NoError(t, h.execute(append([]string{"run"}, runArgs(cases)...)...))
	assert.Equal(t, []string{"log", "log", "progress", "complete"}, eventTypes(h.events(t)))
}

func TestRun_UnreadableCaseFile(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		message string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
			message: "failed to read test case file: ",
		},
		{
			name:    "not json",
			path:    func(t *testing.T) string { return writeCases(t, `{{{`) },
			message: "failed to read test case file: ",
		},
		{
			name:    "not an array",
			path:    func(t *testing.T) string { return writeCases(t, `{"description":"x"}`) },
			message: "failed to read test case file: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, adbOutput)
			err := h.execute(runArgs(tt.path(t))...)
			require.Error(t, err)
			assert.True(t, IsReported(err))

			evs := h.events(t)
			require.Len(t, evs, 1)
			assert.Equal(t, "error", evs[0]["type"])
			assert.True(t, strings.HasPrefix(evs[0]["message"].(string), tt.message), evs[0]["message"])
		})
	}
}

func TestRun_NoDevice(t *testing.T) {
	h := newHarness(t, "List of devices attached\nR58M123456 unauthorized\n\n")
	cases := writeCases(t, `[{"description":"open settings"}]`)

	err := h.execute(runArgs(cases)...)
	require.Error(t, err)
	assert.True(t, IsReported(err))

	evs := h.events(t)
	assert.Equal(t, []string{"log", "error"}, eventTypes(evs))
	assert.Equal(t, "task execution failed: no ADB device detected", evs[1]["message"])
}

func TestRun_MissingRequiredFlag(t *testing.T) {
	h := newHarness(t, adbOutput)
	cases := writeCases(t, `[]`)

	args := runArgs(cases)
	err := h.execute(args[2:]...) // drop --task-id
	require.Error(t, err)
	assert.False(t, IsReported(err))

	evs := h.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, "error", evs[0]["type"])
	assert.Contains(t, evs[0]["message"], "task-id")
}

func TestRun_ModelSettingsFromEnvironment(t *testing.T) {
	h := newHarness(t, adbOutput)
	t.Setenv(config.EnvModelURL, "https://open.bigmodel.cn/api/paas/v4")
	t.Setenv(config.EnvModel, "autoglm-phone")
	t.Setenv(config.EnvAPIKey, "from-env")
	cases := writeCases(t, `[]`)

	err := h.execute(
		"--task-id", "t-1",
		"--target-app", "com.example.app",
		"--test-cases", cases,
	)
	require.NoError(t, err)

	assert.Equal(t, "https://open.bigmodel.cn/api/paas/v4", h.model.BaseURL)
	assert.Equal(t, "from-env", h.model.APIKey)
	assert.Equal(t, []string{"log", "log", "complete"}, eventTypes(h.events(t)))
	assert.Contains(t, h.stdout.String(), `"results":[]`)
}

func TestRun_FlagsOverrideEnvironment(t *testing.T) {
	h := newHarness(t, adbOutput)
	t.Setenv(config.EnvModel, "from-env")
	cases := writeCases(t, `[]`)

	require.NoError(t, h.execute(runArgs(cases)...))
	assert.Equal(t, "autoglm-phone", h.model.ModelName)
}

func TestRun_WritesResultsFile(t *testing.T) {
	h := newHarness(t, adbOutput)
	cases := writeCases(t, `[{"description":"open settings"},{"description":"tap nowhere"}]`)
	out := filepath.Join(t.TempDir(), "out", "results.json")

	require.NoError(t, h.execute(runArgs(cases, "--results-file", out)...))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "t-42", record["task_id"])
	assert.Equal(t, "emulator-5554", record["device_id"])
	assert.EqualValues(t, 1, record["passed"])
	assert.EqualValues(t, 1, record["failed"])
}

func TestRun_InvalidResultsDSN(t *testing.T) {
	h := newHarness(t, adbOutput)
	cases := writeCases(t, `[]`)

	err := h.execute(runArgs(cases, "--results-dsn", "not a dsn")...)
	require.Error(t, err)

	evs := h.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, "error", evs[0]["type"])
}

func TestDevices_ListsReachableDevices(t *testing.T) {
	h := newHarness(t, adbOutput)

	require.NoError(t, h.execute("devices"))
	assert.Contains(t, h.stdout.String(), "emulator-5554")
	assert.NotContains(t, h.stdout.String(), "R58M123456")
}

func TestDevices_All(t *testing.T) {
	h := newHarness(t, adbOutput)

	require.NoError(t, h.execute("devices", "--all"))
	assert.Contains(t, h.stdout.String(), "R58M123456")
	assert.Contains(t, h.stdout.String(), "unauthorized")
}

func TestView_PlainSummary(t *testing.T) {
	h := newHarness(t, adbOutput)
	cases := writeCases(t, `[{"description":"open settings"},{"description":"tap nowhere"}]`)
	out := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, h.execute(runArgs(cases, "--results-file", out)...))

	v := newHarness(t, adbOutput)
	require.NoError(t, v.execute("view", out))
	assert.Contains(t, v.stdout.String(), "Fuzz Run Statistics")
	assert.Contains(t, v.stdout.String(), "element not found")
}

func TestView_MissingFileIsNotAnEvent(t *testing.T) {
	h := newHarness(t, adbOutput)

	err := h.execute("view", filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Empty(t, h.stdout.String())
}

func TestMigrate_RequiresDSN(t *testing.T) {
	h := newHarness(t, adbOutput)

	err := h.execute("migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "results-dsn")
	assert.Empty(t, h.stdout.String())
}

func TestMigrate_RejectsInvalidDSN(t *testing.T) {
	h := newHarness(t, adbOutput)

	err := h.execute("migrate", "--results-dsn", "not a dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid results DSN")
}
