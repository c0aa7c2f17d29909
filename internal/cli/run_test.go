package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacquerai/countstep/internal/step"
)

func TestRunStep_Snapshots(t *testing.T) {
	for _, in := range []string{
		`{"input": {"start": true}}`,
		`{"input": {"sum": 5}}`,
		`{"input": {"sum": -1}}`,
	} {
		stdout, _, err := executeCommand(t, in)
		require.NoError(t, err)
		snaps.MatchSnapshot(t, stdout)
	}
}

func TestRunStep_FailuresLeaveStdoutEmpty(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "no input key", input: `{}`, wantErr: step.ErrMissingField},
		{name: "empty input", input: `{"input": {}}`, wantErr: step.ErrMissingField},
		{name: "malformed", input: `{"input"`, wantErr: step.ErrParse},
		{name: "string sum", input: `{"input": {"sum": "1"}}`, wantErr: step.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, stdout)
		})
	}
}

func TestRunStep_InputFile(t *testing.T) {
	tests := []struct {
		file    string
		want    string
		wantErr error
	}{
		{file: "increment.json", want: `{"output":{"sum":42}}`},
		{file: "start_null.json", want: `{"output":{"sum":1}}`},
		{file: "empty_input.json", wantErr: step.ErrMissingField},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join("testdata", "requests", tt.file)
			stdout, _, err := executeCommand(t, `ignored`, "--input-file", path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, stdout)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout)
		})
	}
}

func TestRunStep_InputFileMissing(t *testing.T) {
	stdout, _, err := executeCommand(t, "", "-f", filepath.Join("testdata", "requests", "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening input file")
	assert.Empty(t, stdout)
}

func TestRunStep_StdinDash(t *testing.T) {
	stdout, _, err := executeCommand(t, `{"input": {"sum": 9}}`, "-f", "-")
	require.NoError(t, err)
	assert.Equal(t, `{"output":{"sum":10}}`, stdout)
}

func TestRunStep_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countstep.prom")

	_, _, err := executeCommand(t, `{"input": {"sum": 2}}`, "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `countstep_invocations_total{outcome="ok"} 1`)
	assert.Contains(t, string(data), "countstep_sum 3")
}

func TestRunStep_MetricsFileOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "countstep.prom")

	_, _, err := executeCommand(t, `{}`, "--metrics-file", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `countstep_invocations_total{outcome="missing_field"} 1`)
}

func TestRunStep_MetricsWriteFailureDoesNotFailStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "countstep.prom")

	stdout, _, err := executeCommand(t, `{"input": {"sum": 2}}`, "--metrics-file", path)
	require.NoError(t, err)
	assert.Equal(t, `{"output":{"sum":3}}`, stdout)
}

func TestRunStep_LogsGoToStderr(t *testing.T) {
	stdout, stderr, err := executeCommand(t, `{"input": {"sum": 2}}`, "--log-level", "info", "--output", "json")
	require.NoError(t, err)
	assert.Equal(t, `{"output":{"sum":3}}`, stdout)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(stderr), &entry))
	assert.Equal(t, "Step completed", entry["message"])
	assert.Equal(t, float64(3), entry["sum"])
	assert.Len(t, entry["invocation_id"], 26)
}

func TestRunStep_QuietSilencesLogs(t *testing.T) {
	_, stderr, err := executeCommand(t, `{"input": {"sum": 2}}`, "--log-level", "info", "--quiet")
	require.NoError(t, err)
	assert.Empty(t, stderr)
}
