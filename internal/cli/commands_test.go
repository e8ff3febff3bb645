package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intake-tracker/backend/internal/config"
	"github.com/intake-tracker/backend/internal/storage"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"SHEET_BACKEND", "SHEET_ID", "WORKSHEET_NAME", "CACHE_TTL_SECONDS"} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Sheet.Backend = storage.BackendWorkbook
	cfg.Sheet.WorkbookPath = filepath.Join(dir, "intake.xlsx")
	cfg.Parsing.TimeZone = "UTC"
	path := filepath.Join(dir, config.DefaultFileName)
	require.NoError(t, cfg.Save(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAppendAndInspect(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, "--config", cfgPath, "append",
		"--set", "Time start=0900", "--set", "Bottle (ml)=120", "--set", "Notes=first")
	require.NoError(t, err)
	assert.Contains(t, out, "Appended: 0900 | 120 | 0 | first")

	_, err = run(t, "--config", cfgPath, "append", "--set", "Time start=10:30", "--set", "NG (ml)=15")
	require.NoError(t, err)

	out, err = run(t, "--config", cfgPath, "records")
	require.NoError(t, err)
	assert.Contains(t, out, "Time start")
	assert.Contains(t, out, "first")

	out, err = run(t, "--config", cfgPath, "columns")
	require.NoError(t, err)
	assert.Contains(t, out, "Time start (time)")
	assert.Contains(t, out, "Default selection: Bottle (ml), NG (ml)")

	out, err = run(t, "--config", cfgPath, "series", "--series", "NG (ml)")
	require.NoError(t, err)
	assert.Contains(t, out, "NG (ml)")
	assert.Contains(t, out, "15")
	assert.NotContains(t, out, "Bottle (ml)")

	chartPath := filepath.Join(t.TempDir(), "intake.svg")
	out, err = run(t, "--config", cfgPath, "chart", "--out", chartPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 4 points")
	data, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestAppend_Invalid(t *testing.T) {
	cfgPath := writeConfig(t)

	_, err := run(t, "--config", cfgPath, "append", "--set", "no-equals-sign")
	assert.Error(t, err)

	_, err = run(t, "--config", cfgPath, "append", "--set", "Bottle (ml)=plenty")
	assert.Error(t, err)
}

func TestChart_UnsupportedFormat(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, "--config", cfgPath, "chart", "--out", "intake.gif")
	assert.Error(t, err)
}
