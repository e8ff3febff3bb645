package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intake-tracker/backend/internal/config"
	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/storage"
)

const rulesYAML = `time_column: When
default_columns: [When, "Bottle (ml)", "NG (ml)", Notes]
`

func TestNew_WorkbookBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Sheet.Backend = storage.BackendWorkbook
	cfg.Sheet.WorkbookPath = filepath.Join(dir, "nested", "intake.xlsx")
	cfg.Parsing.RulesFile = filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(cfg.Parsing.RulesFile, []byte(rulesYAML), 0644))

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "When", a.Rules.TimeColumn)
	assert.DirExists(t, filepath.Join(dir, "nested"))

	ctx := context.Background()
	_, err = a.Service.Append(ctx, map[string]string{"When": "0900", "Bottle (ml)": "50"})
	require.NoError(t, err)

	view, err := a.Service.Render(ctx, dashboard.Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"When", "Bottle (ml)", "NG (ml)", "Notes"}, view.Columns)
	assert.Len(t, view.Rows, 1)
}

func TestNew_DuckDBBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Sheet.Backend = storage.BackendDuckDB
	cfg.Sheet.DuckDBPath = filepath.Join(dir, "intake.duckdb")
	cfg.Parsing.RulesFile = ""

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, a.Close())
}
