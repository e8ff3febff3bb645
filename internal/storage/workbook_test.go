package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbookStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewWorkbookStore(filepath.Join(t.TempDir(), "intake.xlsx"), "Log")
	require.NoError(t, err)

	table, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table.Columns)
	assert.Equal(t, 0, table.Len())
}

func TestWorkbookStore_AppendAndFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.xlsx")
	store, err := NewWorkbookStore(path, "Log")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.AppendRow(ctx, []any{"Time start", "Bottle (ml)", "Notes"}))
	require.NoError(t, store.AppendRow(ctx, []any{"0900", "120", "first"}))
	require.NoError(t, store.AppendRow(ctx, []any{"1015", "80", ""}))

	table, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Time start", "Bottle (ml)", "Notes"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "0900", table.Records[0]["Time start"])
	assert.Equal(t, "80", table.Records[1]["Bottle (ml)"])
	assert.Equal(t, "", table.Records[1]["Notes"])

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	idx, err := f.GetSheetIndex("Log")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, idx, 0)
}

func TestWorkbookStore_AddsMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "unrelated"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store, err := NewWorkbookStore(path, "Log")
	require.NoError(t, err)
	ctx := context.Background()

	table, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, table.Columns)

	require.NoError(t, store.AppendRow(ctx, []any{"Time start", "NG (ml)"}))
	table, err = store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Time start", "NG (ml)"}, table.Columns)
}

func TestNewWorkbookStore_RequiresPath(t *testing.T) {
	_, err := NewWorkbookStore("", "Log")
	assert.Error(t, err)
}
