package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/intake-tracker/backend/internal/models"
)

// WorkbookStore keeps the sheet in a local .xlsx file. It is used for
// offline runs and demos; the file is created on the first append.
type WorkbookStore struct {
	mu    sync.Mutex
	path  string
	sheet string
}

// NewWorkbookStore creates a store for the named sheet of the workbook at path.
func NewWorkbookStore(path, sheet string) (*WorkbookStore, error) {
	if path == "" {
		return nil, fmt.Errorf("workbook store: path is required")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &WorkbookStore{path: path, sheet: sheet}, nil
}

// Name identifies the store in logs.
func (s *WorkbookStore) Name() string {
	return fmt.Sprintf("xlsx:%s/%s", s.path, s.sheet)
}

// FetchAll reads every row of the sheet. A missing file or sheet is an
// empty table.
func (s *WorkbookStore) FetchAll(ctx context.Context) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return models.TableFromRows(nil)
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
		return models.TableFromRows(nil)
	}

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", s.sheet, err)
	}

	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = make([]any, len(row))
		for j, v := range row {
			cells[i][j] = v
		}
	}
	return models.TableFromRows(cells)
}

// AppendRow writes values into the first row after the last used one.
func (s *WorkbookStore) AppendRow(ctx context.Context, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", s.sheet, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	copy(row, values)
	if err := f.SetSheetRow(s.sheet, cell, &row); err != nil {
		return fmt.Errorf("writing row %s: %w", cell, err)
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	fmt.Printf("[Sheet] Appended row %d to %s\n", len(rows)+1, s.Name())
	return nil
}

func (s *WorkbookStore) openOrCreate() (*excelize.File, error) {
	var f *excelize.File
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if s.sheet != "Sheet1" {
			if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("naming sheet: %w", err)
			}
		}
		return f, nil
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(s.sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", s.sheet, err)
		}
	}
	return f, nil
}
