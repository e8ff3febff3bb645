package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/intake-tracker/backend/internal/models"
)

// DuckSheetStore keeps sheet cells in a DuckDB file, one row per cell.
// Row 0 holds the header. An empty path opens an in-memory database.
type DuckSheetStore struct {
	mu    sync.Mutex
	db    *sql.DB
	path  string
	sheet string
}

// NewDuckSheetStore opens (or creates) the DuckDB file at path.
func NewDuckSheetStore(path, sheet string) (*DuckSheetStore, error) {
	if sheet == "" {
		sheet = "Sheet1"
	}

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sheet_cells (
			sheet   VARCHAR NOT NULL,
			row_idx INTEGER NOT NULL,
			col_idx INTEGER NOT NULL,
			value   VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	fmt.Printf("[DuckSheet] Opened %q (sheet %s)\n", path, sheet)
	return &DuckSheetStore{db: db, path: path, sheet: sheet}, nil
}

// Name identifies the store in logs.
func (s *DuckSheetStore) Name() string {
	return fmt.Sprintf("duckdb:%s/%s", s.path, s.sheet)
}

// FetchAll rebuilds the grid from stored cells.
func (s *DuckSheetStore) FetchAll(ctx context.Context) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_idx, col_idx, value
		FROM sheet_cells
		WHERE sheet = ?
		ORDER BY row_idx, col_idx
	`, s.sheet)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var grid [][]any
	for rows.Next() {
		var rowIdx, colIdx int
		var value sql.NullString
		if err := rows.Scan(&rowIdx, &colIdx, &value); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		for len(grid) <= rowIdx {
			grid = append(grid, nil)
		}
		for len(grid[rowIdx]) <= colIdx {
			grid[rowIdx] = append(grid[rowIdx], "")
		}
		if value.Valid {
			grid[rowIdx][colIdx] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return models.TableFromRows(grid)
}

// AppendRow stores values as the next row of the sheet.
func (s *DuckSheetStore) AppendRow(ctx context.Context, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_idx) + 1, 0) FROM sheet_cells WHERE sheet = ?`, s.sheet,
	).Scan(&next)
	if err != nil {
		return fmt.Errorf("next row: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sheet_cells (sheet, row_idx, col_idx, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for col, v := range values {
		if _, err := stmt.ExecContext(ctx, s.sheet, next, col, models.CellText(v)); err != nil {
			return fmt.Errorf("insert cell %d: %w", col, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fmt.Printf("[DuckSheet] Appended row %d to %s\n", next, s.sheet)
	return nil
}

// Close releases the database handle.
func (s *DuckSheetStore) Close() error {
	return s.db.Close()
}
