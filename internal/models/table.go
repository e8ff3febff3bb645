// Package models contains domain types for the intake dashboard.
package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrDuplicateHeader is returned when a sheet header repeats a column name.
var ErrDuplicateHeader = errors.New("duplicate column in header row")

// Record is one spreadsheet row keyed by column name.
// Values are raw text (string), numbers (float64) or nil for absent cells.
type Record map[string]any

// Table is the ordered set of records of one worksheet.
type Table struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the cells of one column in row order.
func (t *Table) Column(name string) []any {
	cells := make([]any, len(t.Records))
	for i, rec := range t.Records {
		cells[i] = rec[name]
	}
	return cells
}

// Rows returns the table as header-ordered string rows, for display.
func (t *Table) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for i, rec := range t.Records {
		row := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = CellText(rec[col])
		}
		rows[i] = row
	}
	return rows
}

// TableFromRows builds a Table from a header row followed by data rows,
// the shape every sheet backend reads. Header names are trimmed; short rows
// are padded with empty strings and cells past the header width are dropped.
func TableFromRows(rows [][]any) (*Table, error) {
	if len(rows) == 0 {
		return &Table{Columns: []string{}, Records: []Record{}}, nil
	}

	header := make([]string, len(rows[0]))
	seen := make(map[string]struct{}, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.TrimSpace(CellText(h))
		if name != "" {
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateHeader, name)
			}
			seen[name] = struct{}{}
		}
		header[i] = name
	}

	// Trailing blank header cells carry no column.
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, col := range header {
			if col == "" {
				continue
			}
			if i < len(row) && row[i] != nil {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}

	columns := make([]string, 0, len(header))
	for _, col := range header {
		if col != "" {
			columns = append(columns, col)
		}
	}

	return &Table{Columns: columns, Records: records}, nil
}

// CellText renders a cell the way a spreadsheet displays it.
func CellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(x)
	}
}
