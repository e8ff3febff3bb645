// mock_sheet.go - In-memory sheet store for testing
package testutil

import (
	"context"
	"sync"

	"github.com/intake-tracker/backend/internal/models"
)

// MockSheet implements storage.SheetStore in memory. Rows are kept as the
// raw grid, header first, the way a spreadsheet holds them.
type MockSheet struct {
	mu      sync.Mutex
	rows    [][]any
	fetches int
	appends int

	// FetchErr and AppendErr, when set, are returned by the next calls.
	FetchErr  error
	AppendErr error
}

// NewMockSheet creates a sheet holding the given rows (header first).
func NewMockSheet(rows ...[]any) *MockSheet {
	return &MockSheet{rows: rows}
}

func (m *MockSheet) Name() string { return "mock" }

func (m *MockSheet) FetchAll(ctx context.Context) (*models.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches++
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return models.TableFromRows(m.rows)
}

func (m *MockSheet) AppendRow(ctx context.Context, values []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return m.AppendErr
	}
	row := make([]any, len(values))
	copy(row, values)
	m.rows = append(m.rows, row)
	m.appends++
	return nil
}

// Fetches returns how many times FetchAll was called.
func (m *MockSheet) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches
}

// Appends returns how many rows were appended.
func (m *MockSheet) Appends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appends
}

// RawRows returns a copy of the stored grid.
func (m *MockSheet) RawRows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]any, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
