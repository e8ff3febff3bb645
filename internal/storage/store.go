// Package storage provides the sheet stores the dashboard reads from and
// appends to.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/intake-tracker/backend/internal/models"
)

// Backend names accepted by Open.
const (
	BackendGoogle   = "google"
	BackendWorkbook = "xlsx"
	BackendDuckDB   = "duckdb"
)

// SheetStore defines the interface for a single worksheet.
type SheetStore interface {
	// Name identifies the store in logs.
	Name() string
	// FetchAll returns every data row keyed by the header row. A sheet
	// without data rows yields an empty table.
	FetchAll(ctx context.Context) (*models.Table, error)
	// AppendRow appends one row at the end, aligned to the column order.
	AppendRow(ctx context.Context, values []any) error
}

// Options selects and configures a backend.
type Options struct {
	Backend string

	// Google Sheets
	SheetID           string
	Worksheet         string
	CredentialsFile   string
	CredentialsJSON   []byte
	RequestsPerMinute int

	// Local workbook
	WorkbookPath string

	// DuckDB
	DuckDBPath string
}

// Open creates the store named by opts.Backend. The returned store may also
// implement io.Closer.
func Open(ctx context.Context, opts Options) (SheetStore, error) {
	if opts.Worksheet == "" {
		opts.Worksheet = "Sheet1"
	}

	var (
		store SheetStore
		err   error
	)
	switch strings.ToLower(opts.Backend) {
	case BackendGoogle, "":
		store, err = asStore(NewGoogleSheetStore(ctx, opts))
	case BackendWorkbook:
		store, err = asStore(NewWorkbookStore(opts.WorkbookPath, opts.Worksheet))
	case BackendDuckDB:
		store, err = asStore(NewDuckSheetStore(opts.DuckDBPath, opts.Worksheet))
	default:
		return nil, fmt.Errorf("unknown sheet backend: %s", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	fmt.Printf("[Sheet] Using %s\n", store.Name())
	return store, nil
}

func asStore[T SheetStore](s T, err error) (SheetStore, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the store if it holds resources.
func Close(s SheetStore) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
