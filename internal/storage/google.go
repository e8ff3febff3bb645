package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/intake-tracker/backend/internal/models"
)

// defaultRequestsPerMinute matches the per-user Sheets API read quota.
const defaultRequestsPerMinute = 60

// GoogleSheetStore reads and appends rows of one worksheet through the
// Google Sheets API using service-account credentials.
type GoogleSheetStore struct {
	values    *sheets.SpreadsheetsValuesService
	sheetID   string
	worksheet string
	limiter   *rate.Limiter
}

// NewGoogleSheetStore authorizes a Sheets client for the configured sheet.
func NewGoogleSheetStore(ctx context.Context, opts Options) (*GoogleSheetStore, error) {
	if opts.SheetID == "" {
		return nil, fmt.Errorf("google sheet store: sheet id is required")
	}

	clientOpts := []option.ClientOption{
		option.WithScopes(sheets.SpreadsheetsScope, sheets.DriveScope),
	}
	switch {
	case len(opts.CredentialsJSON) > 0:
		clientOpts = append(clientOpts, option.WithCredentialsJSON(opts.CredentialsJSON))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets client: %w", err)
	}

	return newGoogleSheetStore(svc, opts), nil
}

func newGoogleSheetStore(svc *sheets.Service, opts Options) *GoogleSheetStore {
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	worksheet := opts.Worksheet
	if worksheet == "" {
		worksheet = "Sheet1"
	}

	return &GoogleSheetStore{
		values:    svc.Spreadsheets.Values,
		sheetID:   opts.SheetID,
		worksheet: worksheet,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 5),
	}
}

// Name identifies the store in logs.
func (s *GoogleSheetStore) Name() string {
	return fmt.Sprintf("google:%s/%s", s.sheetID, s.worksheet)
}

// FetchAll reads the whole worksheet; the first row is the header.
func (s *GoogleSheetStore) FetchAll(ctx context.Context) (*models.Table, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.values.Get(s.sheetID, sheetRange(s.worksheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Name(), err)
	}

	table, err := models.TableFromRows(resp.Values)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.Name(), err)
	}
	fmt.Printf("[Sheet] Fetched %d rows from %s\n", table.Len(), s.Name())
	return table, nil
}

// AppendRow appends values after the last row of the worksheet as-is.
func (s *GoogleSheetStore) AppendRow(ctx context.Context, values []any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	row := make([]interface{}, len(values))
	copy(row, values)
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := s.values.Append(s.sheetID, sheetRange(s.worksheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", s.Name(), err)
	}
	fmt.Printf("[Sheet] Appended 1 row to %s\n", s.Name())
	return nil
}

// sheetRange quotes a worksheet title for A1 notation.
func sheetRange(worksheet string) string {
	return "'" + strings.ReplaceAll(worksheet, "'", "''") + "'"
}
