// Package dashboard runs the render pass and the append flow on top of a
// sheet store and its read cache.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/intake-tracker/backend/internal/cache"
	"github.com/intake-tracker/backend/internal/models"
	"github.com/intake-tracker/backend/internal/parser"
	"github.com/intake-tracker/backend/internal/storage"
)

var (
	// ErrSheetUnavailable wraps failures of the remote store.
	ErrSheetUnavailable = errors.New("sheet unavailable")
	// ErrInvalidValue is returned for append input that cannot be written.
	ErrInvalidValue = errors.New("invalid value")
)

// Selection is the caller's choice of series to chart. When Picked is false
// and Series is empty, the default selection applies.
type Selection struct {
	Series []string
	Picked bool
}

// Service produces a View per request and appends rows to the sheet.
type Service struct {
	store    storage.SheetStore
	cache    *cache.TableCache
	rules    *models.Rules
	matcher  *parser.IntakeMatcher
	resolver *parser.TimestampResolver
	key      string
	ttl      time.Duration
}

// NewService wires a store, its cache and the parsing rules together.
// Nil rules or resolver fall back to defaults.
func NewService(store storage.SheetStore, tc *cache.TableCache, rules *models.Rules, resolver *parser.TimestampResolver) *Service {
	if rules == nil {
		rules = models.DefaultRules()
	}
	if resolver == nil {
		resolver = parser.NewTimestampResolver(true, nil)
	}
	return &Service{
		store:    store,
		cache:    tc,
		rules:    rules,
		matcher:  parser.NewIntakeMatcher(rules.IntakeKeywords),
		resolver: resolver,
		key:      "sheet:" + store.Name(),
		ttl:      tc.TTL(),
	}
}

// Rules returns the rules the service classifies with.
func (s *Service) Rules() *models.Rules {
	return s.rules
}

// Table returns the current sheet snapshot through the cache.
func (s *Service) Table(ctx context.Context) (*models.Table, error) {
	table, err := s.cache.GetOrFetch(ctx, s.key, s.ttl, s.store.FetchAll)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSheetUnavailable, err)
	}
	return table, nil
}

// Render runs one render pass: load, classify, resolve, build.
// Degraded states are reported through View.Notice, not as errors.
func (s *Service) Render(ctx context.Context, sel Selection) (*models.View, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	timeCol := s.rules.TimeColumn
	classified := s.matcher.Classify(table)
	candidates := parser.Candidates(classified, timeCol)
	defaults := parser.DefaultSelection(classified, timeCol, s.rules.FallbackSeries)

	view := &models.View{
		Columns:    table.Columns,
		Rows:       table.Rows(),
		Classified: classified,
		TimeColumn: timeCol,
		Candidates: nonNil(candidates),
		Defaults:   nonNil(defaults),
		Selected:   nonNil(choose(sel, candidates, defaults)),
		Points:     []models.SeriesPoint{},
		Slices:     []models.TimeSlice{},
	}

	if !table.HasColumn(timeCol) {
		view.Notice = &models.Notice{
			Level:   models.NoticeWarning,
			Message: fmt.Sprintf("Time column %q not found; showing the table only.", timeCol),
		}
		return view, nil
	}

	if table.Len() == 0 {
		view.Notice = &models.Notice{Level: models.NoticeInfo, Message: "The sheet has no rows yet."}
		return view, nil
	}

	resolved := s.resolver.ResolveAll(table.Column(timeCol))
	for _, r := range resolved {
		if !r.OK {
			view.Unresolved++
		}
	}
	if view.Unresolved == len(resolved) {
		view.Notice = &models.Notice{
			Level:   models.NoticeWarning,
			Message: fmt.Sprintf("No value in %q could be read as a time.", timeCol),
		}
		return view, nil
	}

	if len(view.Selected) == 0 {
		view.Notice = &models.Notice{Level: models.NoticeInfo, Message: "Pick one or more columns to plot."}
		return view, nil
	}

	points := parser.BuildSeries(table, resolved, view.Selected)
	if len(points) == 0 {
		view.Notice = &models.Notice{Level: models.NoticeInfo, Message: "Nothing to plot for the selected columns."}
		return view, nil
	}

	view.Points = points
	view.Slices = parser.GroupByTime(points)
	return view, nil
}

// FormFields lists the inputs of the append form in column order.
// A sheet without a header uses the default column set.
func (s *Service) FormFields(ctx context.Context) ([]models.FormField, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	columns := table.Columns
	if len(columns) == 0 {
		columns = s.rules.DefaultColumns
	}

	fields := make([]models.FormField, len(columns))
	for i, col := range columns {
		fields[i] = models.FormField{Column: col, Numeric: s.numeric(col)}
	}
	return fields, nil
}

// Append writes one row aligned to the current column order and invalidates
// the cached snapshot. Intake fields are stored as numbers; an empty intake
// field is 0. It returns the row as written.
func (s *Service) Append(ctx context.Context, values map[string]string) ([]any, error) {
	table, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	columns := table.Columns
	writeHeader := len(columns) == 0
	if writeHeader {
		columns = s.rules.DefaultColumns
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: the sheet has no columns", ErrInvalidValue)
	}

	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[col] = struct{}{}
	}
	for col := range values {
		if _, ok := known[col]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidValue, col)
		}
	}

	row := make([]any, len(columns))
	for i, col := range columns {
		raw := strings.TrimSpace(values[col])
		if !s.numeric(col) {
			row[i] = raw
			continue
		}
		v, err := parseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %q is not a number", ErrInvalidValue, col, raw)
		}
		row[i] = v
	}

	if writeHeader {
		header := make([]any, len(columns))
		for i, col := range columns {
			header[i] = col
		}
		if err := s.store.AppendRow(ctx, header); err != nil {
			return nil, fmt.Errorf("%w: writing header: %w", ErrSheetUnavailable, err)
		}
	}

	if err := s.store.AppendRow(ctx, row); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSheetUnavailable, err)
	}
	s.cache.Invalidate(s.key)
	fmt.Printf("[Dashboard] Appended row to %s\n", s.store.Name())
	return row, nil
}

// Refresh drops the cached snapshot so the next read goes to the store.
func (s *Service) Refresh() {
	s.cache.Invalidate(s.key)
	fmt.Printf("[Dashboard] Refreshed %s\n", s.store.Name())
}

func (s *Service) numeric(col string) bool {
	return col != s.rules.TimeColumn && s.matcher.Match(col)
}

func choose(sel Selection, candidates, defaults []string) []string {
	if !sel.Picked && len(sel.Series) == 0 {
		return defaults
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c] = struct{}{}
	}
	var out []string
	for _, name := range sel.Series {
		if _, ok := allowed[name]; ok {
			out = append(out, name)
			delete(allowed, name)
		}
	}
	return out
}

// parseAmount reads an intake field. Thousands separators are dropped the
// same way the normalizer drops them on read.
func parseAmount(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
