package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/intake-tracker/backend/internal/cache"
	"github.com/intake-tracker/backend/internal/chart"
	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/models"
	"github.com/intake-tracker/backend/internal/parser"
	"github.com/intake-tracker/backend/internal/testutil"
	"github.com/intake-tracker/backend/internal/web"
)

var fixedNow = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func newTestSheet() *testutil.MockSheet {
	return testutil.NewMockSheet(
		[]any{"Time start", "Bottle (ml)", "NG (ml)", "Notes"},
		[]any{"0900", "120", "0", ""},
		[]any{"09:15 AM", "80", "10", "sleepy"},
	)
}

func newTestServer(t *testing.T, sheet *testutil.MockSheet) (*echo.Echo, *Notifier) {
	t.Helper()

	resolver := &parser.TimestampResolver{
		DayFirst: true,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}
	svc := dashboard.NewService(sheet, cache.NewTableCache(time.Minute), models.DefaultRules(), resolver)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	SetupMiddleware(e)

	notifier := NewNotifier()
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Service:      svc,
		Notifier:     notifier,
		ChartOptions: chart.Options{Width: 480, Height: 240, Location: time.UTC},
		SheetName:    sheet.Name(),
		Version:      "test",
	}))
	return e, notifier
}

func do(e *echo.Echo, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	rec := do(e, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"version":"test"`)
}

func TestGetRecords(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	rec := do(e, http.MethodGet, "/api/records", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var table models.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Equal(t, []string{"Time start", "Bottle (ml)", "NG (ml)", "Notes"}, table.Columns)
	assert.Len(t, table.Records, 2)
}

func TestGetColumns(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	rec := do(e, http.MethodGet, "/api/columns", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ColumnsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Time start", resp.TimeColumn)
	assert.Equal(t, []string{"Bottle (ml)", "NG (ml)"}, resp.Defaults)
	assert.Equal(t, []string{"Bottle (ml)", "NG (ml)"}, resp.Candidates)
	require.Len(t, resp.Columns, 4)
	assert.Equal(t, models.ColumnClassOther, resp.Columns[3].Class)
}

func TestGetSeries(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	t.Run("default selection", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/series", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var view models.View
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Nil(t, view.Notice)
		assert.Len(t, view.Points, 4)
		assert.Len(t, view.Slices, 2)
	})

	t.Run("explicit selection", func(t *testing.T) {
		q := url.Values{"series": {"NG (ml)"}, "picked": {"1"}}
		rec := do(e, http.MethodGet, "/api/series?"+q.Encode(), nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var view models.View
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, []string{"NG (ml)"}, view.Selected)
		require.Len(t, view.Points, 2)
		assert.Equal(t, 10.0, view.Points[1].Value)
	})

	t.Run("explicit empty selection", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/series?picked=1", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var view models.View
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		require.NotNil(t, view.Notice)
		assert.Equal(t, models.NoticeInfo, view.Notice.Level)
		assert.Empty(t, view.Points)
	})
}

func TestGetSeriesMsgpack(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	rec := do(e, http.MethodGet, "/api/series/msgpack", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

	var view models.View
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Points, 4)
	assert.Equal(t, "Bottle (ml)", view.Points[0].Series)
	assert.True(t, view.Points[0].Time.Equal(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)))
}

func TestAppendRow(t *testing.T) {
	sheet := newTestSheet()
	e, _ := newTestServer(t, sheet)

	// Warm the cache so the append has to invalidate it.
	require.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/records", nil, "").Code)

	body := []byte(`{"values": {"Time start": "0900", "Bottle (ml)": "120", "NG (ml)": "0", "Notes": "note"}}`)
	rec := do(e, http.MethodPost, "/api/rows", body, echo.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"row": ["0900", 120, 0, "note"]}`, rec.Body.String())

	rec = do(e, http.MethodGet, "/api/records", nil, "")
	var table models.Table
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table.Records, 3)
	assert.Equal(t, "note", table.Records[2]["Notes"])
}

func TestAppendRow_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"values":`, "BAD_REQUEST"},
		{"missing values", `{}`, "VALIDATION_ERROR"},
		{"non-numeric intake", `{"values": {"Bottle (ml)": "lots"}}`, "VALIDATION_ERROR"},
		{"unknown column", `{"values": {"Weight": "3"}}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := newTestSheet()
			e, _ := newTestServer(t, sheet)

			rec := do(e, http.MethodPost, "/api/rows", []byte(tt.body), echo.MIMEApplicationJSON)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var apiErr APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, 0, sheet.Appends())
		})
	}
}

func TestSheetUnavailable(t *testing.T) {
	sheet := newTestSheet()
	sheet.FetchErr = errors.New("quota exceeded")
	e, _ := newTestServer(t, sheet)

	for _, target := range []string{"/api/records", "/api/series", "/api/columns"} {
		rec := do(e, http.MethodGet, target, nil, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "SHEET_UNAVAILABLE", target)
	}

	rec := do(e, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be reached")
}

func TestRefresh(t *testing.T) {
	sheet := newTestSheet()
	e, _ := newTestServer(t, sheet)

	do(e, http.MethodGet, "/api/records", nil, "")
	do(e, http.MethodGet, "/api/records", nil, "")
	assert.Equal(t, 1, sheet.Fetches())

	rec := do(e, http.MethodPost, "/api/refresh", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	do(e, http.MethodGet, "/api/records", nil, "")
	assert.Equal(t, 2, sheet.Fetches())
}

func TestIndexPage(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	rec := do(e, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "<td>sleepy</td>")
	assert.Contains(t, html, `src="/chart.svg?picked=1`)
	assert.Contains(t, html, `name="col:NG (ml)"`)
}

func TestFormAppend(t *testing.T) {
	sheet := newTestSheet()
	e, _ := newTestServer(t, sheet)

	form := url.Values{
		"col:Time start":  {"10:30"},
		"col:Bottle (ml)": {"90"},
		"col:Notes":       {"from form"},
	}
	rec := do(e, http.MethodPost, "/rows", []byte(form.Encode()), echo.MIMEApplicationForm)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	raw := sheet.RawRows()
	require.Len(t, raw, 4)
	assert.Equal(t, []any{"10:30", 90.0, 0.0, "from form"}, raw[3])

	t.Run("invalid value re-renders the page", func(t *testing.T) {
		form := url.Values{"col:Bottle (ml)": {"a lot"}}
		rec := do(e, http.MethodPost, "/rows", []byte(form.Encode()), echo.MIMEApplicationForm)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "is not a number")
		assert.Len(t, sheet.RawRows(), 4)
	})
}

func TestChart(t *testing.T) {
	e, _ := newTestServer(t, newTestSheet())

	rec := do(e, http.MethodGet, "/chart.png", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = do(e, http.MethodGet, "/chart.svg?series=NG+%28ml%29", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "<svg"))

	rec = do(e, http.MethodGet, "/chart.png?picked=1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
