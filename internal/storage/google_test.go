package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func newTestGoogleStore(t *testing.T, handler http.HandlerFunc) *GoogleSheetStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return newGoogleSheetStore(svc, Options{SheetID: "sheet-123", Worksheet: "Log", RequestsPerMinute: 6000})
}

func TestGoogleSheetStore_FetchAll(t *testing.T) {
	var gotPath string
	store := newTestGoogleStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"range": "'Log'!A1:C3",
			"majorDimension": "ROWS",
			"values": [
				[" Time start ", "Bottle (ml)", "Notes"],
				["0900", "120"],
				["09:15 AM", "80", "burped"]
			]
		}`)
	})

	table, err := store.FetchAll(context.Background())
	require.NoError(t, err)

	assert.Contains(t, gotPath, "/v4/spreadsheets/sheet-123/values/")
	assert.Equal(t, []string{"Time start", "Bottle (ml)", "Notes"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "120", table.Records[0]["Bottle (ml)"])
	assert.Equal(t, "", table.Records[0]["Notes"])
	assert.Equal(t, "burped", table.Records[1]["Notes"])
}

func TestGoogleSheetStore_AppendRow(t *testing.T) {
	var body struct {
		Values [][]any `json:"values"`
	}
	var query string
	store := newTestGoogleStore(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"spreadsheetId": "sheet-123"}`)
	})

	err := store.AppendRow(context.Background(), []any{"0900", 120.0, 0.0, "note"})
	require.NoError(t, err)

	assert.Contains(t, query, "valueInputOption=RAW")
	assert.Contains(t, query, "insertDataOption=INSERT_ROWS")
	require.Len(t, body.Values, 1)
	assert.Equal(t, []any{"0900", 120.0, 0.0, "note"}, body.Values[0])
}

func TestGoogleSheetStore_FetchError(t *testing.T) {
	store := newTestGoogleStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "denied"}}`, http.StatusForbidden)
	})

	_, err := store.FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google:sheet-123/Log")
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'Sheet1'", sheetRange("Sheet1"))
	assert.Equal(t, "'Baby''s log'", sheetRange("Baby's log"))
}
