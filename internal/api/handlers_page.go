// handlers_page.go - Server-rendered dashboard page
package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/intake-tracker/backend/internal/chart"
	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/models"
)

// formFieldPrefix namespaces append-form inputs so column names cannot
// collide with other form keys.
const formFieldPrefix = "col:"

// PageData is the model of the index template.
type PageData struct {
	Title     string
	View      *models.View
	Fields    []models.FormField
	FieldName string
	ChartURL  string
	Error     string
	Version   string
}

// PageHandlerImpl renders the dashboard page and chart images.
type PageHandlerImpl struct {
	svc       DashboardService
	notifier  *Notifier
	chartOpts chart.Options
	title     string
	version   string
}

// NewPageHandler creates a new page handler.
func NewPageHandler(svc DashboardService, notifier *Notifier, chartOpts chart.Options, title, version string) *PageHandlerImpl {
	return &PageHandlerImpl{
		svc:       svc,
		notifier:  notifier,
		chartOpts: chartOpts,
		title:     title,
		version:   version,
	}
}

// HandleIndex renders the table, selector, chart, notices and append form.
func (h *PageHandlerImpl) HandleIndex(c echo.Context) error {
	return h.renderPage(c, http.StatusOK, selectionFromQuery(c), "")
}

// HandleFormAppend appends a row from the page form and redirects back.
func (h *PageHandlerImpl) HandleFormAppend(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return NewBadRequestError("invalid form", err)
	}

	values := make(map[string]string)
	for key, vals := range form {
		if col, ok := strings.CutPrefix(key, formFieldPrefix); ok && len(vals) > 0 {
			values[col] = vals[0]
		}
	}

	if _, err := h.svc.Append(c.Request().Context(), values); err != nil {
		apiErr := FromServiceError(err)
		return h.renderPage(c, apiErr.Status, dashboard.Selection{}, apiErr.Message)
	}
	h.notifier.Broadcast(MsgTypeSheetUpdated)
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleFormRefresh invalidates the cache and redirects back.
func (h *PageHandlerImpl) HandleFormRefresh(c echo.Context) error {
	h.svc.Refresh()
	h.notifier.Broadcast(MsgTypeSheetUpdated)
	return c.Redirect(http.StatusSeeOther, "/")
}

// HandleChart renders the chart image in the format named by the path
// extension. A view without points yields 204.
func (h *PageHandlerImpl) HandleChart(c echo.Context) error {
	ext := path.Ext(c.Request().URL.Path)
	format, err := chart.ParseFormat(ext)
	if err != nil || ext == "" {
		return NewNotFoundError("chart format", ext)
	}

	view, err := h.svc.Render(c.Request().Context(), selectionFromQuery(c))
	if err != nil {
		return FromServiceError(err)
	}
	if !view.HasChart() {
		return c.NoContent(http.StatusNoContent)
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, view.Points, format, h.chartOpts); err != nil {
		if errors.Is(err, chart.ErrNoPoints) {
			return c.NoContent(http.StatusNoContent)
		}
		return NewInternalError("failed to render chart", err)
	}
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *PageHandlerImpl) renderPage(c echo.Context, status int, sel dashboard.Selection, message string) error {
	ctx := c.Request().Context()
	data := PageData{
		Title:     h.title,
		FieldName: formFieldPrefix,
		Error:     message,
		Version:   h.version,
	}

	view, err := h.svc.Render(ctx, sel)
	if err != nil {
		apiErr := FromServiceError(err)
		data.Error = apiErr.Message
		return c.Render(apiErr.Status, "index.html", data)
	}
	data.View = view
	data.ChartURL = "/chart.svg?" + chartQuery(view.Selected)

	fields, err := h.svc.FormFields(ctx)
	if err != nil {
		apiErr := FromServiceError(err)
		data.Error = apiErr.Message
		return c.Render(apiErr.Status, "index.html", data)
	}
	data.Fields = fields

	return c.Render(status, "index.html", data)
}

func chartQuery(selected []string) string {
	q := url.Values{}
	q.Set("picked", "1")
	for _, s := range selected {
		q.Add("series", s)
	}
	return q.Encode()
}
