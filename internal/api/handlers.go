package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/models"
)

// Handler serves the JSON API over the dashboard service.
type Handler struct {
	svc      DashboardService
	notifier *Notifier
}

// NewHandler creates a new API handler. notifier may be nil.
func NewHandler(svc DashboardService, notifier *Notifier) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

// ColumnsResponse describes how the current sheet was classified.
type ColumnsResponse struct {
	TimeColumn string                    `json:"timeColumn"`
	Columns    []models.ClassifiedColumn `json:"columns"`
	Candidates []string                  `json:"candidates"`
	Defaults   []string                  `json:"defaults"`
}

// AppendRequest is the body of POST /api/rows.
type AppendRequest struct {
	Values map[string]string `json:"values"`
}

// HandleGetRecords returns the raw table.
func (h *Handler) HandleGetRecords(c echo.Context) error {
	table, err := h.svc.Table(c.Request().Context())
	if err != nil {
		return FromServiceError(err)
	}
	return c.JSON(http.StatusOK, table)
}

// HandleGetColumns returns the classified columns and the default selection.
func (h *Handler) HandleGetColumns(c echo.Context) error {
	view, err := h.svc.Render(c.Request().Context(), dashboard.Selection{})
	if err != nil {
		return FromServiceError(err)
	}
	return c.JSON(http.StatusOK, ColumnsResponse{
		TimeColumn: view.TimeColumn,
		Columns:    view.Classified,
		Candidates: view.Candidates,
		Defaults:   view.Defaults,
	})
}

// HandleGetSeries returns the render pass for the requested selection.
func (h *Handler) HandleGetSeries(c echo.Context) error {
	view, err := h.svc.Render(c.Request().Context(), selectionFromQuery(c))
	if err != nil {
		return FromServiceError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// HandleGetSeriesMsgpack returns the same payload as HandleGetSeries in
// MessagePack format.
func (h *Handler) HandleGetSeriesMsgpack(c echo.Context) error {
	view, err := h.svc.Render(c.Request().Context(), selectionFromQuery(c))
	if err != nil {
		return FromServiceError(err)
	}

	data, err := msgpack.Marshal(view)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleAppendRow appends one row from a JSON body.
func (h *Handler) HandleAppendRow(c echo.Context) error {
	var req AppendRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Values == nil {
		return NewValidationError("values")
	}

	row, err := h.svc.Append(c.Request().Context(), req.Values)
	if err != nil {
		return FromServiceError(err)
	}
	h.notifier.Broadcast(MsgTypeSheetUpdated)

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"row": row,
	})
}

// HandleRefresh drops the cached snapshot.
func (h *Handler) HandleRefresh(c echo.Context) error {
	h.svc.Refresh()
	h.notifier.Broadcast(MsgTypeSheetUpdated)
	return c.JSON(http.StatusOK, map[string]string{"status": "refreshed"})
}

// selectionFromQuery reads repeated "series" parameters. picked=1 marks an
// explicit choice, which may be empty.
func selectionFromQuery(c echo.Context) dashboard.Selection {
	params := c.QueryParams()
	return dashboard.Selection{
		Series: params["series"],
		Picked: params.Get("picked") == "1",
	}
}
