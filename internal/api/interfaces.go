// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/models"
)

// DashboardService is the render/append surface the handlers depend on.
// *dashboard.Service implements it.
type DashboardService interface {
	Table(ctx context.Context) (*models.Table, error)
	Render(ctx context.Context, sel dashboard.Selection) (*models.View, error)
	FormFields(ctx context.Context) ([]models.FormField, error)
	Append(ctx context.Context, values map[string]string) ([]any, error)
	Refresh()
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SheetHandler handles the JSON API over the sheet
type SheetHandler interface {
	HandleGetRecords(c echo.Context) error
	HandleGetColumns(c echo.Context) error
	HandleGetSeries(c echo.Context) error
	HandleGetSeriesMsgpack(c echo.Context) error
	HandleAppendRow(c echo.Context) error
	HandleRefresh(c echo.Context) error
}

// PageHandler handles the server-rendered dashboard page
type PageHandler interface {
	HandleIndex(c echo.Context) error
	HandleFormAppend(c echo.Context) error
	HandleFormRefresh(c echo.Context) error
	HandleChart(c echo.Context) error
}
