// routes.go - Route registration helpers
// This file provides a clean way to register all routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/intake-tracker/backend/internal/chart"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Service      DashboardService
	Notifier     *Notifier
	ChartOptions chart.Options
	SheetName    string
	Title        string
	Version      string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Sheet    SheetHandler
	Page     PageHandler
	Notifier *Notifier
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	title := deps.Title
	if title == "" {
		title = "Intake Dashboard"
	}
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.SheetName),
		Sheet:    NewHandler(deps.Service, deps.Notifier),
		Page:     NewPageHandler(deps.Service, deps.Notifier, deps.ChartOptions, title, deps.Version),
		Notifier: deps.Notifier,
	}
}

// RegisterRoutes registers the page and API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Dashboard page
	e.GET("/", handlers.Page.HandleIndex)
	e.POST("/rows", handlers.Page.HandleFormAppend)
	e.POST("/refresh", handlers.Page.HandleFormRefresh)
	e.GET("/chart.png", handlers.Page.HandleChart)
	e.GET("/chart.svg", handlers.Page.HandleChart)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/records", handlers.Sheet.HandleGetRecords)
	apiGroup.GET("/columns", handlers.Sheet.HandleGetColumns)
	apiGroup.GET("/series", handlers.Sheet.HandleGetSeries)
	apiGroup.GET("/series/msgpack", handlers.Sheet.HandleGetSeriesMsgpack)
	apiGroup.POST("/rows", handlers.Sheet.HandleAppendRow)
	apiGroup.POST("/refresh", handlers.Sheet.HandleRefresh)

	if handlers.Notifier != nil {
		apiGroup.GET("/ws", handlers.Notifier.HandleWebSocket)
	}
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
