package transport

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	querypilot "github.com/querypilot/querypilot"
)

// NewServer creates and configures the HTTP server with the standard
// middleware stack and the public routes registered.
func NewServer(pilot *querypilot.Pilot) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	NewHandler(pilot).RegisterRoutes(e)
	return e
}
