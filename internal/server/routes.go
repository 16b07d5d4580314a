package server

import (
	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api/v1", middleware.AuthMiddleware)

	// Contamination analysis routes
	apiRoutes.POST("/contamination/analyze", routes.AnalyzeContaminationHandler, middleware.RequirePermission("analysis.run"))
	apiRoutes.GET("/contamination/history", routes.GetHistoryHandler, middleware.RequirePermission("analysis.history"))
	apiRoutes.GET("/contamination/history/:event_id", routes.GetHistoryDetailHandler, middleware.RequirePermission("analysis.history"))

	// Hydrology network routes
	apiRoutes.GET("/hydrology/network", routes.GetNetworkHandler)
	apiRoutes.POST("/hydrology/snap-to-network", routes.SnapToNetworkHandler)
	apiRoutes.POST("/hydrology/refresh", routes.RefreshNetworkHandler, middleware.RequirePermission("network.refresh"))

	// Facility routes
	apiRoutes.GET("/endpoints", routes.GetEndpointsHandler)
	apiRoutes.GET("/endpoints/types", routes.GetEndpointTypesHandler)
}
