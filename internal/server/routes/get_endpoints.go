package routes

import (
	"net/http"

	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/internal/util"
	"github.com/aquarisk/cras/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetEndpointsHandler lists facilities, optionally filtered by category and
// bounding box.
func GetEndpointsHandler(c echo.Context) error {
	bounds, err := util.ParseBounds(c.QueryParam("bounds"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}
	category := c.QueryParam("endpoint_type")

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	facilities, err := app.Store.FacilitiesInBounds(ctx, category, bounds)
	if err != nil {
		logger.Error("[Endpoints] Listing failed", "endpoint_type", category, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, facilities)
}

// GetEndpointTypesHandler lists the facility categories present in the store.
func GetEndpointTypesHandler(c echo.Context) error {
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	categories, err := app.Store.FacilityCategories(ctx)
	if err != nil {
		logger.Error("[Endpoints] Category listing failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, categories)
}
