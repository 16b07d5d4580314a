package routes

import (
	"net/http"

	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/internal/util"
	"github.com/aquarisk/cras/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetNetworkHandler lists hydrology network segments, optionally restricted
// to a bounding box.
func GetNetworkHandler(c echo.Context) error {
	bounds, err := util.ParseBounds(c.QueryParam("bounds"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	segments, err := app.Store.NetworkInBounds(ctx, bounds)
	if err != nil {
		logger.Error("[Hydrology] Network listing failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, segments)
}
