package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aquarisk/cras/backend/internal/hydro"
	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SnapToNetworkHandler maps an arbitrary point onto the nearest network
// segment. Thin pass-through over the analysis engine's snap resolver.
func SnapToNetworkHandler(c echo.Context) error {
	type snapBody struct {
		Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
		Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
	}

	type snapResponse struct {
		EdgeID           int64            `json:"edge_id"`
		SnappedLon       float64          `json:"snapped_lon"`
		SnappedLat       float64          `json:"snapped_lat"`
		DistanceM        float64          `json:"distance_m"`
		LineGeometry     json.RawMessage  `json:"line_geometry"`
		FlowSourceVertex int64            `json:"flow_source_vertex"`
		FlowPolicy       hydro.FlowPolicy `json:"flow_policy"`
	}

	data := new(snapBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.Analyzer.Snap(ctx, data.Lon, data.Lat)
	if err != nil {
		if errors.Is(err, hydro.ErrNoNetworkNearby) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": err.Error()})
		}
		logger.Error("[Hydrology] Snap failed", "lat", data.Lat, "lon", data.Lon, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, snapResponse{
		EdgeID:           result.Edge.EdgeID,
		SnappedLon:       result.Edge.SnapLon,
		SnappedLat:       result.Edge.SnapLat,
		DistanceM:        result.Edge.DistanceM,
		LineGeometry:     result.Edge.Geometry,
		FlowSourceVertex: result.FlowSourceID,
		FlowPolicy:       result.Policy,
	})
}
