package routes

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/pkg/leaselock"
	"github.com/aquarisk/cras/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RefreshNetworkHandler rebuilds the flow graph snapshot from the store.
// A lease lock keeps replicas from rebuilding concurrently; in-flight
// analyses keep the snapshot they started with.
func RefreshNetworkHandler(c echo.Context) error {
	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	type refreshResponse struct {
		Message    string `json:"message"`
		Vertices   int    `json:"vertices"`
		Edges      int    `json:"edges"`
		Outlets    int    `json:"outlets"`
		Facilities int    `json:"facilities"`
	}

	var resp refreshResponse
	err := app.Locks.WithLease(ctx, "network_refresh", 2*time.Minute, func(ctx context.Context) error {
		snap, err := app.Snapshots.Refresh(ctx)
		if err != nil {
			return err
		}
		resp = refreshResponse{
			Message:    "Network snapshot refreshed",
			Vertices:   snap.Graph.VertexCount(),
			Edges:      snap.Graph.EdgeCount(),
			Outlets:    len(snap.Outlets),
			Facilities: len(snap.Facilities),
		}
		return nil
	})
	if errors.Is(err, leaselock.ErrBusy) {
		return c.JSON(http.StatusConflict, map[string]string{"message": "A refresh is already running"})
	}
	if err != nil {
		logger.Error("[Hydrology] Snapshot refresh failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	logger.Info("[Hydrology] Snapshot refreshed",
		"vertices", resp.Vertices,
		"edges", resp.Edges,
		"facilities", resp.Facilities,
	)

	return c.JSON(http.StatusOK, resp)
}
