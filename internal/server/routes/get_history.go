package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/internal/storage"
	"github.com/aquarisk/cras/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// GetHistoryHandler lists recent analysis events, newest first.
func GetHistoryHandler(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "limit must be a positive integer"})
		}
		limit = min(parsed, maxHistoryLimit)
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	events, err := app.Store.ListEvents(ctx, limit)
	if err != nil {
		logger.Error("[History] List failed", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}

	return c.JSON(http.StatusOK, events)
}

// GetHistoryDetailHandler returns one analysis event, including the archived
// full report when it can be fetched.
func GetHistoryDetailHandler(c echo.Context) error {
	eventID := c.Param("event_id")
	if eventID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "event_id is required"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	detail, err := app.Store.GetEvent(ctx, eventID)
	if err != nil {
		logger.Error("[History] Get failed", "event_id", eventID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	if detail == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Analysis not found"})
	}

	type detailResponse struct {
		Event  any             `json:"event"`
		Report json.RawMessage `json:"report,omitempty"`
	}

	resp := detailResponse{Event: detail}
	if detail.ReportKey != nil && app.S3 != nil {
		report, err := storage.GetReport(ctx, app.S3, *detail.ReportKey)
		if err != nil {
			// The summary row is still useful without the archive.
			logger.Warn("[History] Report fetch failed", "event_id", eventID, "key", *detail.ReportKey, "err", err)
		} else {
			resp.Report = report
		}
	}

	return c.JSON(http.StatusOK, resp)
}
