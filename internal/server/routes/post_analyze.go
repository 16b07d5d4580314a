package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aquarisk/cras/backend/internal/hydro"
	"github.com/aquarisk/cras/backend/internal/queue"
	"github.com/aquarisk/cras/backend/internal/server/middleware"
	"github.com/aquarisk/cras/backend/internal/util"
	"github.com/aquarisk/cras/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalyzeContaminationHandler runs one downstream contamination analysis and
// hands the result to the history pipeline.
func AnalyzeContaminationHandler(c echo.Context) error {
	type analyzeBody struct {
		Lat               float64  `json:"lat" validate:"gte=-90,lte=90"`
		Lon               float64  `json:"lon" validate:"gte=-180,lte=180"`
		DispersionRate    float64  `json:"dispersion_rate" validate:"required"`
		AnalysisRadius    float64  `json:"analysis_radius"`
		HighThreshold     float64  `json:"high_threshold"`
		ModerateThreshold float64  `json:"moderate_threshold"`
		LowThreshold      float64  `json:"low_threshold"`
		ContaminantType   string   `json:"contaminant_type"`
		Severity          string   `json:"severity"`
		Description       string   `json:"description"`
		Categories        []string `json:"categories"`
	}

	type errorResponse struct {
		Message string `json:"message"`
	}

	data := new(analyzeBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request body"})
	}

	// Defaults mirror the browser client's form defaults.
	if data.AnalysisRadius == 0 {
		data.AnalysisRadius = 10
	}
	if data.HighThreshold == 0 && data.ModerateThreshold == 0 && data.LowThreshold == 0 {
		data.HighThreshold, data.ModerateThreshold, data.LowThreshold = 10, 5, 1
	}
	if data.ContaminantType == "" {
		data.ContaminantType = "chemical"
	}

	// Free-text fields end up in jsonb columns.
	data.ContaminantType = util.SanitizePostgresText(data.ContaminantType)
	data.Severity = util.SanitizePostgresText(data.Severity)
	data.Description = util.SanitizePostgresText(data.Description)

	req := hydro.AnalysisRequest{
		Lat:               data.Lat,
		Lon:               data.Lon,
		DispersionRate:    data.DispersionRate,
		RadiusKm:          data.AnalysisRadius,
		HighThreshold:     data.HighThreshold,
		ModerateThreshold: data.ModerateThreshold,
		LowThreshold:      data.LowThreshold,
		Contaminant:       data.ContaminantType,
		Severity:          data.Severity,
		Description:       data.Description,
		Categories:        data.Categories,
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	result, err := app.Analyzer.Analyze(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, hydro.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, errorResponse{Message: err.Error()})
		case errors.Is(err, hydro.ErrNoNetworkNearby):
			return c.JSON(http.StatusNotFound, errorResponse{Message: err.Error()})
		case errors.Is(err, hydro.ErrAnalysisTimeout):
			return c.JSON(http.StatusGatewayTimeout, errorResponse{Message: err.Error()})
		case errors.Is(err, hydro.ErrSnapshotNotReady):
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Message: err.Error()})
		default:
			logger.Error("[Analysis] Unexpected failure",
				"lat", req.Lat, "lon", req.Lon,
				"radius_km", req.RadiusKm, "dispersion_rate", req.DispersionRate,
				"err", err,
			)
			return c.JSON(http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
		}
	}

	// Fire-and-forget history hand-off: a failed publish never fails the
	// analysis response, but is surfaced as a warning.
	event := hydro.NewHistoryEvent(req, result)
	payload, err := json.Marshal(event)
	if err == nil {
		err = queue.Publish(app.Queue, queue.HistoryQueue, payload)
	}
	if err != nil {
		logger.Error("[Analysis] History publish failed", "event_id", result.EventID, "err", err)
		result.Warnings = append(result.Warnings, "history persistence failed, analysis result was not archived")
	}

	return c.JSON(http.StatusOK, result)
}
