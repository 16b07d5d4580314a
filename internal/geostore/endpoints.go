package geostore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquarisk/cras/backend/internal/hydro"
	"github.com/aquarisk/cras/backend/internal/util"
)

// ListOutlets loads every outlet with its position and elevation.
func (s *Store) ListOutlets(ctx context.Context) ([]hydro.Outlet, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT outlet_id, ST_X(geom), ST_Y(geom), elevation_m
		FROM outlets
		ORDER BY outlet_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list outlets: %w", err)
	}
	defer rows.Close()

	var outlets []hydro.Outlet
	for rows.Next() {
		var o hydro.Outlet
		if err := rows.Scan(&o.ID, &o.Lon, &o.Lat, &o.ElevationM); err != nil {
			return nil, fmt.Errorf("scan outlet: %w", err)
		}
		outlets = append(outlets, o)
	}
	return outlets, rows.Err()
}

// ListFacilities loads every facility with its outlet linkage and optional
// pipeline length, converted to kilometers.
func (s *Store) ListFacilities(ctx context.Context) ([]hydro.Facility, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT endpoint_id, name, endpoint_type, ST_X(geom), ST_Y(geom),
		       intake_id, pipeline_m / 1000.0
		FROM endpoints
		ORDER BY endpoint_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []hydro.Facility
	for rows.Next() {
		var f hydro.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Category, &f.Lon, &f.Lat, &f.OutletID, &f.PipelineKm); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// FacilityFeature is a facility as served to map clients.
type FacilityFeature struct {
	EndpointID   int64           `json:"endpoint_id"`
	EndpointType string          `json:"endpoint_type"`
	Name         *string         `json:"name,omitempty"`
	IntakeID     *string         `json:"intake_id,omitempty"`
	Geometry     json.RawMessage `json:"geometry"`
}

// FacilitiesInBounds lists facilities, optionally filtered by category and
// bounding box.
func (s *Store) FacilitiesInBounds(ctx context.Context, category string, bounds *util.Bounds) ([]FacilityFeature, error) {
	query := `
		SELECT endpoint_id, endpoint_type, name, intake_id, ST_AsGeoJSON(geom)
		FROM endpoints
		WHERE geom IS NOT NULL
	`
	args := make([]any, 0, 5)

	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND endpoint_type = $%d", len(args))
	}
	if bounds != nil {
		args = append(args, bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat)
		query += fmt.Sprintf(
			" AND ST_Intersects(geom, ST_MakeEnvelope($%d, $%d, $%d, $%d, 4326))",
			len(args)-3, len(args)-2, len(args)-1, len(args),
		)
	}
	query += " ORDER BY endpoint_type, endpoint_id"

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list facilities in bounds: %w", err)
	}
	defer rows.Close()

	features := make([]FacilityFeature, 0)
	for rows.Next() {
		var f FacilityFeature
		if err := rows.Scan(&f.EndpointID, &f.EndpointType, &f.Name, &f.IntakeID, &f.Geometry); err != nil {
			return nil, fmt.Errorf("scan facility feature: %w", err)
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// FacilityCategories lists the distinct facility categories present in the
// store.
func (s *Store) FacilityCategories(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT DISTINCT endpoint_type
		FROM endpoints
		ORDER BY endpoint_type
	`)
	if err != nil {
		return nil, fmt.Errorf("list facility categories: %w", err)
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
