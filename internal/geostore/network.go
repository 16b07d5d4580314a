package geostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aquarisk/cras/backend/internal/hydro"
	"github.com/aquarisk/cras/backend/internal/util"

	"github.com/jackc/pgx/v5"
)

// ListVertices loads every network vertex with its position and elevation.
func (s *Store) ListVertices(ctx context.Context) ([]hydro.Vertex, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, ST_X(geom), ST_Y(geom), elevation_m
		FROM hydro_vertices
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list vertices: %w", err)
	}
	defer rows.Close()

	var vertices []hydro.Vertex
	for rows.Next() {
		var v hydro.Vertex
		if err := rows.Scan(&v.ID, &v.Lon, &v.Lat, &v.ElevationM); err != nil {
			return nil, fmt.Errorf("scan vertex: %w", err)
		}
		vertices = append(vertices, v)
	}
	return vertices, rows.Err()
}

// ListEdges loads every network edge with its length converted to kilometers.
func (s *Store) ListEdges(ctx context.Context) ([]hydro.Edge, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, source_id, target_id, length_m / 1000.0
		FROM hydro_edges
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []hydro.Edge
	for rows.Next() {
		var e hydro.Edge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.LengthKm); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// NearestEdge finds the edge closest to the given point via the KNN operator,
// together with the closest point on it, the snap distance and both vertex
// elevations. Ties are broken by lowest edge id so the result is
// deterministic. Returns (nil, nil) when the network is empty.
func (s *Store) NearestEdge(ctx context.Context, lon, lat float64) (*hydro.EdgeSnap, error) {
	snap := &hydro.EdgeSnap{}
	err := s.conn.QueryRow(ctx, `
		SELECT e.id, e.source_id, e.target_id, e.length_m / 1000.0,
		       sv.elevation_m, tv.elevation_m,
		       ST_X(ST_ClosestPoint(e.geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))),
		       ST_Y(ST_ClosestPoint(e.geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))),
		       ST_Distance(e.geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography),
		       ST_AsGeoJSON(e.geom)
		FROM hydro_edges e
		JOIN hydro_vertices sv ON sv.id = e.source_id
		JOIN hydro_vertices tv ON tv.id = e.target_id
		ORDER BY e.geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326), e.id
		LIMIT 1
	`, lon, lat).Scan(
		&snap.EdgeID, &snap.SourceID, &snap.TargetID, &snap.LengthKm,
		&snap.SourceElevationM, &snap.TargetElevationM,
		&snap.SnapLon, &snap.SnapLat, &snap.DistanceM, &snap.Geometry,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("nearest edge: %w", err)
	}
	return snap, nil
}

// NetworkSegment is one edge of the network as served to map clients.
type NetworkSegment struct {
	ID       int64           `json:"id"`
	SourceID int64           `json:"source"`
	TargetID int64           `json:"target"`
	LengthM  float64         `json:"length_m"`
	Geometry json.RawMessage `json:"geometry"`
}

// maxNetworkSegments caps unbounded network listings.
const maxNetworkSegments = 10000

// NetworkInBounds lists network segments intersecting the bounding box, or a
// capped listing of the whole network when bounds is nil.
func (s *Store) NetworkInBounds(ctx context.Context, bounds *util.Bounds) ([]NetworkSegment, error) {
	var rows pgx.Rows
	var err error

	if bounds != nil {
		rows, err = s.conn.Query(ctx, `
			SELECT id, source_id, target_id, length_m, ST_AsGeoJSON(geom)
			FROM hydro_edges
			WHERE ST_Intersects(geom, ST_MakeEnvelope($1, $2, $3, $4, 4326))
			ORDER BY id
		`, bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat)
	} else {
		rows, err = s.conn.Query(ctx, `
			SELECT id, source_id, target_id, length_m, ST_AsGeoJSON(geom)
			FROM hydro_edges
			ORDER BY id
			LIMIT $1
		`, maxNetworkSegments)
	}
	if err != nil {
		return nil, fmt.Errorf("list network: %w", err)
	}
	defer rows.Close()

	segments := make([]NetworkSegment, 0)
	for rows.Next() {
		var seg NetworkSegment
		if err := rows.Scan(&seg.ID, &seg.SourceID, &seg.TargetID, &seg.LengthM, &seg.Geometry); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}
