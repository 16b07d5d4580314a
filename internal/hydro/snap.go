package hydro

import (
	"context"
	"encoding/json"
	"fmt"
)

// EdgeSnap is the spatial store's answer to a nearest-edge query: the edge,
// the closest point on it, the perpendicular snap distance and the edge's two
// vertices with their elevations.
type EdgeSnap struct {
	EdgeID           int64
	SourceID         int64
	TargetID         int64
	SourceElevationM *float64
	TargetElevationM *float64
	LengthKm         float64
	SnapLon          float64
	SnapLat          float64
	DistanceM        float64
	Geometry         json.RawMessage
}

// SpatialStore is the nearest-neighbor capability over edge geometries,
// supplied by the external geospatial store. Implementations must return a
// deterministic result for a given input point (ties broken by lowest edge
// id) and (nil, nil) when the network is empty.
type SpatialStore interface {
	NearestEdge(ctx context.Context, lon, lat float64) (*EdgeSnap, error)
}

// SnapResult is a resolved contamination source: the snapped edge plus the
// flow-source vertex traversal starts from.
type SnapResult struct {
	Edge         *EdgeSnap
	FlowSourceID int64
	Policy       FlowPolicy
}

// ResolveSnap maps an arbitrary point onto the network. It fails with
// ErrNoNetworkNearby when the network is empty or the nearest edge exceeds
// cutoffM, which prevents snapping across unrelated basins.
func ResolveSnap(ctx context.Context, store SpatialStore, lon, lat, cutoffM float64) (*SnapResult, error) {
	snap, err := store.NearestEdge(ctx, lon, lat)
	if err != nil {
		return nil, fmt.Errorf("nearest-edge query: %w", err)
	}
	if snap == nil {
		return nil, ErrNoNetworkNearby
	}
	if cutoffM > 0 && snap.DistanceM > cutoffM {
		return nil, fmt.Errorf("%w: nearest edge %d is %.0fm away (cutoff %.0fm)",
			ErrNoNetworkNearby, snap.EdgeID, snap.DistanceM, cutoffM)
	}

	sourceID, policy := FlowSource(snap.SourceID, snap.SourceElevationM, snap.TargetID, snap.TargetElevationM)
	return &SnapResult{
		Edge:         snap,
		FlowSourceID: sourceID,
		Policy:       policy,
	}, nil
}
