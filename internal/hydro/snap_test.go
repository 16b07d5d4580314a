package hydro

import (
	"context"
	"errors"
	"testing"
)

type fakeSpatialStore struct {
	snap *EdgeSnap
	err  error
}

func (f *fakeSpatialStore) NearestEdge(ctx context.Context, lon, lat float64) (*EdgeSnap, error) {
	return f.snap, f.err
}

func TestResolveSnap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		store      *fakeSpatialStore
		cutoffM    float64
		wantErr    error
		wantSource int64
		wantPolicy FlowPolicy
	}{
		{
			name: "snap within cutoff",
			store: &fakeSpatialStore{snap: &EdgeSnap{
				EdgeID:           10,
				SourceID:         1,
				TargetID:         2,
				SourceElevationM: elev(100),
				TargetElevationM: elev(90),
				DistanceM:        120,
			}},
			cutoffM:    5000,
			wantSource: 1,
			wantPolicy: PolicyElevationGradient,
		},
		{
			name: "target is the higher vertex",
			store: &fakeSpatialStore{snap: &EdgeSnap{
				EdgeID:           10,
				SourceID:         1,
				TargetID:         2,
				SourceElevationM: elev(90),
				TargetElevationM: elev(100),
				DistanceM:        120,
			}},
			cutoffM:    5000,
			wantSource: 2,
			wantPolicy: PolicyElevationGradient,
		},
		{
			name: "flat terrain falls back to first vertex",
			store: &fakeSpatialStore{snap: &EdgeSnap{
				EdgeID:    10,
				SourceID:  1,
				TargetID:  2,
				DistanceM: 120,
			}},
			cutoffM:    5000,
			wantSource: 1,
			wantPolicy: PolicyFlatTerrainDefault,
		},
		{
			name:    "empty network",
			store:   &fakeSpatialStore{snap: nil},
			cutoffM: 5000,
			wantErr: ErrNoNetworkNearby,
		},
		{
			name: "nearest edge beyond cutoff",
			store: &fakeSpatialStore{snap: &EdgeSnap{
				EdgeID:    10,
				SourceID:  1,
				TargetID:  2,
				DistanceM: 5001,
			}},
			cutoffM: 5000,
			wantErr: ErrNoNetworkNearby,
		},
		{
			name: "zero cutoff disables the check",
			store: &fakeSpatialStore{snap: &EdgeSnap{
				EdgeID:    10,
				SourceID:  1,
				TargetID:  2,
				DistanceM: 99999,
			}},
			cutoffM:    0,
			wantSource: 1,
			wantPolicy: PolicyFlatTerrainDefault,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveSnap(context.Background(), tc.store, 8.2, 53.1, tc.cutoffM)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ResolveSnap() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveSnap() error = %v", err)
			}
			if got.FlowSourceID != tc.wantSource {
				t.Fatalf("FlowSourceID = %d, want %d", got.FlowSourceID, tc.wantSource)
			}
			if got.Policy != tc.wantPolicy {
				t.Fatalf("Policy = %s, want %s", got.Policy, tc.wantPolicy)
			}
		})
	}
}

func TestResolveSnapStoreError(t *testing.T) {
	t.Parallel()

	storeErr := errors.New("connection refused")
	_, err := ResolveSnap(context.Background(), &fakeSpatialStore{err: storeErr}, 8.2, 53.1, 5000)
	if !errors.Is(err, storeErr) {
		t.Fatalf("ResolveSnap() error = %v, want wrapped %v", err, storeErr)
	}
}
