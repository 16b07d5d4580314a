package hydro

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		lon1, lat1 float64
		lon2, lat2 float64
		wantKm     float64
		tolKm      float64
	}{
		{
			name:   "same point",
			lon1:   8.2, lat1: 53.1,
			lon2:   8.2, lat2: 53.1,
			wantKm: 0,
			tolKm:  1e-9,
		},
		{
			name:   "one degree longitude at equator",
			lon1:   0, lat1: 0,
			lon2:   1, lat2: 0,
			wantKm: 111.19,
			tolKm:  0.1,
		},
		{
			name:   "one degree latitude",
			lon1:   0, lat1: 0,
			lon2:   0, lat2: 1,
			wantKm: 111.19,
			tolKm:  0.1,
		},
		{
			name:   "oldenburg to bremen",
			lon1:   8.2146, lat1: 53.1435,
			lon2:   8.8017, lat2: 53.0793,
			wantKm: 39.8,
			tolKm:  0.5,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineKm(tc.lon1, tc.lat1, tc.lon2, tc.lat2)
			if math.Abs(got-tc.wantKm) > tc.tolKm {
				t.Fatalf("HaversineKm() = %v, want %v (tol %v)", got, tc.wantKm, tc.tolKm)
			}
		})
	}
}

func TestHaversineKmSymmetric(t *testing.T) {
	t.Parallel()

	a := HaversineKm(8.2, 53.1, 9.9, 52.4)
	b := HaversineKm(9.9, 52.4, 8.2, 53.1)
	if math.Abs(a-b) > 1e-12 {
		t.Fatalf("HaversineKm not symmetric: %v vs %v", a, b)
	}
}
