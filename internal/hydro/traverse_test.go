package hydro

import (
	"context"
	"math"
	"reflect"
	"testing"
)

// chainGraph builds 1 -> 2 -> 3 -> 4, each edge 1km, strictly decreasing
// elevation.
func chainGraph() *FlowGraph {
	return NewFlowGraph(
		[]Vertex{
			{ID: 1, ElevationM: elev(100)},
			{ID: 2, ElevationM: elev(90)},
			{ID: 3, ElevationM: elev(80)},
			{ID: 4, ElevationM: elev(70)},
		},
		[]Edge{
			{ID: 10, SourceID: 1, TargetID: 2, LengthKm: 1},
			{ID: 11, SourceID: 2, TargetID: 3, LengthKm: 1},
			{ID: 12, SourceID: 3, TargetID: 4, LengthKm: 1},
		},
		DefaultGradientLimits(),
	)
}

func TestDownstreamChain(t *testing.T) {
	t.Parallel()

	g := chainGraph()

	got, err := g.Downstream(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}

	want := map[int64]float64{2: 1, 3: 2, 4: 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Downstream() = %v, want %v", got, want)
	}
}

func TestDownstreamExcludesSource(t *testing.T) {
	t.Parallel()

	g := chainGraph()

	got, err := g.Downstream(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}
	if _, ok := got[1]; ok {
		t.Fatal("Downstream() contains the source vertex")
	}
}

func TestDownstreamNeverClimbsUphill(t *testing.T) {
	t.Parallel()

	// 2 sits above the source, 3 below it.
	g := NewFlowGraph(
		[]Vertex{
			{ID: 1, ElevationM: elev(100)},
			{ID: 2, ElevationM: elev(110)},
			{ID: 3, ElevationM: elev(90)},
		},
		[]Edge{
			{ID: 10, SourceID: 1, TargetID: 2, LengthKm: 1},
			{ID: 11, SourceID: 1, TargetID: 3, LengthKm: 1},
		},
		DefaultGradientLimits(),
	)

	got, err := g.Downstream(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}

	if _, ok := got[2]; ok {
		t.Fatal("Downstream() reached an uphill vertex")
	}
	if _, ok := got[3]; !ok {
		t.Fatal("Downstream() missed the downhill vertex")
	}
}

func TestDownstreamRadiusBoundary(t *testing.T) {
	t.Parallel()

	g := chainGraph()

	tests := []struct {
		name     string
		radiusKm float64
		want     map[int64]float64
	}{
		{
			name:     "radius cuts after first hop",
			radiusKm: 1.5,
			want:     map[int64]float64{2: 1},
		},
		{
			name:     "vertex exactly at radius included",
			radiusKm: 2,
			want:     map[int64]float64{2: 1, 3: 2},
		},
		{
			name:     "radius below first hop reaches nothing",
			radiusKm: 0.5,
			want:     map[int64]float64{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.Downstream(context.Background(), 1, tc.radiusKm)
			if err != nil {
				t.Fatalf("Downstream() error = %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Downstream() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDownstreamShortestPathWins(t *testing.T) {
	t.Parallel()

	// Two downhill routes from 1 to 4: direct (2.5km) and via 2 and 3 (3km).
	g := NewFlowGraph(
		[]Vertex{
			{ID: 1, ElevationM: elev(100)},
			{ID: 2, ElevationM: elev(90)},
			{ID: 3, ElevationM: elev(80)},
			{ID: 4, ElevationM: elev(70)},
		},
		[]Edge{
			{ID: 10, SourceID: 1, TargetID: 2, LengthKm: 1},
			{ID: 11, SourceID: 2, TargetID: 3, LengthKm: 1},
			{ID: 12, SourceID: 3, TargetID: 4, LengthKm: 1},
			{ID: 13, SourceID: 1, TargetID: 4, LengthKm: 2.5},
		},
		DefaultGradientLimits(),
	)

	got, err := g.Downstream(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}
	if math.Abs(got[4]-2.5) > 1e-9 {
		t.Fatalf("Downstream()[4] = %v, want 2.5", got[4])
	}
}

func TestDownstreamDeterministic(t *testing.T) {
	t.Parallel()

	// A fan-out graph with equal-length alternatives; repeated runs must agree
	// exactly.
	vertices := []Vertex{{ID: 1, ElevationM: elev(1000)}}
	var edges []Edge
	for i := int64(2); i <= 40; i++ {
		vertices = append(vertices, Vertex{ID: i, ElevationM: elev(1000 - float64(i))})
		edges = append(edges, Edge{ID: 100 + i, SourceID: 1, TargetID: i, LengthKm: 1})
		if i > 2 {
			edges = append(edges, Edge{ID: 200 + i, SourceID: i - 1, TargetID: i, LengthKm: 1})
		}
	}
	g := NewFlowGraph(vertices, edges, DefaultGradientLimits())

	first, err := g.Downstream(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := g.Downstream(context.Background(), 1, 100)
		if err != nil {
			t.Fatalf("Downstream() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, again, first)
		}
	}
}

func TestDownstreamUnknownSource(t *testing.T) {
	t.Parallel()

	g := chainGraph()

	if _, err := g.Downstream(context.Background(), 999, 10); err == nil {
		t.Fatal("Downstream() with unknown source did not fail")
	}
}

func TestDownstreamCancellation(t *testing.T) {
	t.Parallel()

	// A long chain so the traversal crosses the context check interval.
	n := int64(ctxCheckInterval * 4)
	vertices := make([]Vertex, 0, n)
	edges := make([]Edge, 0, n)
	for i := int64(1); i <= n; i++ {
		vertices = append(vertices, Vertex{ID: i, ElevationM: elev(float64(2 * n - i))})
		if i > 1 {
			edges = append(edges, Edge{ID: 1000 + i, SourceID: i - 1, TargetID: i, LengthKm: 0.001})
		}
	}
	g := NewFlowGraph(vertices, edges, DefaultGradientLimits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Downstream(ctx, 1, 1000); err == nil {
		t.Fatal("Downstream() with cancelled context did not fail")
	}
}
