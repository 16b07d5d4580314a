package hydro

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeSource struct {
	vertices   []Vertex
	edges      []Edge
	outlets    []Outlet
	facilities []Facility
	err        error
}

func (f *fakeSource) ListVertices(ctx context.Context) ([]Vertex, error) {
	return f.vertices, f.err
}

func (f *fakeSource) ListEdges(ctx context.Context) ([]Edge, error) {
	return f.edges, f.err
}

func (f *fakeSource) ListOutlets(ctx context.Context) ([]Outlet, error) {
	return f.outlets, f.err
}

func (f *fakeSource) ListFacilities(ctx context.Context) ([]Facility, error) {
	return f.facilities, f.err
}

func TestManagerCurrentBeforeRefresh(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSource{}, DefaultGradientLimits(), 0.25)
	if _, err := m.Current(); !errors.Is(err, ErrSnapshotNotReady) {
		t.Fatalf("Current() error = %v, want %v", err, ErrSnapshotNotReady)
	}
}

func TestManagerRefreshSwapsSnapshot(t *testing.T) {
	t.Parallel()

	source := &fakeSource{
		vertices: []Vertex{{ID: 1}, {ID: 2}},
		edges:    []Edge{{ID: 10, SourceID: 1, TargetID: 2, LengthKm: 1}},
	}
	m := NewManager(source, DefaultGradientLimits(), 0.25)

	first, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	cur, err := m.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur != first {
		t.Fatal("Current() did not return the refreshed snapshot")
	}

	source.vertices = append(source.vertices, Vertex{ID: 3})
	second, err := m.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second == first {
		t.Fatal("Refresh() did not build a new snapshot")
	}
	if second.Graph.VertexCount() != 3 {
		t.Fatalf("VertexCount() = %d, want 3", second.Graph.VertexCount())
	}

	// The first snapshot stays usable for readers that loaded it before the
	// swap.
	if first.Graph.VertexCount() != 2 {
		t.Fatalf("old snapshot VertexCount() = %d, want 2", first.Graph.VertexCount())
	}
}

func TestManagerRefreshSourceError(t *testing.T) {
	t.Parallel()

	m := NewManager(&fakeSource{err: errors.New("connection refused")}, DefaultGradientLimits(), 0.25)
	if _, err := m.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() with failing source did not fail")
	}
	if _, err := m.Current(); !errors.Is(err, ErrSnapshotNotReady) {
		t.Fatal("failed Refresh() must not install a snapshot")
	}
}

func TestBuildSnapshotCaptureVertices(t *testing.T) {
	t.Parallel()

	// Vertices roughly 0, 111 and 222 meters east of the outlet. At equator
	// latitude one degree of longitude is ~111.3 km.
	vertices := []Vertex{
		{ID: 3, Lon: 0.000, Lat: 0},
		{ID: 1, Lon: 0.001, Lat: 0},
		{ID: 2, Lon: 0.002, Lat: 0},
		{ID: 4, Lon: 1.000, Lat: 0},
	}
	outlets := []Outlet{{ID: "out-1", Lon: 0, Lat: 0}}

	snap := BuildSnapshot(vertices, nil, outlets, nil, DefaultGradientLimits(), 0.15)

	got := snap.CaptureVertices("out-1")
	want := []int64{1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("CaptureVertices() = %v, want %v", got, want)
	}

	if snap.CaptureVertices("no-such-outlet") != nil {
		t.Fatal("CaptureVertices() for unknown outlet should be empty")
	}
}

func TestBuildSnapshotSortsFacilities(t *testing.T) {
	t.Parallel()

	facilities := []Facility{
		{ID: 30, Category: "school"},
		{ID: 10, Category: "hospital"},
		{ID: 20, Category: "farmland"},
	}

	snap := BuildSnapshot(nil, nil, nil, facilities, DefaultGradientLimits(), 0.25)

	for i := 1; i < len(snap.Facilities); i++ {
		if snap.Facilities[i-1].ID >= snap.Facilities[i].ID {
			t.Fatalf("facilities not id-sorted: %v", snap.Facilities)
		}
	}
}
