package hydro

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Outlet is a connector feature joining the flow network to facilities that
// share its external identifier.
type Outlet struct {
	ID         string
	Lon        float64
	Lat        float64
	ElevationM *float64
}

// Facility is a downstream endpoint (hospital, school, farmland, ...) with an
// optional outlet linkage and an optional direct pipeline length to it.
type Facility struct {
	ID         int64
	Name       *string
	Category   string
	Lon        float64
	Lat        float64
	OutletID   *string
	PipelineKm *float64
}

// SnapshotSource loads the raw network, outlet and facility records a
// snapshot is built from.
type SnapshotSource interface {
	ListVertices(ctx context.Context) ([]Vertex, error)
	ListEdges(ctx context.Context) ([]Edge, error)
	ListOutlets(ctx context.Context) ([]Outlet, error)
	ListFacilities(ctx context.Context) ([]Facility, error)
}

// Snapshot is an immutable view of the network plus the outlet/facility
// indices every analysis reads from. It is never mutated after Build.
type Snapshot struct {
	Graph      *FlowGraph
	Outlets    map[string]Outlet
	Facilities []Facility
	BuiltAt    time.Time

	// outletVertices maps an outlet id to the network vertices within the
	// capture radius of that outlet.
	outletVertices map[string][]int64
}

// CaptureVertices returns the network vertices within the capture radius of
// the given outlet.
func (s *Snapshot) CaptureVertices(outletID string) []int64 {
	return s.outletVertices[outletID]
}

// Manager owns the single-writer/multiple-reader snapshot lifecycle: Refresh
// rebuilds from the source and swaps the reference, readers keep whatever
// snapshot they loaded for the duration of their computation.
type Manager struct {
	source          SnapshotSource
	limits          GradientLimits
	captureRadiusKm float64

	cur atomic.Pointer[Snapshot]
}

// NewManager creates a snapshot manager. No snapshot exists until the first
// Refresh succeeds.
func NewManager(source SnapshotSource, limits GradientLimits, captureRadiusKm float64) *Manager {
	return &Manager{
		source:          source,
		limits:          limits,
		captureRadiusKm: captureRadiusKm,
	}
}

// Current returns the active snapshot, or ErrSnapshotNotReady before the
// first successful Refresh.
func (m *Manager) Current() (*Snapshot, error) {
	s := m.cur.Load()
	if s == nil {
		return nil, ErrSnapshotNotReady
	}
	return s, nil
}

// Refresh loads the network from the source, builds a new snapshot and swaps
// it in. In-flight analyses keep reading the snapshot they started with.
func (m *Manager) Refresh(ctx context.Context) (*Snapshot, error) {
	var (
		vertices   []Vertex
		edges      []Edge
		outlets    []Outlet
		facilities []Facility
	)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		vertices, err = m.source.ListVertices(gCtx)
		return err
	})
	eg.Go(func() (err error) {
		edges, err = m.source.ListEdges(gCtx)
		return err
	})
	eg.Go(func() (err error) {
		outlets, err = m.source.ListOutlets(gCtx)
		return err
	})
	eg.Go(func() (err error) {
		facilities, err = m.source.ListFacilities(gCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("load network snapshot: %w", err)
	}

	snap := BuildSnapshot(vertices, edges, outlets, facilities, m.limits, m.captureRadiusKm)
	m.cur.Store(snap)
	return snap, nil
}

// BuildSnapshot assembles an immutable snapshot from loaded records.
func BuildSnapshot(
	vertices []Vertex,
	edges []Edge,
	outlets []Outlet,
	facilities []Facility,
	limits GradientLimits,
	captureRadiusKm float64,
) *Snapshot {
	snap := &Snapshot{
		Graph:          NewFlowGraph(vertices, edges, limits),
		Outlets:        make(map[string]Outlet, len(outlets)),
		Facilities:     make([]Facility, len(facilities)),
		outletVertices: make(map[string][]int64, len(outlets)),
		BuiltAt:        time.Now().UTC(),
	}

	copy(snap.Facilities, facilities)
	sort.Slice(snap.Facilities, func(i, j int) bool { return snap.Facilities[i].ID < snap.Facilities[j].ID })

	for _, o := range outlets {
		snap.Outlets[o.ID] = o

		var captured []int64
		for _, v := range vertices {
			if HaversineKm(o.Lon, o.Lat, v.Lon, v.Lat) <= captureRadiusKm {
				captured = append(captured, v.ID)
			}
		}
		sort.Slice(captured, func(i, j int) bool { return captured[i] < captured[j] })
		snap.outletVertices[o.ID] = captured
	}

	return snap
}
