package hydro

import "sort"

// Vertex is a node of the hydrology network. Elevation may be unknown when
// the underlying terrain data has gaps.
type Vertex struct {
	ID         int64
	Lon        float64
	Lat        float64
	ElevationM *float64
}

// Edge is an undirected network segment. Directionality is not stored; it is
// derived at traversal time from the elevation of its two vertices.
type Edge struct {
	ID       int64
	SourceID int64
	TargetID int64
	LengthKm float64
}

// GradientLimits bounds the elevation drop an edge must exhibit to count as
// downstream-traversable. An edge from A to B is traversable only if
// elevation(A)-elevation(B) is strictly greater than MinDropM and at most
// MaxDropM; drops beyond MaxDropM are treated as bad elevation data.
type GradientLimits struct {
	MinDropM float64
	MaxDropM float64
}

// DefaultGradientLimits accepts any positive drop up to 500m per edge.
func DefaultGradientLimits() GradientLimits {
	return GradientLimits{MinDropM: 0, MaxDropM: 500}
}

// FlowPolicy names how a flow-source vertex was chosen.
type FlowPolicy string

const (
	// PolicyElevationGradient means the higher-elevation vertex was chosen.
	PolicyElevationGradient FlowPolicy = "elevation-gradient"

	// PolicyFlatTerrainDefault means elevations were equal or unknown and the
	// edge's first-declared vertex was chosen. This is a documented tie-break,
	// not an inferred hydrological fact.
	PolicyFlatTerrainDefault FlowPolicy = "flat-terrain-default"
)

// FlowSource picks the vertex downstream exploration starts from: the higher
// of the snapped edge's two vertices, falling back to the first-declared
// vertex on flat or unknown terrain.
func FlowSource(sourceID int64, sourceElev *float64, targetID int64, targetElev *float64) (int64, FlowPolicy) {
	if sourceElev != nil && targetElev != nil {
		if *sourceElev > *targetElev {
			return sourceID, PolicyElevationGradient
		}
		if *targetElev > *sourceElev {
			return targetID, PolicyElevationGradient
		}
	}
	return sourceID, PolicyFlatTerrainDefault
}

// FlowGraph is an immutable, arena-indexed view of the hydrology network.
// Vertices and edges are held in id-sorted slices and referenced by integer
// handles so one snapshot can be shared read-only across concurrent analyses.
type FlowGraph struct {
	vertices []Vertex
	edges    []Edge
	byID     map[int64]int32
	incident [][]int32
	limits   GradientLimits
}

// NewFlowGraph builds a graph from loaded vertices and edges. Edges that
// reference unknown vertices are dropped.
func NewFlowGraph(vertices []Vertex, edges []Edge, limits GradientLimits) *FlowGraph {
	g := &FlowGraph{
		vertices: make([]Vertex, len(vertices)),
		byID:     make(map[int64]int32, len(vertices)),
		limits:   limits,
	}

	copy(g.vertices, vertices)
	sort.Slice(g.vertices, func(i, j int) bool { return g.vertices[i].ID < g.vertices[j].ID })
	for i := range g.vertices {
		g.byID[g.vertices[i].ID] = int32(i)
	}

	g.edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		if _, ok := g.byID[e.SourceID]; !ok {
			continue
		}
		if _, ok := g.byID[e.TargetID]; !ok {
			continue
		}
		g.edges = append(g.edges, e)
	}
	sort.Slice(g.edges, func(i, j int) bool { return g.edges[i].ID < g.edges[j].ID })

	g.incident = make([][]int32, len(g.vertices))
	for i, e := range g.edges {
		s := g.byID[e.SourceID]
		t := g.byID[e.TargetID]
		g.incident[s] = append(g.incident[s], int32(i))
		if t != s {
			g.incident[t] = append(g.incident[t], int32(i))
		}
	}

	return g
}

// VertexCount reports the number of vertices in the graph.
func (g *FlowGraph) VertexCount() int { return len(g.vertices) }

// EdgeCount reports the number of edges in the graph.
func (g *FlowGraph) EdgeCount() int { return len(g.edges) }

// Vertex looks a vertex up by its identifier.
func (g *FlowGraph) Vertex(id int64) (Vertex, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return Vertex{}, false
	}
	return g.vertices[idx], true
}

// traversable reports whether water can flow across the edge between the two
// arena indices, from -> to. Unknown elevations never count as downstream.
func (g *FlowGraph) traversable(from, to int32) bool {
	a := g.vertices[from].ElevationM
	b := g.vertices[to].ElevationM
	if a == nil || b == nil {
		return false
	}
	drop := *a - *b
	return drop > g.limits.MinDropM && drop <= g.limits.MaxDropM
}
