package hydro

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Categories is the closed set of facility categories the system knows.
var Categories = []string{"hospital", "school", "clinic", "residential", "industrial", "farmland", "other"}

// DefaultTrackedCategories mirrors the facility classes the analysis
// considers unless a request overrides them.
var DefaultTrackedCategories = []string{"hospital", "school", "farmland", "residential"}

// Config carries the engine knobs that are fixed per process rather than per
// request.
type Config struct {
	// SnapCutoffM is the sanity cutoff for the snap distance in meters.
	SnapCutoffM float64

	// CaptureRadiusKm is how close a network vertex must be to an outlet for
	// downstream distance to that vertex to count as reaching the outlet.
	CaptureRadiusKm float64

	// Timeout bounds a single traversal.
	Timeout time.Duration

	// TrackedCategories is the default facility category filter.
	TrackedCategories []string
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SnapCutoffM:       5000,
		CaptureRadiusKm:   0.25,
		Timeout:           15 * time.Second,
		TrackedCategories: DefaultTrackedCategories,
	}
}

// AnalysisRequest is the full parameter set of one contamination analysis.
// The json tags define the persisted parameter shape.
type AnalysisRequest struct {
	Lat               float64  `json:"lat"`
	Lon               float64  `json:"lon"`
	DispersionRate    float64  `json:"dispersion_rate"`
	RadiusKm          float64  `json:"analysis_radius"`
	HighThreshold     float64  `json:"high_threshold"`
	ModerateThreshold float64  `json:"moderate_threshold"`
	LowThreshold      float64  `json:"low_threshold"`
	Contaminant       string   `json:"contaminant_type"`
	Severity          string   `json:"severity,omitempty"`
	Description       string   `json:"description,omitempty"`
	Categories        []string `json:"categories,omitempty"`
}

// Thresholds bundles the request's risk thresholds.
func (r *AnalysisRequest) Thresholds() Thresholds {
	return Thresholds{High: r.HighThreshold, Moderate: r.ModerateThreshold, Low: r.LowThreshold}
}

// Validate rejects malformed requests before any graph access happens. The
// returned error names the violated constraint.
func (r *AnalysisRequest) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return invalidInput("lat", "must be between -90 and 90")
	}
	if r.Lon < -180 || r.Lon > 180 {
		return invalidInput("lon", "must be between -180 and 180")
	}
	if r.DispersionRate <= 0 || r.DispersionRate >= 1 {
		return invalidInput("dispersion_rate", "must be a fraction between 0 and 1 exclusive")
	}
	if r.RadiusKm <= 0 {
		return invalidInput("analysis_radius", "must be positive")
	}
	if err := r.Thresholds().Validate(); err != nil {
		return err
	}
	for _, c := range r.Categories {
		if !knownCategory(c) {
			return invalidInput("categories", fmt.Sprintf("unknown category %q", c))
		}
	}
	return nil
}

func knownCategory(c string) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// SourceSummary echoes how the contamination point was resolved onto the
// network.
type SourceSummary struct {
	Lat              float64    `json:"lat"`
	Lon              float64    `json:"lon"`
	EdgeID           int64      `json:"edge_id"`
	SnappedLon       float64    `json:"snapped_lon"`
	SnappedLat       float64    `json:"snapped_lat"`
	SnapDistanceM    float64    `json:"snap_distance_m"`
	FlowSourceVertex int64      `json:"flow_source_vertex"`
	FlowPolicy       FlowPolicy `json:"flow_policy"`
}

// RiskRecord is one at-risk facility. Only facilities whose concentration is
// at least the low threshold are retained.
type RiskRecord struct {
	EndpointID    int64     `json:"endpoint_id"`
	EndpointType  string    `json:"endpoint_type"`
	EndpointName  *string   `json:"endpoint_name,omitempty"`
	DistanceKm    float64   `json:"distance_km"`
	Concentration float64   `json:"concentration"`
	RiskLevel     RiskLevel `json:"risk_level"`
}

// AnalysisResult is created once per request and never mutated afterwards,
// except for warnings the caller attaches about the history hand-off.
type AnalysisResult struct {
	EventID             string       `json:"event_id"`
	GeneratedAt         time.Time    `json:"generated_at"`
	Source              SourceSummary `json:"source"`
	Results             []RiskRecord `json:"results"`
	TotalAtRisk         int          `json:"total_at_risk"`
	AnalysisTimeSeconds float64      `json:"analysis_time_seconds"`
	Warnings            []string     `json:"warnings,omitempty"`
}

// Analyzer runs contamination analyses over the current network snapshot.
// It is safe for concurrent use.
type Analyzer struct {
	snapshots *Manager
	spatial   SpatialStore
	cfg       Config
}

// NewAnalyzer wires the analyzer to its snapshot manager and spatial store.
func NewAnalyzer(snapshots *Manager, spatial SpatialStore, cfg Config) *Analyzer {
	if len(cfg.TrackedCategories) == 0 {
		cfg.TrackedCategories = DefaultTrackedCategories
	}
	return &Analyzer{snapshots: snapshots, spatial: spatial, cfg: cfg}
}

// Analyze resolves the source point onto the network, traverses downstream
// within the radius, composes per-facility distances and classifies risk.
func (a *Analyzer) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	started := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	snap, err := a.snapshots.Current()
	if err != nil {
		return nil, err
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	sr, err := ResolveSnap(ctx, a.spatial, req.Lon, req.Lat, a.cfg.SnapCutoffM)
	if err != nil {
		return nil, err
	}

	reach, err := snap.Graph.Downstream(ctx, sr.FlowSourceID, req.RadiusKm)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: radius %.1f km", ErrAnalysisTimeout, req.RadiusKm)
		}
		return nil, err
	}

	records := resolveEndpoints(snap, reach, &req, a.trackedSet(&req))
	sortRecords(records)

	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}

	return &AnalysisResult{
		EventID:     id,
		GeneratedAt: started.UTC(),
		Source: SourceSummary{
			Lat:              req.Lat,
			Lon:              req.Lon,
			EdgeID:           sr.Edge.EdgeID,
			SnappedLon:       sr.Edge.SnapLon,
			SnappedLat:       sr.Edge.SnapLat,
			SnapDistanceM:    sr.Edge.DistanceM,
			FlowSourceVertex: sr.FlowSourceID,
			FlowPolicy:       sr.Policy,
		},
		Results:             records,
		TotalAtRisk:         len(records),
		AnalysisTimeSeconds: time.Since(started).Seconds(),
	}, nil
}

// Snap exposes the snap resolver for the pass-through endpoint.
func (a *Analyzer) Snap(ctx context.Context, lon, lat float64) (*SnapResult, error) {
	return ResolveSnap(ctx, a.spatial, lon, lat, a.cfg.SnapCutoffM)
}

func (a *Analyzer) trackedSet(req *AnalysisRequest) map[string]bool {
	categories := req.Categories
	if len(categories) == 0 {
		categories = a.cfg.TrackedCategories
	}
	set := make(map[string]bool, len(categories))
	for _, c := range categories {
		set[c] = true
	}
	return set
}

// resolveEndpoints joins reachable vertices to facilities via outlets and
// composes the total travel distance per facility: minimum downstream
// distance to a captured vertex plus the connector (pipeline or straight
// line) to the facility.
func resolveEndpoints(
	snap *Snapshot,
	reach map[int64]float64,
	req *AnalysisRequest,
	tracked map[string]bool,
) []RiskRecord {
	thresholds := req.Thresholds()
	records := make([]RiskRecord, 0)

	for _, fac := range snap.Facilities {
		if fac.OutletID == nil {
			// Facilities without an outlet linkage cannot be shown to be
			// downstream-connected.
			continue
		}
		if !tracked[fac.Category] {
			continue
		}

		outlet, ok := snap.Outlets[*fac.OutletID]
		if !ok {
			continue
		}

		waterKm, reached := minReachableDistance(reach, snap.CaptureVertices(outlet.ID))
		if !reached {
			continue
		}

		connectorKm := HaversineKm(fac.Lon, fac.Lat, outlet.Lon, outlet.Lat)
		if fac.PipelineKm != nil {
			connectorKm = *fac.PipelineKm
		}

		total := waterKm + connectorKm
		if total > req.RadiusKm {
			continue
		}

		concentration := Concentration(total, req.DispersionRate)
		level := ClassifyRisk(concentration, thresholds)
		if level == RiskSafe {
			continue
		}

		records = append(records, RiskRecord{
			EndpointID:    fac.ID,
			EndpointType:  fac.Category,
			EndpointName:  fac.Name,
			DistanceKm:    total,
			Concentration: concentration,
			RiskLevel:     level,
		})
	}

	return records
}

func minReachableDistance(reach map[int64]float64, vertices []int64) (float64, bool) {
	best := 0.0
	found := false
	for _, v := range vertices {
		d, ok := reach[v]
		if !ok {
			continue
		}
		if !found || d < best {
			best = d
			found = true
		}
	}
	return best, found
}

// sortRecords orders by concentration descending, distance ascending, then
// facility id ascending so identical inputs always serialize identically.
func sortRecords(records []RiskRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Concentration != records[j].Concentration {
			return records[i].Concentration > records[j].Concentration
		}
		if records[i].DistanceKm != records[j].DistanceKm {
			return records[i].DistanceKm < records[j].DistanceKm
		}
		return records[i].EndpointID < records[j].EndpointID
	})
}
