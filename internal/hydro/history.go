package hydro

import "time"

// HistoryEvent is the append-only record handed to the persistence pipeline
// after an analysis completes. The persistence layer treats Params and
// Results as opaque JSON.
type HistoryEvent struct {
	EventID     string          `json:"event_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	Contaminant string          `json:"contaminant_type"`
	Params      AnalysisRequest `json:"params"`
	Summary     map[string]int  `json:"summary"`
	Results     []RiskRecord    `json:"results"`
}

// NewHistoryEvent assembles the persisted record for one analysis, including
// the at-risk counts per facility category.
func NewHistoryEvent(req AnalysisRequest, res *AnalysisResult) HistoryEvent {
	summary := make(map[string]int)
	for _, r := range res.Results {
		summary[r.EndpointType]++
	}

	return HistoryEvent{
		EventID:     res.EventID,
		Timestamp:   res.GeneratedAt,
		Lat:         req.Lat,
		Lon:         req.Lon,
		Contaminant: req.Contaminant,
		Params:      req,
		Summary:     summary,
		Results:     res.Results,
	}
}
