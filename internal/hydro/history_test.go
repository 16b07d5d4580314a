package hydro

import (
	"testing"
	"time"
)

func TestNewHistoryEvent(t *testing.T) {
	t.Parallel()

	req := validRequest()
	res := &AnalysisResult{
		EventID:     "evt_123",
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Results: []RiskRecord{
			{EndpointID: 1, EndpointType: "hospital", RiskLevel: RiskHigh},
			{EndpointID: 2, EndpointType: "school", RiskLevel: RiskModerate},
			{EndpointID: 3, EndpointType: "school", RiskLevel: RiskLow},
		},
	}

	ev := NewHistoryEvent(req, res)

	if ev.EventID != "evt_123" {
		t.Fatalf("EventID = %s, want evt_123", ev.EventID)
	}
	if !ev.Timestamp.Equal(res.GeneratedAt) {
		t.Fatalf("Timestamp = %v, want %v", ev.Timestamp, res.GeneratedAt)
	}
	if ev.Lat != req.Lat || ev.Lon != req.Lon {
		t.Fatalf("position = (%v, %v), want (%v, %v)", ev.Lat, ev.Lon, req.Lat, req.Lon)
	}
	if ev.Contaminant != req.Contaminant {
		t.Fatalf("Contaminant = %s, want %s", ev.Contaminant, req.Contaminant)
	}
	if ev.Summary["hospital"] != 1 || ev.Summary["school"] != 2 {
		t.Fatalf("Summary = %v, want hospital:1 school:2", ev.Summary)
	}
	if len(ev.Results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(ev.Results))
	}
}
