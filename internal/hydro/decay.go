package hydro

import "math"

// RiskLevel is the discrete risk tier derived from concentration.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "High"
	RiskModerate RiskLevel = "Moderate"
	RiskLow      RiskLevel = "Low"
	RiskSafe     RiskLevel = "Safe"
)

// Thresholds are caller-supplied percentage concentrations separating the
// risk tiers. They must satisfy High >= Moderate >= Low.
type Thresholds struct {
	High     float64
	Moderate float64
	Low      float64
}

// Validate enforces the threshold monotonicity precondition.
func (t Thresholds) Validate() error {
	if t.Low < 0 {
		return invalidInput("low_threshold", "must not be negative")
	}
	if t.High < t.Moderate {
		return invalidInput("thresholds", "high_threshold must be >= moderate_threshold")
	}
	if t.Moderate < t.Low {
		return invalidInput("thresholds", "moderate_threshold must be >= low_threshold")
	}
	return nil
}

// Concentration estimates the percentage of the initial contaminant load
// present after distanceKm of travel: 100 * (1-rate)^d.
func Concentration(distanceKm, dispersionRate float64) float64 {
	return 100 * math.Pow(1-dispersionRate, distanceKm)
}

// ClassifyRisk maps a concentration onto a tier. Evaluation order is fixed,
// first match wins.
func ClassifyRisk(concentration float64, t Thresholds) RiskLevel {
	switch {
	case concentration >= t.High:
		return RiskHigh
	case concentration >= t.Moderate:
		return RiskModerate
	case concentration >= t.Low:
		return RiskLow
	default:
		return RiskSafe
	}
}
