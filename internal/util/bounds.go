package util

import (
	"fmt"
	"strconv"
	"strings"
)

// Bounds is a lon/lat bounding box.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// ParseBounds parses a "minLon,minLat,maxLon,maxLat" query parameter. An
// empty string yields (nil, nil).
func ParseBounds(s string) (*Bounds, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid bounds format, use: minLon,minLat,maxLon,maxLat")
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bounds value %q", p)
		}
		vals[i] = v
	}

	b := &Bounds{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return nil, fmt.Errorf("invalid bounds: min must not exceed max")
	}
	return b, nil
}
