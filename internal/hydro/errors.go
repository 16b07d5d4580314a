package hydro

import (
	"errors"
	"fmt"
)

var (
	// ErrNoNetworkNearby is returned when the network is empty or the nearest
	// edge is farther from the source point than the configured snap cutoff.
	ErrNoNetworkNearby = errors.New("no hydrology network near point")

	// ErrAnalysisTimeout is returned when the downstream traversal exceeded
	// its time budget. Callers may retry with a smaller radius.
	ErrAnalysisTimeout = errors.New("analysis timed out")

	// ErrInvalidInput marks request validation failures. Use errors.Is to
	// detect it; the concrete error names the violated constraint.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSnapshotNotReady is returned when no network snapshot has been
	// loaded yet.
	ErrSnapshotNotReady = errors.New("network snapshot not loaded")
)

// InputError reports a single violated request constraint.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
