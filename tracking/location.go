package tracking

import (
	"context"
	"fmt"

	"github.com/nwah/fujisuite-tracker/nav"
)

// LocationFix is one position report from the device.
type LocationFix struct {
	Coordinate      nav.Coordinate
	TimestampMillis int64    // producer clock, non-decreasing
	AccuracyMeters  *float64 // nil when the provider does not report it
}

// AccuracyPriority is the desired accuracy handed to the fix provider
type AccuracyPriority string

const (
	PriorityHighAccuracy AccuracyPriority = "high"
	PriorityBalanced     AccuracyPriority = "balanced"
	PriorityLowPower     AccuracyPriority = "low"
	PriorityPassive      AccuracyPriority = "passive"
)

// IsValid checks if the priority is known
func (p AccuracyPriority) IsValid() bool {
	switch p {
	case PriorityHighAccuracy, PriorityBalanced, PriorityLowPower, PriorityPassive:
		return true
	default:
		return false
	}
}

// LocationRequest configures the fix stream cadence.
type LocationRequest struct {
	UpdateIntervalMillis    int64
	MinUpdateIntervalMillis int64
	AccuracyPriority        AccuracyPriority
}

// DefaultLocationRequest asks for high accuracy fixes every 5s, never faster than every 2s.
func DefaultLocationRequest() LocationRequest {
	return LocationRequest{
		UpdateIntervalMillis:    5000,
		MinUpdateIntervalMillis: 2000,
		AccuracyPriority:        PriorityHighAccuracy,
	}
}

// Validate checks the request is internally consistent.
func (r LocationRequest) Validate() error {
	if r.UpdateIntervalMillis <= 0 {
		return fmt.Errorf("updateIntervalMillis must be positive, got %d", r.UpdateIntervalMillis)
	}
	if r.MinUpdateIntervalMillis < 0 {
		return fmt.Errorf("minUpdateIntervalMillis must be non-negative, got %d", r.MinUpdateIntervalMillis)
	}
	if r.MinUpdateIntervalMillis > r.UpdateIntervalMillis {
		return fmt.Errorf("minUpdateIntervalMillis (%d) exceeds updateIntervalMillis (%d)",
			r.MinUpdateIntervalMillis, r.UpdateIntervalMillis)
	}
	if !r.AccuracyPriority.IsValid() {
		return fmt.Errorf("unknown accuracyPriority %q", r.AccuracyPriority)
	}
	return nil
}

// FixSource is the platform location provider.
type FixSource interface {
	// Start begins delivering fixes until ctx is done, then closes the channel.
	Start(ctx context.Context, req LocationRequest) (<-chan LocationFix, error)
}
