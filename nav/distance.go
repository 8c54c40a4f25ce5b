package nav

import (
	"fmt"

	"github.com/paulmach/orb/geo"
)

// Distance returns the great-circle distance between a and b in meters.
// The result is symmetric and zero for identical coordinates.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	return geo.DistanceHaversine(a.Point(), b.Point())
}

// FormatDistance renders meters for display: whole meters below one
// kilometer, kilometers with two decimals otherwise.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatDuration renders seconds as hours and minutes
func FormatDuration(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dhr %dmin", hours, minutes)
		}
		return fmt.Sprintf("%dhr", hours)
	}
	return fmt.Sprintf("%dmin", minutes)
}
