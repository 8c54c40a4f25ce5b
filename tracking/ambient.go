package tracking

import (
	"math"

	"github.com/nwah/fujisuite-tracker/internal/monitoring"
	"github.com/nwah/fujisuite-tracker/nav"
)

// DefaultLuxThreshold separates NORMAL from LOW_LIGHT
const DefaultLuxThreshold = 1000

// AmbientModeController maps light readings to a VisualMode and applies mode
// changes to the canvas. Repeated readings that map to the current mode are
// no-ops.
type AmbientModeController struct {
	canvas     MapCanvas
	threshold  float64
	hysteresis float64
	routeWidth float64
	mode       VisualMode
}

// NewAmbientModeController starts in ModeNormal. LOW_LIGHT is entered below
// threshold and left again at threshold+hysteresis or above.
func NewAmbientModeController(canvas MapCanvas, threshold, hysteresis, routeWidth float64) *AmbientModeController {
	if hysteresis < 0 {
		hysteresis = 0
	}
	return &AmbientModeController{
		canvas:     canvas,
		threshold:  threshold,
		hysteresis: hysteresis,
		routeWidth: routeWidth,
		mode:       ModeNormal,
	}
}

// Mode returns the active visual mode.
func (a *AmbientModeController) Mode() VisualMode { return a.mode }

func (a *AmbientModeController) desired(lux float64) VisualMode {
	if a.mode == ModeLowLight {
		if lux >= a.threshold+a.hysteresis {
			return ModeNormal
		}
		return ModeLowLight
	}
	if lux < a.threshold {
		return ModeLowLight
	}
	return ModeNormal
}

// OnAmbientReading applies the mode for lux and reports whether it changed.
// route is the active polyline, if any, which is redrawn in the new color.
func (a *AmbientModeController) OnAmbientReading(lux float64, route []nav.Coordinate) bool {
	if math.IsNaN(lux) {
		return false
	}
	next := a.desired(lux)
	if next == a.mode {
		return false
	}

	a.mode = next
	monitoring.Logf("Debug: visual mode -> %s (%.0f lux)", next, lux)

	a.canvas.SetTileInvert(next == ModeLowLight)
	if len(route) > 0 {
		a.canvas.DrawRoute(route, RouteColor(next), a.routeWidth)
	}
	return true
}
