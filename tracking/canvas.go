package tracking

import (
	"context"
	"image/color"

	"github.com/nwah/fujisuite-tracker/history"
	"github.com/nwah/fujisuite-tracker/nav"
)

// MarkerKind tags the two marker slots a session owns
type MarkerKind int

const (
	MarkerCurrent MarkerKind = iota
	MarkerTarget
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerCurrent:
		return "current"
	case MarkerTarget:
		return "target"
	default:
		return "unknown"
	}
}

// VisualMode is the session-wide presentation mode
type VisualMode int

const (
	ModeNormal VisualMode = iota
	ModeLowLight
)

func (m VisualMode) String() string {
	if m == ModeLowLight {
		return "low_light"
	}
	return "normal"
}

// Route polyline colors
var (
	RouteRed    = color.RGBA{R: 0xff, A: 0xff}
	RouteYellow = color.RGBA{R: 0xff, G: 0xff, A: 0xff}
)

// RouteColor returns the polyline color for a visual mode.
func RouteColor(m VisualMode) color.RGBA {
	if m == ModeLowLight {
		return RouteYellow
	}
	return RouteRed
}

// MapCanvas receives one-way render commands. Calls are made from the session
// worker goroutine only, one at a time.
type MapCanvas interface {
	SetMarker(kind MarkerKind, at nav.Coordinate, label string)
	ClearMarker(kind MarkerKind)
	// DrawRoute replaces any polyline currently drawn.
	DrawRoute(points []nav.Coordinate, c color.RGBA, width float64)
	ClearRoute()
	CenterOn(at nav.Coordinate, zoom float64)
	SetTileInvert(invert bool)
}

// Geocoder resolves addresses. An empty result with a nil error is "not found".
type Geocoder interface {
	Forward(ctx context.Context, address string) ([]nav.Place, error)
	Reverse(ctx context.Context, c nav.Coordinate) ([]string, error)
}

// Router computes a two-point road route.
type Router interface {
	Route(ctx context.Context, origin, destination nav.Coordinate) (nav.Route, error)
}

// HistoryAppender persists accepted fixes.
type HistoryAppender interface {
	Append(e history.Entry) error
}

// Notifier receives user-visible reports, one per event. It is called from
// the session worker and must not block.
type Notifier interface {
	Notify(r Report)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(r Report)

// Notify calls f(r).
func (f NotifierFunc) Notify(r Report) { f(r) }
