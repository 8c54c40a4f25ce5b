package tracking

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nwah/fujisuite-tracker/history"
	"github.com/nwah/fujisuite-tracker/internal/monitoring"
	"github.com/nwah/fujisuite-tracker/nav"
)

type canvasCall struct {
	Op     string
	Kind   MarkerKind
	At     nav.Coordinate
	Label  string
	Points []nav.Coordinate
	Color  color.RGBA
	Width  float64
	Zoom   float64
	Invert bool
}

// fakeCanvas records commands and counts live markers per kind.
type fakeCanvas struct {
	mu         sync.Mutex
	calls      []canvasCall
	live       map[MarkerKind]int
	violations int
}

func newFakeCanvas() *fakeCanvas {
	return &fakeCanvas{live: map[MarkerKind]int{}}
}

func (c *fakeCanvas) record(call canvasCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *fakeCanvas) SetMarker(kind MarkerKind, at nav.Coordinate, label string) {
	c.mu.Lock()
	c.live[kind]++
	if c.live[kind] > 1 {
		c.violations++
	}
	c.mu.Unlock()
	c.record(canvasCall{Op: "SetMarker", Kind: kind, At: at, Label: label})
}

func (c *fakeCanvas) ClearMarker(kind MarkerKind) {
	c.mu.Lock()
	if c.live[kind] > 0 {
		c.live[kind]--
	}
	c.mu.Unlock()
	c.record(canvasCall{Op: "ClearMarker", Kind: kind})
}

func (c *fakeCanvas) DrawRoute(points []nav.Coordinate, col color.RGBA, width float64) {
	c.record(canvasCall{Op: "DrawRoute", Points: append([]nav.Coordinate(nil), points...), Color: col, Width: width})
}

func (c *fakeCanvas) ClearRoute() { c.record(canvasCall{Op: "ClearRoute"}) }

func (c *fakeCanvas) CenterOn(at nav.Coordinate, zoom float64) {
	c.record(canvasCall{Op: "CenterOn", At: at, Zoom: zoom})
}

func (c *fakeCanvas) SetTileInvert(invert bool) {
	c.record(canvasCall{Op: "SetTileInvert", Invert: invert})
}

func (c *fakeCanvas) ops(op string) []canvasCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []canvasCall
	for _, call := range c.calls {
		if call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func (c *fakeCanvas) markerCalls(kind MarkerKind) []canvasCall {
	var out []canvasCall
	for _, call := range c.ops("SetMarker") {
		if call.Kind == kind {
			out = append(out, call)
		}
	}
	return out
}

func (c *fakeCanvas) liveMarkers(kind MarkerKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live[kind]
}

func (c *fakeCanvas) markerViolations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.violations
}

type fakeGeocoder struct {
	forward func(ctx context.Context, address string) ([]nav.Place, error)
	reverse func(ctx context.Context, c nav.Coordinate) ([]string, error)
}

func (g *fakeGeocoder) Forward(ctx context.Context, address string) ([]nav.Place, error) {
	if g.forward == nil {
		return nil, nil
	}
	return g.forward(ctx, address)
}

func (g *fakeGeocoder) Reverse(ctx context.Context, c nav.Coordinate) ([]string, error) {
	if g.reverse == nil {
		return nil, nil
	}
	return g.reverse(ctx, c)
}

type routeCall struct {
	Origin, Destination nav.Coordinate
}

type fakeRouter struct {
	mu    sync.Mutex
	calls []routeCall
	route func(ctx context.Context, origin, destination nav.Coordinate) (nav.Route, error)
}

func (r *fakeRouter) Route(ctx context.Context, origin, destination nav.Coordinate) (nav.Route, error) {
	r.mu.Lock()
	r.calls = append(r.calls, routeCall{Origin: origin, Destination: destination})
	fn := r.route
	r.mu.Unlock()
	if fn == nil {
		return straightRoute(origin, destination), nil
	}
	return fn(ctx, origin, destination)
}

func (r *fakeRouter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type fakeStore struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (s *fakeStore) Append(e history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeStore) all() []history.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]history.Entry(nil), s.entries...)
}

type reportLog struct {
	mu      sync.Mutex
	reports []Report
}

func (l *reportLog) Notify(r Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, r)
}

func (l *reportLog) kinds() []ReportKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ReportKind, len(l.reports))
	for i, r := range l.reports {
		out[i] = r.Kind
	}
	return out
}

func (l *reportLog) ofKind(kind ReportKind) []Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Report
	for _, r := range l.reports {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func straightRoute(origin, destination nav.Coordinate) nav.Route {
	mid := nav.Coordinate{Lat: (origin.Lat + destination.Lat) / 2, Lon: (origin.Lon + destination.Lon) / 2}
	return nav.Route{
		Points:          []nav.Coordinate{origin, mid, destination},
		DistanceMeters:  nav.Distance(origin, destination),
		DurationSeconds: 60,
	}
}

type harness struct {
	session  *Session
	canvas   *fakeCanvas
	geocoder *fakeGeocoder
	router   *fakeRouter
	store    *fakeStore
	reports  *reportLog
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	h := &harness{
		canvas:   newFakeCanvas(),
		geocoder: &fakeGeocoder{},
		router:   &fakeRouter{},
		store:    &fakeStore{},
		reports:  &reportLog{},
	}
	s, err := New(Deps{
		Canvas:   h.canvas,
		Geocoder: h.geocoder,
		Router:   h.router,
		History:  h.store,
		Notifier: h.reports,
	}, opts)
	require.NoError(t, err)
	h.session = s
	return h
}

// start runs the session until the test ends.
func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.session.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errc:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Run() = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})
}

func (h *harness) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.session.Flush(ctx))
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	snap, err := h.session.Snapshot()
	require.NoError(t, err)
	return snap
}

func fixAt(lat, lon float64, ts int64) LocationFix {
	return LocationFix{Coordinate: nav.Coordinate{Lat: lat, Lon: lon}, TimestampMillis: ts}
}
