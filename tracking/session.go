// Package tracking implements the tracking session: a single-writer state
// machine that owns the current position, the target, the route and the
// visual mode.
//
// All inputs (fixes, light readings, user requests) and all background
// results (geocoding, routing, history writes) pass through one ordered
// queue drained by the goroutine running Session.Run. Network calls run on
// their own goroutines and rejoin the queue when they finish, so they never
// hold up fix acceptance or mode changes.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nwah/fujisuite-tracker/history"
	"github.com/nwah/fujisuite-tracker/internal/monitoring"
	"github.com/nwah/fujisuite-tracker/nav"
)

// TrackingState is the position state of a session
type TrackingState int

const (
	StateUninitialized TrackingState = iota
	StateTracking
)

func (s TrackingState) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "uninitialized"
}

// RoutingState is orthogonal to TrackingState
type RoutingState int

const (
	RoutingIdle RoutingState = iota
	RoutingTargetSet
	RoutingRouteReady
)

func (s RoutingState) String() string {
	switch s {
	case RoutingTargetSet:
		return "target_set"
	case RoutingRouteReady:
		return "route_ready"
	default:
		return "idle"
	}
}

// Marker labels
const (
	CurrentLabel        = "Current location"
	DefaultTargetLabel  = "Marker"
	defaultQueueSize    = 64
	defaultHistoryQueue = 256
)

// Options tunes a session. Zero fields take the defaults from DefaultOptions.
type Options struct {
	MinMovementMeters float64
	TrackingZoom      float64
	TargetZoom        float64
	RouteWidth        float64
	LuxThreshold      float64
	HysteresisLux     float64
	QueueSize         int
	HistoryQueueSize  int
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MinMovementMeters: 30,
		TrackingZoom:      15,
		TargetZoom:        18,
		RouteWidth:        10,
		LuxThreshold:      DefaultLuxThreshold,
		QueueSize:         defaultQueueSize,
		HistoryQueueSize:  defaultHistoryQueue,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinMovementMeters <= 0 {
		o.MinMovementMeters = d.MinMovementMeters
	}
	if o.TrackingZoom <= 0 {
		o.TrackingZoom = d.TrackingZoom
	}
	if o.TargetZoom <= 0 {
		o.TargetZoom = d.TargetZoom
	}
	if o.RouteWidth <= 0 {
		o.RouteWidth = d.RouteWidth
	}
	if o.LuxThreshold <= 0 {
		o.LuxThreshold = d.LuxThreshold
	}
	if o.QueueSize <= 0 {
		o.QueueSize = d.QueueSize
	}
	if o.HistoryQueueSize <= 0 {
		o.HistoryQueueSize = d.HistoryQueueSize
	}
	return o
}

// Deps are the session's collaborators. History and Notifier may be nil.
type Deps struct {
	Canvas   MapCanvas
	Geocoder Geocoder
	Router   Router
	History  HistoryAppender
	Notifier Notifier
}

// PlaceMarker is a marker owned by the session.
type PlaceMarker struct {
	Coordinate nav.Coordinate
	Label      string
	Kind       MarkerKind
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	State         TrackingState
	// Routing is RoutingTargetSet while a route request is in flight. Route
	// may still hold the previous polyline in that state, so a non-nil Route
	// does not imply RoutingRouteReady.
	Routing       RoutingState
	Mode          VisualMode
	Current       *LocationFix
	CurrentMarker *PlaceMarker
	Target        *PlaceMarker
	TargetID      uuid.UUID // changes whenever a new target is applied
	Route         *nav.Route
	InFlight      int // lookups and history writes not yet merged
}

type target struct {
	id     uuid.UUID
	marker PlaceMarker
}

// Session is the tracking orchestrator. Create it with New, start it with
// Run, then feed it through the exported methods from any goroutine.
type Session struct {
	opts     Options
	canvas   MapCanvas
	geocoder Geocoder
	router   Router
	store    HistoryAppender
	notifier Notifier
	ambient  *AmbientModeController

	events chan event
	hist   chan history.Entry
	quit   chan struct{}
	done   chan struct{}

	// Owned by the worker goroutine.
	state         TrackingState
	routing       RoutingState
	current       *LocationFix
	currentMarker *PlaceMarker
	target        *target
	route         *nav.Route
	lookupSeq     uint64 // last issued target lookup
	appliedSeq    uint64 // lookup that produced the current target
	routeSeq      uint64 // last issued route request
	pending       int
	flushWaiters  []chan struct{}
}

// New validates deps and builds an idle session.
func New(deps Deps, opts Options) (*Session, error) {
	if deps.Canvas == nil {
		return nil, errors.New("tracking: canvas is required")
	}
	if deps.Geocoder == nil {
		return nil, errors.New("tracking: geocoder is required")
	}
	if deps.Router == nil {
		return nil, errors.New("tracking: router is required")
	}
	opts = opts.withDefaults()

	return &Session{
		opts:     opts,
		canvas:   deps.Canvas,
		geocoder: deps.Geocoder,
		router:   deps.Router,
		store:    deps.History,
		notifier: deps.Notifier,
		ambient:  NewAmbientModeController(deps.Canvas, opts.LuxThreshold, opts.HysteresisLux, opts.RouteWidth),
		events:   make(chan event, opts.QueueSize),
		hist:     make(chan history.Entry, opts.HistoryQueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Run drains the session queue until ctx is done. Pending history writes are
// completed before it returns. Run must be called once.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	writerDone := make(chan struct{})
	go s.writeHistory(writerDone)

	for {
		select {
		case <-ctx.Done():
			close(s.quit)
			close(s.hist)
			<-writerDone
			for _, w := range s.flushWaiters {
				close(w)
			}
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ctx, ev)
			s.releaseFlush()
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// OnFix queues a location fix.
func (s *Session) OnFix(fix LocationFix) error {
	return s.post(fixEvent{fix: fix})
}

// OnAmbientReading queues an ambient light reading in lux.
func (s *Session) OnAmbientReading(lux float64) error {
	return s.post(ambientEvent{lux: lux})
}

// SetTargetByAddress geocodes address and makes it the target.
func (s *Session) SetTargetByAddress(address string) error {
	return s.post(targetAddressEvent{address: address})
}

// SetTargetByPosition makes c the target, labelled by reverse geocoding.
func (s *Session) SetTargetByPosition(c nav.Coordinate) error {
	return s.post(targetPositionEvent{coordinate: c})
}

// RequestRoute requests a route from the current position to the target.
func (s *Session) RequestRoute() error {
	return s.post(routeRequestEvent{})
}

// Snapshot returns a copy of the state after every previously queued event
// has been handled.
func (s *Session) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := s.post(queryEvent{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-s.quit:
		return Snapshot{}, ErrSessionClosed
	}
}

// DistanceToTarget returns the distance in meters from the current position
// to the target, or false when either is missing.
func (s *Session) DistanceToTarget() (float64, bool) {
	snap, err := s.Snapshot()
	if err != nil || snap.Current == nil || snap.Target == nil {
		return 0, false
	}
	return nav.Distance(snap.Current.Coordinate, snap.Target.Coordinate), true
}

// Flush blocks until every background lookup and history write started so
// far, and any follow-up work they trigger, has been merged.
func (s *Session) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	if err := s.post(flushEvent{reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-s.quit:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) post(ev event) error {
	select {
	case <-s.quit:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.quit:
		return ErrSessionClosed
	}
}

// launch runs fn on its own goroutine and queues its result.
func (s *Session) launch(fn func() event) {
	s.pending++
	go func() {
		_ = s.post(fn())
	}()
}

func (s *Session) releaseFlush() {
	if s.pending > 0 || len(s.flushWaiters) == 0 {
		return
	}
	for _, w := range s.flushWaiters {
		close(w)
	}
	s.flushWaiters = nil
}

func (s *Session) report(r Report) {
	monitoring.Logf("Debug: report %s", r)
	if s.notifier != nil {
		s.notifier.Notify(r)
	}
}

func (s *Session) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case fixEvent:
		s.handleFix(ev.fix)
	case ambientEvent:
		s.ambient.OnAmbientReading(ev.lux, s.routePoints())
	case targetAddressEvent:
		s.handleTargetAddress(ctx, ev.address)
	case targetPositionEvent:
		s.handleTargetPosition(ctx, ev.coordinate)
	case routeRequestEvent:
		s.requestRoute(ctx)
	case geocodeResult:
		s.pending--
		s.mergeGeocode(ctx, ev)
	case routeResult:
		s.pending--
		s.mergeRoute(ev)
	case historyResult:
		s.pending--
		if ev.err != nil {
			s.report(failure(ReportPersistenceFailed, ErrPersistenceFailed, "Could not save location history", ev.err))
		}
	case queryEvent:
		ev.reply <- s.snapshot()
	case flushEvent:
		s.flushWaiters = append(s.flushWaiters, ev.reply)
	}
}

func (s *Session) handleFix(fix LocationFix) {
	if !fix.Coordinate.Valid() {
		monitoring.Logf("Debug: ignoring fix with invalid coordinate %v", fix.Coordinate)
		return
	}
	if s.current != nil {
		if fix.TimestampMillis <= s.current.TimestampMillis {
			monitoring.Logf("Debug: %v: fix at %d not newer than %d", ErrStaleFix, fix.TimestampMillis, s.current.TimestampMillis)
			return
		}
		if d := nav.Distance(fix.Coordinate, s.current.Coordinate); d <= s.opts.MinMovementMeters {
			monitoring.Logf("Debug: fix moved %.1f m, below %.0f m threshold", d, s.opts.MinMovementMeters)
			return
		}
	}

	accepted := fix
	s.current = &accepted
	s.state = StateTracking

	if s.currentMarker != nil {
		s.canvas.ClearMarker(MarkerCurrent)
	}
	s.currentMarker = &PlaceMarker{Coordinate: fix.Coordinate, Label: CurrentLabel, Kind: MarkerCurrent}
	s.canvas.SetMarker(MarkerCurrent, fix.Coordinate, CurrentLabel)
	s.canvas.CenterOn(fix.Coordinate, s.opts.TrackingZoom)

	s.appendHistory(history.NewEntry(fix.Coordinate, fix.TimestampMillis))
}

func (s *Session) appendHistory(e history.Entry) {
	if s.store == nil {
		return
	}
	select {
	case s.hist <- e:
		s.pending++
	default:
		s.report(failure(ReportPersistenceFailed, ErrPersistenceFailed, "Could not save location history",
			fmt.Errorf("history queue full, dropped fix at %d", e.Timestamp)))
	}
}

// writeHistory is the only goroutine touching the store.
func (s *Session) writeHistory(done chan<- struct{}) {
	defer close(done)
	for e := range s.hist {
		err := s.store.Append(e)
		if err != nil {
			monitoring.Logf("history append failed: %v", err)
		}
		_ = s.post(historyResult{err: err})
	}
}

func (s *Session) handleTargetAddress(ctx context.Context, address string) {
	address = strings.TrimSpace(address)
	if address == "" {
		s.report(failure(ReportInvalidInput, ErrInvalidInput, "Enter an address", nil))
		return
	}

	s.lookupSeq++
	seq := s.lookupSeq
	s.launch(func() event {
		places, err := s.geocoder.Forward(ctx, address)
		res := geocodeResult{seq: seq, query: address, err: err}
		if err == nil && len(places) > 0 {
			p := places[0]
			res.found = true
			res.coordinate = p.Coordinate
			res.label = p.Label()
			if res.label == "" {
				res.label = address
			}
		}
		return res
	})
}

func (s *Session) handleTargetPosition(ctx context.Context, c nav.Coordinate) {
	if !c.Valid() {
		s.report(failure(ReportInvalidInput, ErrInvalidInput, "Invalid map position", fmt.Errorf("coordinate %v out of range", c)))
		return
	}

	s.lookupSeq++
	seq := s.lookupSeq
	s.launch(func() event {
		res := geocodeResult{seq: seq, coordinate: c, found: true, label: DefaultTargetLabel}
		lines, err := s.geocoder.Reverse(ctx, c)
		switch {
		case err != nil:
			monitoring.Logf("Debug: reverse geocoding %v failed, using default label: %v", c, err)
		case len(lines) > 0 && strings.TrimSpace(lines[0]) != "":
			res.label = lines[0]
		}
		return res
	})
}

func (s *Session) mergeGeocode(ctx context.Context, res geocodeResult) {
	if res.seq < s.appliedSeq {
		monitoring.Logf("Debug: discarding geocode result %d older than current target %d", res.seq, s.appliedSeq)
		return
	}
	if res.err != nil {
		s.report(failure(ReportLookupFailed, ErrLookupFailed, "Geocoding failed", res.err))
		return
	}
	if !res.found {
		s.report(failure(ReportNotFound, ErrNotFound, "Address not found", fmt.Errorf("no results for %q", res.query)))
		return
	}
	if !res.coordinate.Valid() {
		s.report(failure(ReportLookupFailed, ErrLookupFailed, "Geocoding failed",
			fmt.Errorf("result %v for %q out of range", res.coordinate, res.query)))
		return
	}
	s.applyTarget(ctx, res.seq, res.coordinate, res.label)
}

func (s *Session) applyTarget(ctx context.Context, seq uint64, c nav.Coordinate, label string) {
	s.appliedSeq = seq

	if s.target != nil {
		s.canvas.ClearMarker(MarkerTarget)
	}
	s.target = &target{
		id:     uuid.New(),
		marker: PlaceMarker{Coordinate: c, Label: label, Kind: MarkerTarget},
	}
	s.canvas.SetMarker(MarkerTarget, c, label)

	if s.route != nil {
		s.route = nil
		s.canvas.ClearRoute()
	}
	s.routing = RoutingTargetSet
	s.canvas.CenterOn(c, s.opts.TargetZoom)

	if s.current != nil {
		d := nav.Distance(s.current.Coordinate, c)
		s.report(Report{Kind: ReportInfo, Message: "Distance: " + nav.FormatDistance(d)})
	}

	s.requestRoute(ctx)
}

func (s *Session) requestRoute(ctx context.Context) {
	if s.current == nil || s.target == nil {
		s.report(failure(ReportNoCurrentPosition, ErrNoCurrentPosition, "No current location yet", nil))
		return
	}

	s.routeSeq++
	seq := s.routeSeq
	origin := s.current.Coordinate
	destination := s.target.marker.Coordinate
	s.routing = RoutingTargetSet

	s.launch(func() event {
		r, err := s.router.Route(ctx, origin, destination)
		return routeResult{seq: seq, route: r, err: err}
	})
}

func (s *Session) mergeRoute(res routeResult) {
	// Every target change issues a new request, so the sequence alone
	// identifies results for a superseded target.
	if s.target == nil || res.seq != s.routeSeq {
		monitoring.Logf("Debug: discarding route result %d, current request is %d", res.seq, s.routeSeq)
		return
	}

	if res.err == nil && len(res.route.Points) < 2 {
		res.err = fmt.Errorf("%w: route has %d points", nav.ErrRouteUnavailable, len(res.route.Points))
	}
	if res.err != nil {
		if s.route != nil {
			s.route = nil
			s.canvas.ClearRoute()
		}
		s.routing = RoutingTargetSet
		s.report(failure(ReportRouteUnavailable, ErrRouteUnavailable, "Route unavailable", res.err))
		return
	}

	r := res.route
	s.route = &r
	s.routing = RoutingRouteReady
	s.canvas.DrawRoute(r.Points, RouteColor(s.ambient.Mode()), s.opts.RouteWidth)
	monitoring.Logf("Debug: route ready: %s, %s, %d points",
		nav.FormatDistance(r.DistanceMeters), nav.FormatDuration(r.DurationSeconds), len(r.Points))
}

func (s *Session) routePoints() []nav.Coordinate {
	if s.route == nil {
		return nil
	}
	return s.route.Points
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		State:    s.state,
		Routing:  s.routing,
		Mode:     s.ambient.Mode(),
		InFlight: s.pending,
	}
	if s.current != nil {
		c := *s.current
		snap.Current = &c
	}
	if s.currentMarker != nil {
		m := *s.currentMarker
		snap.CurrentMarker = &m
	}
	if s.target != nil {
		m := s.target.marker
		snap.Target = &m
		snap.TargetID = s.target.id
	}
	if s.route != nil {
		r := *s.route
		r.Points = append([]nav.Coordinate(nil), s.route.Points...)
		snap.Route = &r
	}
	return snap
}
