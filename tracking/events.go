package tracking

import "github.com/nwah/fujisuite-tracker/nav"

// event is anything that travels through the session queue.
type event interface{}

type fixEvent struct {
	fix LocationFix
}

type ambientEvent struct {
	lux float64
}

type targetAddressEvent struct {
	address string
}

type targetPositionEvent struct {
	coordinate nav.Coordinate
}

type routeRequestEvent struct{}

type queryEvent struct {
	reply chan<- Snapshot
}

type flushEvent struct {
	reply chan struct{}
}

// geocodeResult carries a finished forward or reverse lookup back to the worker.
type geocodeResult struct {
	seq        uint64
	query      string
	found      bool
	coordinate nav.Coordinate
	label      string
	err        error
}

type routeResult struct {
	seq   uint64
	route nav.Route
	err   error
}

type historyResult struct {
	err error
}
