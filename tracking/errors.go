package tracking

import (
	"errors"
	"fmt"
)

var (
	ErrStaleFix          = errors.New("stale fix")
	ErrNotFound          = errors.New("address not found")
	ErrLookupFailed      = errors.New("lookup failed")
	ErrRouteUnavailable  = errors.New("route unavailable")
	ErrNoCurrentPosition = errors.New("no current position")
	ErrPersistenceFailed = errors.New("persistence failed")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrSessionClosed is returned by session methods once Run has returned.
	ErrSessionClosed = errors.New("session closed")
)

// ReportKind classifies a Report
type ReportKind int

const (
	ReportInfo ReportKind = iota
	ReportNotFound
	ReportLookupFailed
	ReportRouteUnavailable
	ReportNoCurrentPosition
	ReportPersistenceFailed
	ReportInvalidInput
)

func (k ReportKind) String() string {
	switch k {
	case ReportInfo:
		return "info"
	case ReportNotFound:
		return "not_found"
	case ReportLookupFailed:
		return "lookup_failed"
	case ReportRouteUnavailable:
		return "route_unavailable"
	case ReportNoCurrentPosition:
		return "no_current_position"
	case ReportPersistenceFailed:
		return "persistence_failed"
	case ReportInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// Report is a single human-readable message about one event. Err is nil for
// informational reports and otherwise wraps one of the sentinel errors above.
type Report struct {
	Kind    ReportKind
	Message string
	Err     error
}

func (r Report) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", r.Kind, r.Message, r.Err)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

func failure(kind ReportKind, sentinel error, message string, cause error) Report {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %v", sentinel, cause)
	}
	return Report{Kind: kind, Message: message, Err: err}
}
