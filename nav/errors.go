package nav

import "errors"

var (
	// ErrServiceUnavailable is returned when a provider cannot be reached or
	// answers with something other than a usable response.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrRouteUnavailable is returned when the routing provider has no usable
	// route between the requested locations.
	ErrRouteUnavailable = errors.New("route unavailable")
)
