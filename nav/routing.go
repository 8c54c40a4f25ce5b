package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Router computes a single-leg road route between two coordinates.
type Router interface {
	Route(ctx context.Context, origin, destination Coordinate) (Route, error)
}

// NewRouter returns the routing client selected by cfg.Router.
func NewRouter(cfg NavConfig) (Router, error) {
	kind := cfg.Router
	if kind == "" {
		kind = DefaultRouter
	}
	switch kind {
	case RouterValhalla:
		if cfg.ValhallaURL == "" {
			return nil, fmt.Errorf("nav.valhalla_url is required for router %q", kind)
		}
		return NewValhalla(cfg), nil
	case RouterOSRM:
		if cfg.OSRMURL == "" {
			return nil, fmt.Errorf("nav.osrm_url is required for router %q", kind)
		}
		return NewOSRM(cfg), nil
	default:
		return nil, fmt.Errorf("unknown router %q: must be one of: %s, %s", kind, RouterValhalla, RouterOSRM)
	}
}

type valhallaLocation struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

type valhallaRequest struct {
	Locations []valhallaLocation `json:"locations"`
	Costing   string             `json:"costing"`
	Units     string             `json:"units"`
}

type valhallaLeg struct {
	Shape string `json:"shape"`
}

type valhallaResponse struct {
	Trip struct {
		Legs    []valhallaLeg `json:"legs"`
		Summary struct {
			Time     float64 `json:"time"`
			Distance float64 `json:"length"`
		} `json:"summary"`
	} `json:"trip"`
}

type valhallaError struct {
	ErrorCode  int    `json:"error_code"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
}

// Valhalla error codes meaning the request was valid but has no route
const (
	valhallaUnconnected = 170 // locations are not connected in the network
	valhallaNoPath      = 442
)

// Valhalla routes against a Valhalla /route endpoint.
type Valhalla struct {
	url  string
	mode TransportMode
	http httpDoer
}

// NewValhalla creates a routing client posting to cfg.ValhallaURL.
func NewValhalla(cfg NavConfig) *Valhalla {
	mode := cfg.Mode
	if !mode.IsValid() {
		mode = DefaultMode
	}
	return &Valhalla{url: cfg.ValhallaURL, mode: mode, http: newHTTPDoer(cfg)}
}

// Route requests a two-point route. Provider errors are reported as
// ErrServiceUnavailable, unroutable locations and empty shapes as
// ErrRouteUnavailable.
func (v *Valhalla) Route(ctx context.Context, origin, destination Coordinate) (Route, error) {
	vReq := valhallaRequest{
		Locations: []valhallaLocation{
			{Lat: origin.Lat, Lon: origin.Lon, Type: "break"},
			{Lat: destination.Lat, Lon: destination.Lon, Type: "break"},
		},
		Costing: v.mode.valhallaCosting(),
		Units:   "kilometers",
	}

	reqBody, err := json.Marshal(vReq)
	if err != nil {
		return Route{}, fmt.Errorf("error marshaling request: %v", err)
	}

	data, status, err := v.http.do(ctx, http.MethodPost, v.url, reqBody)
	if err != nil {
		return Route{}, fmt.Errorf("valhalla: %w", err)
	}

	if status != http.StatusOK {
		var vErr valhallaError
		if err := json.Unmarshal(data, &vErr); err == nil && vErr.ErrorCode != 0 {
			switch vErr.ErrorCode {
			case valhallaUnconnected, valhallaNoPath:
				return Route{}, fmt.Errorf("%w: %s", ErrRouteUnavailable, vErr.Error)
			default:
				return Route{}, fmt.Errorf("%w: valhalla error %d: %s", ErrServiceUnavailable, vErr.ErrorCode, vErr.Error)
			}
		}
		return Route{}, fmt.Errorf("%w: valhalla returned status %d: %s", ErrServiceUnavailable, status, truncate(data))
	}

	var vResp valhallaResponse
	if err := json.Unmarshal(data, &vResp); err != nil {
		return Route{}, fmt.Errorf("%w: valhalla: decoding response: %v", ErrServiceUnavailable, err)
	}
	if len(vResp.Trip.Legs) == 0 {
		return Route{}, fmt.Errorf("%w: valhalla returned no legs", ErrRouteUnavailable)
	}

	points, err := decodePolyline(vResp.Trip.Legs[0].Shape, valhallaPrecision)
	if err != nil {
		return Route{}, fmt.Errorf("%w: valhalla shape: %v", ErrServiceUnavailable, err)
	}

	return finishRoute(points, vResp.Trip.Summary.Distance*1000, vResp.Trip.Summary.Time)
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// OSRM routes against an OSRM HTTP server.
type OSRM struct {
	baseURL string
	mode    TransportMode
	http    httpDoer
}

// NewOSRM creates a routing client for cfg.OSRMURL.
func NewOSRM(cfg NavConfig) *OSRM {
	mode := cfg.Mode
	if !mode.IsValid() {
		mode = DefaultMode
	}
	return &OSRM{baseURL: strings.TrimRight(cfg.OSRMURL, "/"), mode: mode, http: newHTTPDoer(cfg)}
}

// Route requests the full-overview GeoJSON geometry for a two-point route.
func (o *OSRM) Route(ctx context.Context, origin, destination Coordinate) (Route, error) {
	apiURL := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson",
		o.baseURL, o.mode.osrmProfile(), origin.Lon, origin.Lat, destination.Lon, destination.Lat)

	data, status, err := o.http.do(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Route{}, fmt.Errorf("osrm: %w", err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Route{}, fmt.Errorf("%w: osrm returned status %d: %s", ErrServiceUnavailable, status, truncate(data))
	}

	switch parsed.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return Route{}, fmt.Errorf("%w: %s", ErrRouteUnavailable, parsed.Message)
	default:
		return Route{}, fmt.Errorf("%w: osrm code %q (status %d): %s", ErrServiceUnavailable, parsed.Code, status, parsed.Message)
	}
	if len(parsed.Routes) == 0 {
		return Route{}, fmt.Errorf("%w: osrm returned no routes", ErrRouteUnavailable)
	}

	best := parsed.Routes[0]
	points := make([]Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		points = append(points, Coordinate{Lon: pair[0], Lat: pair[1]})
	}

	return finishRoute(points, best.Distance, best.Duration)
}

// finishRoute rejects degenerate geometries and fills in a missing distance
// from the polyline length.
func finishRoute(points []Coordinate, distanceMeters, durationSeconds float64) (Route, error) {
	if len(points) < 2 {
		return Route{}, fmt.Errorf("%w: route has %d points", ErrRouteUnavailable, len(points))
	}
	r := Route{
		Points:          points,
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
	}
	if r.DistanceMeters <= 0 {
		r.DistanceMeters = r.Length()
	}
	return r, nil
}
