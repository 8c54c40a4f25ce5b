package nav

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// NavConfig holds navigation-specific configuration
type NavConfig struct {
	NominatimURL string        `toml:"nominatim_url" yaml:"nominatim_url" validate:"required,url"`
	ValhallaURL  string        `toml:"valhalla_url" yaml:"valhalla_url" validate:"omitempty,url"`
	OSRMURL      string        `toml:"osrm_url" yaml:"osrm_url" validate:"omitempty,url"`
	Router       RouterKind    `toml:"router" yaml:"router" validate:"omitempty,oneof=valhalla osrm"`
	Mode         TransportMode `toml:"mode" yaml:"mode" validate:"omitempty,oneof=walking biking auto"`
	UserAgent    string        `toml:"user_agent" yaml:"user_agent"`
	TimeoutMS    int           `toml:"timeout_ms" yaml:"timeout_ms" validate:"gte=0"`
}

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within the WGS84 ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// Point converts to an orb point, which is ordered lon/lat.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Place is a single forward geocoding result
type Place struct {
	Coordinate  Coordinate `json:"coordinate"`
	Name        string     `json:"name"`    // Place name or street address
	Address     string     `json:"address"` // Simplified address (street, postal code, city)
	DisplayName string     `json:"displayName"`
	Country     string     `json:"country"` // Two-letter ISO country code
}

// Label returns the best human-readable description of the place.
func (p Place) Label() string {
	switch {
	case p.Address != "":
		return p.Address
	case p.DisplayName != "":
		return p.DisplayName
	default:
		return p.Name
	}
}

// Route is a single-leg road route. Points are ordered origin to destination.
type Route struct {
	Points          []Coordinate `json:"points"`
	DistanceMeters  float64      `json:"distanceMeters"`
	DurationSeconds float64      `json:"durationSeconds"`
}

// LineString returns the route geometry as an orb line string.
func (r Route) LineString() orb.LineString {
	ls := make(orb.LineString, len(r.Points))
	for i, p := range r.Points {
		ls[i] = p.Point()
	}
	return ls
}

// Length is the geodesic length of the polyline in meters.
func (r Route) Length() float64 {
	return geo.LengthHaversine(r.LineString())
}

// GeoJSON renders the route as a feature with distance and duration properties.
func (r Route) GeoJSON() *geojson.Feature {
	f := geojson.NewFeature(r.LineString())
	f.Properties["distance_m"] = r.DistanceMeters
	f.Properties["duration_s"] = r.DurationSeconds
	return f
}
