package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	origin      = Coordinate{Lat: 4.60971, Lon: -74.08175}
	destination = Coordinate{Lat: 4.60586, Lon: -74.05641}
	shape       = []Coordinate{origin, {Lat: 4.608, Lon: -74.07}, destination}
)

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     NavConfig
		want    interface{}
		wantErr bool
	}{
		{"default is valhalla", NavConfig{ValhallaURL: "http://valhalla"}, &Valhalla{}, false},
		{"osrm", NavConfig{Router: RouterOSRM, OSRMURL: "http://osrm"}, &OSRM{}, false},
		{"valhalla without url", NavConfig{Router: RouterValhalla}, nil, true},
		{"osrm without url", NavConfig{Router: RouterOSRM, ValhallaURL: "http://valhalla"}, nil, true},
		{"unknown", NavConfig{Router: "graphhopper"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRouter(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, r)
		})
	}
}

func valhallaServer(t *testing.T, handler http.HandlerFunc) *Valhalla {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewValhalla(NavConfig{ValhallaURL: srv.URL + "/route", Mode: ModeWalking})
}

func TestValhalla_Route(t *testing.T) {
	v := valhallaServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/route", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req valhallaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pedestrian", req.Costing)
		assert.Equal(t, "kilometers", req.Units)
		require.Len(t, req.Locations, 2)
		assert.Equal(t, origin.Lat, req.Locations[0].Lat)
		assert.Equal(t, destination.Lon, req.Locations[1].Lon)

		fmt.Fprintf(w, `{"trip": {"legs": [{"shape": %q}], "summary": {"time": 1500, "length": 3.1}}}`,
			encodePolyline(shape, 6))
	})

	route, err := v.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	require.Len(t, route.Points, 3)
	for i := range shape {
		assert.InDelta(t, shape[i].Lat, route.Points[i].Lat, 1e-6)
		assert.InDelta(t, shape[i].Lon, route.Points[i].Lon, 1e-6)
	}
	assert.InDelta(t, 3100, route.DistanceMeters, 1e-6)
	assert.Equal(t, 1500.0, route.DurationSeconds)
}

func TestValhalla_DistanceFallsBackToLength(t *testing.T) {
	v := valhallaServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"trip": {"legs": [{"shape": %q}], "summary": {"time": 100}}}`, encodePolyline(shape, 6))
	})

	route, err := v.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Greater(t, route.DistanceMeters, 0.0)
	assert.InDelta(t, route.Length(), route.DistanceMeters, 1e-9)
}

func TestValhalla_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "unconnected locations",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error_code": 170, "error": "Locations are in unconnected regions", "status_code": 400}`))
			},
			want: ErrRouteUnavailable,
		},
		{
			name: "no path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error_code": 442, "error": "No path could be found for input", "status_code": 400}`))
			},
			want: ErrRouteUnavailable,
		},
		{
			name: "other provider error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error_code": 154, "error": "Path distance exceeds the max distance limit", "status_code": 400}`))
			},
			want: ErrServiceUnavailable,
		},
		{
			name: "plain server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			want: ErrServiceUnavailable,
		},
		{
			name: "no legs",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"trip": {"legs": []}}`))
			},
			want: ErrRouteUnavailable,
		},
		{
			name: "single point shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"trip": {"legs": [{"shape": %q}]}}`, encodePolyline(shape[:1], 6))
			},
			want: ErrRouteUnavailable,
		},
		{
			name: "corrupt shape",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"trip": {"legs": [{"shape": "_p~iF~ps|U_"}]}}`))
			},
			want: ErrServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valhallaServer(t, tt.handler)
			_, err := v.Route(context.Background(), origin, destination)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func osrmServer(t *testing.T, handler http.HandlerFunc) *OSRM {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOSRM(NavConfig{OSRMURL: srv.URL})
}

func TestOSRM_Route(t *testing.T) {
	o := osrmServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/-74.081750,4.609710;-74.056410,4.605860", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("overview"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		w.Write([]byte(`{"code": "Ok", "routes": [{
			"distance": 3120.5,
			"duration": 540,
			"geometry": {"type": "LineString", "coordinates": [[-74.08175, 4.60971], [-74.07, 4.608], [-74.05641, 4.60586]]}
		}]}`))
	})

	route, err := o.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, shape, route.Points)
	assert.Equal(t, 3120.5, route.DistanceMeters)
	assert.Equal(t, 540.0, route.DurationSeconds)
}

func TestOSRM_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "no route",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"code": "NoRoute", "message": "Impossible route between points"}`))
			},
			want: ErrRouteUnavailable,
		},
		{
			name: "empty routes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"code": "Ok", "routes": []}`))
			},
			want: ErrRouteUnavailable,
		},
		{
			name: "invalid query",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"code": "InvalidQuery", "message": "Query string malformed"}`))
			},
			want: ErrServiceUnavailable,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			want: ErrServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := osrmServer(t, tt.handler)
			_, err := o.Route(context.Background(), origin, destination)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
