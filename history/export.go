package history

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"
)

const gpxCreator = "fujisuite-tracker"

// ExportGPX renders entries as a GPX 1.1 document with a single track segment.
func ExportGPX(name string, entries []Entry) ([]byte, error) {
	segment := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(entries))}
	for _, e := range entries {
		segment.Points = append(segment.Points, gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  e.Lat,
				Longitude: e.Lon,
			},
			Timestamp: time.UnixMilli(e.Timestamp).UTC(),
		})
	}

	doc := gpx.GPX{
		Version: "1.1",
		Creator: gpxCreator,
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("encoding gpx: %w", err)
	}
	return data, nil
}

// ExportGeoJSON renders entries as a feature collection holding one Point
// feature per entry, followed by a LineString of the whole track when there
// are at least two entries.
func ExportGeoJSON(entries []Entry) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(entries))
	for i, e := range entries {
		p := orb.Point{e.Lon, e.Lat}
		line = append(line, p)

		f := geojson.NewFeature(p)
		f.Properties["seq"] = i
		f.Properties["timestamp"] = e.Timestamp
		fc.Append(f)
	}

	if len(line) >= 2 {
		track := geojson.NewFeature(line)
		track.Properties["kind"] = "track"
		fc.Append(track)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding geojson: %w", err)
	}
	return data, nil
}
