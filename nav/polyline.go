package nav

import (
	"fmt"
	"math"
)

// decodePolyline decodes an encoded polyline string at the given precision
// (number of decimal digits) into coordinates.
func decodePolyline(encoded string, precision int) ([]Coordinate, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)

	lat, lng := 0, 0
	var points []Coordinate
	index := 0

	next := func() (int, error) {
		// Consume varint bits until we run out
		b := 0x20
		shift, result := 0, 0
		for b >= 0x20 {
			if index >= len(encoded) {
				return 0, fmt.Errorf("truncated polyline at byte %d", index)
			}
			b = int(encoded[index]) - 63
			result |= (b & 0x1f) << shift
			shift += 5
			index++
		}
		// check if we need to go negative or not
		if (result & 1) > 0 {
			return ^(result >> 1), nil
		}
		return result >> 1, nil
	}

	for index < len(encoded) {
		dLat, err := next()
		if err != nil {
			return nil, err
		}
		dLng, err := next()
		if err != nil {
			return nil, err
		}
		lat += dLat
		lng += dLng
		points = append(points, Coordinate{
			Lat: float64(lat) / factor,
			Lon: float64(lng) / factor,
		})
	}

	return points, nil
}
