package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParsePosition accepts either a numeric latitude/longitude pair or a single
// "lat, lng" string in the latitude field. In the string form the longitude
// field is ignored.
func ParsePosition(lat, lng json.RawMessage) (GeoPoint, error) {
	lat = bytes.TrimSpace(lat)
	lng = bytes.TrimSpace(lng)
	if len(lat) == 0 || bytes.Equal(lat, []byte("null")) {
		return GeoPoint{}, fmt.Errorf("%w: missing latitude", ErrMalformedRecord)
	}

	if lat[0] == '"' {
		var s string
		if err := json.Unmarshal(lat, &s); err != nil {
			return GeoPoint{}, fmt.Errorf("%w: latitude: %v", ErrMalformedRecord, err)
		}
		return parsePair(s)
	}

	var p GeoPoint
	if err := json.Unmarshal(lat, &p.Lat); err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude is neither number nor string", ErrMalformedRecord)
	}
	if len(lng) == 0 || bytes.Equal(lng, []byte("null")) {
		return GeoPoint{}, fmt.Errorf("%w: missing longitude", ErrMalformedRecord)
	}
	if err := json.Unmarshal(lng, &p.Lon); err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude is not a number", ErrMalformedRecord)
	}
	return checkRange(p)
}

func parsePair(s string) (GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: coordinate string %q is not \"lat, lng\"", ErrMalformedRecord, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrMalformedRecord, parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrMalformedRecord, parts[1])
	}
	return checkRange(GeoPoint{Lat: lat, Lon: lng})
}

func checkRange(p GeoPoint) (GeoPoint, error) {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.Abs(p.Lat) > 90 || math.Abs(p.Lon) > 180 {
		return GeoPoint{}, fmt.Errorf("%w: coordinates (%v, %v) out of range", ErrMalformedRecord, p.Lat, p.Lon)
	}
	return p, nil
}
