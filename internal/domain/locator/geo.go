// Package locator finds hospitals and pharmacies near a position.
package locator

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Position is a WGS84 coordinate.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DefaultPosition is used when the caller does not supply one (Mumbai).
var DefaultPosition = Position{Lat: 19.0760, Lng: 72.8777}

// Valid reports whether the coordinate is within range.
func (p Position) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// Distance returns the haversine distance between a and b in kilometres.
func Distance(a, b Position) float64 {
	dLat := deg2rad(b.Lat - a.Lat)
	dLon := deg2rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(a.Lat))*math.Cos(deg2rad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// TravelMinutes estimates travel time at three minutes per kilometre.
func TravelMinutes(km float64) int {
	return int(math.Round(km * 3))
}

// DirectionsURL links to OpenStreetMap directions from one position to another.
func DirectionsURL(from, to Position) string {
	f := func(v float64) string { return url.QueryEscape(strconv.FormatFloat(v, 'f', -1, 64)) }
	return fmt.Sprintf("https://www.openstreetmap.org/directions?from=%s,%s&to=%s,%s",
		f(from.Lat), f(from.Lng), f(to.Lat), f(to.Lng))
}
