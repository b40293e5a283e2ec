// Package geo synthesizes deterministic map coordinates for trips and
// itinerary items. There is no real geocoding: trip locations resolve against
// a small fixed city table, and itinerary markers are spread in a circle
// around the trip's base coordinates so they stay distinguishable on a map.
package geo

import (
	"math"
	"strings"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// markerRadius and markerStepDegrees control the circular spread of
// itinerary markers around the trip's base location.
const (
	markerRadius      = 0.05
	markerStepDegrees = 60.0
)

var cities = []struct {
	names []string
	pos   LatLng
}{
	{[]string{"Krakow", "Cracow"}, LatLng{50.0647, 19.9450}},
	{[]string{"Dublin"}, LatLng{53.3498, -6.2603}},
	{[]string{"Paris"}, LatLng{48.8566, 2.3522}},
	{[]string{"London"}, LatLng{51.5074, -0.1278}},
	{[]string{"New York"}, LatLng{40.7128, -74.0060}},
	{[]string{"Tokyo"}, LatLng{35.6762, 139.6503}},
	{[]string{"Barcelona"}, LatLng{41.3851, 2.1734}},
	{[]string{"Rome"}, LatLng{41.9028, 12.4964}},
	{[]string{"Berlin"}, LatLng{52.5200, 13.4050}},
	{[]string{"Amsterdam"}, LatLng{52.3676, 4.9041}},
}

// CityLatLng returns the base coordinates for a trip location string.
// Matching is a case-insensitive substring check against the city table;
// unknown locations fall back to (0, 0).
func CityLatLng(location string) LatLng {
	for _, city := range cities {
		for _, name := range city.names {
			if containsFold(location, name) {
				return city.pos
			}
		}
	}
	return LatLng{}
}

// MarkerLatLng returns approximate coordinates for the index-th itinerary
// item of a trip based at tripLocation. Markers are placed on a circle of
// radius 0.05 degrees in 60-degree steps, so the seventh marker coincides
// with the first.
func MarkerLatLng(tripLocation string, index int) LatLng {
	base := CityLatLng(tripLocation)
	angle := float64(index) * markerStepDegrees * math.Pi / 180.0
	return LatLng{
		Lat: base.Lat + markerRadius*math.Cos(angle),
		Lng: base.Lng + markerRadius*math.Sin(angle),
	}
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
