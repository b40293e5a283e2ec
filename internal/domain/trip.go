// Package domain contains the core data types for the trip planner.
// This package has zero external dependencies and is imported by every other
// internal package (storage, repo, service, state, handler).
package domain

// Trip represents a single planned journey.
// A trip is the top-level aggregate; itinerary items belong to a trip.
//
// Dates are stored as opaque display strings (e.g. "Nov 26, 2025"), never
// parsed into a calendar type. List ordering compares them lexicographically,
// which is only reliable within a month, a known limitation carried over
// deliberately from the source data model.
type Trip struct {
	// ID is assigned by the database on first insert. Zero means "not yet
	// assigned"; inserting a trip with a non-zero ID replaces any existing
	// row with that ID.
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
