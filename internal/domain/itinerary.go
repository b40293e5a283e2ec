package domain

// ItineraryItem represents a scheduled activity belonging to exactly one trip.
// Date and Time follow the same opaque-string convention as Trip dates.
type ItineraryItem struct {
	// ID is assigned by the database on first insert; zero means unassigned.
	ID int64 `json:"id"`
	// TripID must reference an existing trip at insert time. Deleting the
	// trip cascades to its items.
	TripID   int64  `json:"tripId"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Notes    string `json:"notes"`
}
