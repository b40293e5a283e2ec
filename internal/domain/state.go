package domain

// UIState is the immutable snapshot exposed to presentation code.
// It is rebuilt as a whole on every change, never mutated in place, so a
// caller holding a snapshot can read it without synchronization.
type UIState struct {
	// TripList holds all trips ordered by StartDate ascending.
	TripList []Trip `json:"tripList"`
	// CurrentTrip is the trip selected for detail views, or nil. It is a
	// pure UI cursor and is not persisted.
	CurrentTrip *Trip `json:"currentTrip"`
	// ItineraryItems holds the items of CurrentTrip, ordered by Date then
	// Time ascending.
	ItineraryItems []ItineraryItem `json:"itineraryItems"`
	// IsLoading is true from construction until the first trip-list emission.
	IsLoading bool `json:"isLoading"`
	// ErrorMessage describes the most recent failed mutation, or is empty.
	ErrorMessage string `json:"errorMessage"`
}
