// Package service contains the trips repository façade: the single entry
// point every other component uses for trip and itinerary data.
// It is stateless and forwards calls unchanged: reads hand back the repos'
// live subscriptions, writes return once the engine has acknowledged them.
// Errors pass through uncaught; the state holder is the recovery boundary.
package service

import (
	"context"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/repo"
	"github.com/xmikolay/trip-planner-app/internal/storage"
)

// Trips unifies trip and itinerary access behind one façade.
type Trips struct {
	trips     repo.TripRepo
	itinerary repo.ItineraryRepo
}

// NewTrips constructs the façade from the two access surfaces.
func NewTrips(trips repo.TripRepo, itinerary repo.ItineraryRepo) *Trips {
	return &Trips{trips: trips, itinerary: itinerary}
}

// GetAllTrips returns a live subscription to every trip, ordered by start
// date ascending.
func (s *Trips) GetAllTrips() *storage.Stream[[]domain.Trip] {
	return s.trips.All()
}

// GetTripByID returns a live subscription to one trip; emits nil when absent.
func (s *Trips) GetTripByID(id int64) *storage.Stream[*domain.Trip] {
	return s.trips.ByID(id)
}

// InsertTrip persists a trip and returns it with its assigned ID.
func (s *Trips) InsertTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	return s.trips.Insert(ctx, trip)
}

// UpdateTrip fully replaces the trip record keyed by its ID.
func (s *Trips) UpdateTrip(ctx context.Context, trip domain.Trip) error {
	return s.trips.Update(ctx, trip)
}

// DeleteTrip removes a trip and, atomically, all its itinerary items.
func (s *Trips) DeleteTrip(ctx context.Context, trip domain.Trip) error {
	return s.trips.Delete(ctx, trip)
}

// GetItineraryItemsForTrip returns a live subscription to a trip's items,
// ordered by date then time ascending.
func (s *Trips) GetItineraryItemsForTrip(tripID int64) *storage.Stream[[]domain.ItineraryItem] {
	return s.itinerary.ForTrip(tripID)
}

// GetItineraryItemByID returns a live subscription to one item; emits nil
// when absent.
func (s *Trips) GetItineraryItemByID(id int64) *storage.Stream[*domain.ItineraryItem] {
	return s.itinerary.ByID(id)
}

// InsertItineraryItem persists an item and returns it with its assigned ID.
func (s *Trips) InsertItineraryItem(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	return s.itinerary.Insert(ctx, item)
}

// UpdateItineraryItem fully replaces the item record keyed by its ID.
func (s *Trips) UpdateItineraryItem(ctx context.Context, item domain.ItineraryItem) error {
	return s.itinerary.Update(ctx, item)
}

// DeleteItineraryItem removes a single item.
func (s *Trips) DeleteItineraryItem(ctx context.Context, item domain.ItineraryItem) error {
	return s.itinerary.Delete(ctx, item)
}

// DeleteAllItemsForTrip removes every item belonging to the trip.
func (s *Trips) DeleteAllItemsForTrip(ctx context.Context, tripID int64) error {
	return s.itinerary.DeleteAllForTrip(ctx, tripID)
}
