package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/geo"
)

// listTrips handles GET /trips.
// It takes a single emission from the live trip-list subscription and
// releases it: the HTTP surface is one-shot, push updates stay internal.
func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	stream := s.repo.GetAllTrips()
	defer stream.Cancel()

	trips, err := stream.Next(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trips)
}

// createTrip handles POST /trips.
func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	var trip domain.Trip
	if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
		s.writeValidation(w, "request body is not a valid trip")
		return
	}

	created, err := s.repo.InsertTrip(r.Context(), trip)
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// getTrip handles GET /trips/{tripID}.
func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	stream := s.repo.GetTripByID(id)
	defer stream.Cancel()

	trip, err := stream.Next(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	if trip == nil {
		s.writeNotFound(w, "trip not found")
		return
	}
	s.writeJSON(w, http.StatusOK, trip)
}

// updateTrip handles PUT /trips/{tripID}. The path ID wins over any ID in
// the body; the write is a full-record replace.
func (s *Server) updateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	var trip domain.Trip
	if err := json.NewDecoder(r.Body).Decode(&trip); err != nil {
		s.writeValidation(w, "request body is not a valid trip")
		return
	}
	trip.ID = id

	if err := s.repo.UpdateTrip(r.Context(), trip); err != nil {
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, trip)
}

// deleteTrip handles DELETE /trips/{tripID}. Deleting a missing trip is a
// no-op, so this always returns 204 unless the engine itself fails.
func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	if err := s.repo.DeleteTrip(r.Context(), domain.Trip{ID: id}); err != nil {
		s.writeInternal(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tripMarker pairs an itinerary item with its synthesized map position.
type tripMarker struct {
	Item     domain.ItineraryItem `json:"item"`
	Position geo.LatLng           `json:"position"`
}

// tripMap is the response body for GET /trips/{tripID}/map.
type tripMap struct {
	Center  geo.LatLng   `json:"center"`
	Markers []tripMarker `json:"markers"`
}

// getTripMap handles GET /trips/{tripID}/map: the trip's base coordinates
// plus one marker per itinerary item, spread in a circle around the base.
func (s *Server) getTripMap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	tripStream := s.repo.GetTripByID(id)
	defer tripStream.Cancel()
	trip, err := tripStream.Next(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	if trip == nil {
		s.writeNotFound(w, "trip not found")
		return
	}

	itemStream := s.repo.GetItineraryItemsForTrip(id)
	defer itemStream.Cancel()
	items, err := itemStream.Next(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}

	result := tripMap{Center: geo.CityLatLng(trip.Location), Markers: []tripMarker{}}
	for i, item := range items {
		result.Markers = append(result.Markers, tripMarker{
			Item:     item,
			Position: geo.MarkerLatLng(trip.Location, i),
		})
	}
	s.writeJSON(w, http.StatusOK, result)
}

// isConstraintViolation reports whether err is a referential-integrity
// rejection that should surface as a 422 rather than a 500.
func isConstraintViolation(err error) bool {
	return errors.Is(err, domain.ErrConstraintViolation)
}
