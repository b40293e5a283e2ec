package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xmikolay/trip-planner-app/internal/domain"
)

// listItinerary handles GET /trips/{tripID}/itinerary.
func (s *Server) listItinerary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	stream := s.repo.GetItineraryItemsForTrip(tripID)
	defer stream.Cancel()

	items, err := stream.Next(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, items)
}

// createItineraryItem handles POST /trips/{tripID}/itinerary. The parent
// trip comes from the path; a body TripID is ignored. Referential-integrity
// rejections surface as 422 with the engine's message.
func (s *Server) createItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	var item domain.ItineraryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.writeValidation(w, "request body is not a valid itinerary item")
		return
	}
	item.TripID = tripID

	created, err := s.repo.InsertItineraryItem(r.Context(), item)
	if err != nil {
		if isConstraintViolation(err) {
			s.writeValidation(w, err.Error())
			return
		}
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// deleteAllItinerary handles DELETE /trips/{tripID}/itinerary: bulk removal
// of every item for the trip. Idempotent.
func (s *Server) deleteAllItinerary(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(r, "tripID")
	if !ok {
		s.writeValidation(w, "trip id must be a positive integer")
		return
	}

	if err := s.repo.DeleteAllItemsForTrip(r.Context(), tripID); err != nil {
		s.writeInternal(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getItineraryItem handles GET /itinerary/{itemID}.
func (s *Server) getItineraryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "itemID")
	if !ok {
		s.writeValidation(w, "item id must be a positive integer")
		return
	}

	stream := s.repo.GetItineraryItemByID(id)
	defer stream.Cancel()

	item, err := stream.Next(r.Context())
	if err != nil {
		s.writeInternal(w, err)
		return
	}
	if item == nil {
		s.writeNotFound(w, "itinerary item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

// updateItineraryItem handles PUT /itinerary/{itemID}.
func (s *Server) updateItineraryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "itemID")
	if !ok {
		s.writeValidation(w, "item id must be a positive integer")
		return
	}

	var item domain.ItineraryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.writeValidation(w, "request body is not a valid itinerary item")
		return
	}
	item.ID = id

	if err := s.repo.UpdateItineraryItem(r.Context(), item); err != nil {
		if isConstraintViolation(err) {
			s.writeValidation(w, err.Error())
			return
		}
		s.writeInternal(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

// deleteItineraryItem handles DELETE /itinerary/{itemID}. Idempotent.
func (s *Server) deleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "itemID")
	if !ok {
		s.writeValidation(w, "item id must be a positive integer")
		return
	}

	if err := s.repo.DeleteItineraryItem(r.Context(), domain.ItineraryItem{ID: id}); err != nil {
		s.writeInternal(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
