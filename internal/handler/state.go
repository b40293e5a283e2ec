package handler

import (
	"net/http"
)

// getState handles GET /state: the current UI snapshot.
func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.state.Snapshot())
}

// selectTrip handles POST /state/select/{tripID}: set the current-trip
// cursor and switch the itinerary subscription to it. The selected trip must
// exist, because the cursor carries the full record.
func (s *Server) selectTrip(w http.ResponseWriter, r *http.Request) {
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

	s.state.SelectTrip(*trip)
	s.writeJSON(w, http.StatusOK, s.state.Snapshot())
}

// clearError handles POST /state/clear-error: dismiss the error message.
func (s *Server) clearError(w http.ResponseWriter, r *http.Request) {
	s.state.ClearError()
	s.writeJSON(w, http.StatusOK, s.state.Snapshot())
}
