// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (trip.go, itinerary.go, state.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/storage"
)

// TripsRepository defines the repository operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". The service.Trips
// façade satisfies it.
type TripsRepository interface {
	GetAllTrips() *storage.Stream[[]domain.Trip]
	GetTripByID(id int64) *storage.Stream[*domain.Trip]
	InsertTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	UpdateTrip(ctx context.Context, trip domain.Trip) error
	DeleteTrip(ctx context.Context, trip domain.Trip) error
	GetItineraryItemsForTrip(tripID int64) *storage.Stream[[]domain.ItineraryItem]
	GetItineraryItemByID(id int64) *storage.Stream[*domain.ItineraryItem]
	InsertItineraryItem(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	UpdateItineraryItem(ctx context.Context, item domain.ItineraryItem) error
	DeleteItineraryItem(ctx context.Context, item domain.ItineraryItem) error
	DeleteAllItemsForTrip(ctx context.Context, tripID int64) error
}

// StateHolder defines the UI-state operations exposed over HTTP.
type StateHolder interface {
	Snapshot() domain.UIState
	SelectTrip(trip domain.Trip)
	ClearError()
}

// Server holds the dependencies shared by all HTTP handlers.
type Server struct {
	repo  TripsRepository
	state StateHolder
	log   *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(repo TripsRepository, state StateHolder, log *slog.Logger) *Server {
	return &Server{repo: repo, state: state, log: log}
}

// Router returns the chi router with all API routes registered.
// Cross-cutting middleware (request IDs, logging, CORS) is applied by the
// caller so tests can exercise routes without it.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.getHealth)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.listTrips)
		r.Post("/", s.createTrip)
		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.getTrip)
			r.Put("/", s.updateTrip)
			r.Delete("/", s.deleteTrip)
			r.Get("/map", s.getTripMap)
			r.Get("/itinerary", s.listItinerary)
			r.Post("/itinerary", s.createItineraryItem)
			r.Delete("/itinerary", s.deleteAllItinerary)
		})
	})

	r.Route("/itinerary/{itemID}", func(r chi.Router) {
		r.Get("/", s.getItineraryItem)
		r.Put("/", s.updateItineraryItem)
		r.Delete("/", s.deleteItineraryItem)
	})

	r.Route("/state", func(r chi.Router) {
		r.Get("/", s.getState)
		r.Post("/select/{tripID}", s.selectTrip)
		r.Post("/clear-error", s.clearError)
	})

	return r
}

// getHealth handles GET /healthz.
// It returns HTTP 200 with {"status":"ok"} when the server is running.
func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
