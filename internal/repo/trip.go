// Package repo contains all database access logic for the trip planner.
// Each entity has its own file with an interface and a SQLite implementation.
// Sort orders are pinned here; no business logic, only SQL and type mapping.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/storage"
)

const (
	tableTrips          = "trips"
	tableItineraryItems = "itinerary_items"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete SQLite
// implementation, which allows it to be unit-tested with a substitute.
type TripRepo interface {
	// All returns a live subscription to every trip, ordered by start_date
	// ascending (raw string order; dates are opaque display strings).
	All() *storage.Stream[[]domain.Trip]

	// ByID returns a live subscription to a single trip. It emits nil when
	// no trip with that ID exists; absence is not an error.
	ByID(id int64) *storage.Stream[*domain.Trip]

	// Insert upserts a trip and returns the persisted record. A zero ID is
	// replaced with the next unused ID; a non-zero ID replaces any existing
	// row with that ID.
	Insert(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// Update fully replaces the record keyed by trip.ID, inserting it if no
	// such row exists (upsert semantics, no error on missing).
	Update(ctx context.Context, trip domain.Trip) error

	// Delete removes the trip and, atomically, all its itinerary items via
	// the engine's cascade. Deleting a missing trip is a no-op.
	Delete(ctx context.Context, trip domain.Trip) error
}

// sqliteTripRepo is the SQLite implementation of TripRepo.
type sqliteTripRepo struct {
	db *storage.DB
}

// NewTripRepo constructs a TripRepo backed by the provided storage engine.
func NewTripRepo(db *storage.DB) TripRepo {
	return &sqliteTripRepo{db: db}
}

// All subscribes to the full trip list. The stream re-queries after every
// committed write to the trips table.
func (r *sqliteTripRepo) All() *storage.Stream[[]domain.Trip] {
	const q = `
		SELECT id, name, location, start_date, end_date
		FROM trips
		ORDER BY start_date ASC`

	return storage.Observe(r.db, []string{tableTrips}, func(ctx context.Context) ([]domain.Trip, error) {
		rows, err := r.db.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.All: %w", err)
		}
		defer rows.Close()

		trips := []domain.Trip{}
		for rows.Next() {
			t, err := scanTrip(rows)
			if err != nil {
				return nil, fmt.Errorf("repo.TripRepo.All: scan: %w", err)
			}
			trips = append(trips, t)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("repo.TripRepo.All: rows: %w", err)
		}
		return trips, nil
	})
}

// ByID subscribes to a single trip; emits nil while the trip does not exist.
func (r *sqliteTripRepo) ByID(id int64) *storage.Stream[*domain.Trip] {
	const q = `
		SELECT id, name, location, start_date, end_date
		FROM trips
		WHERE id = ?`

	return storage.Observe(r.db, []string{tableTrips}, func(ctx context.Context) (*domain.Trip, error) {
		t, err := scanTrip(r.db.QueryRow(ctx, q, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("repo.TripRepo.ByID: %w", err)
		}
		return &t, nil
	})
}

// Insert upserts a trip row and returns it with the assigned ID.
func (r *sqliteTripRepo) Insert(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	err := r.db.Write(ctx, []string{tableTrips}, func(tx *sql.Tx) error {
		if trip.ID == 0 {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO trips (name, location, start_date, end_date)
				VALUES (?, ?, ?, ?)`,
				trip.Name, trip.Location, trip.StartDate, trip.EndDate)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			trip.ID = id
			return nil
		}
		return upsertTrip(ctx, tx, trip)
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Insert: %w", err)
	}
	return trip, nil
}

// Update fully replaces the row keyed by trip.ID.
func (r *sqliteTripRepo) Update(ctx context.Context, trip domain.Trip) error {
	err := r.db.Write(ctx, []string{tableTrips}, func(tx *sql.Tx) error {
		return upsertTrip(ctx, tx, trip)
	})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Update: %w", err)
	}
	return nil
}

// Delete removes the trip row; the engine cascades to itinerary_items inside
// the same statement, so both tables are notified after the one commit.
func (r *sqliteTripRepo) Delete(ctx context.Context, trip domain.Trip) error {
	err := r.db.Write(ctx, []string{tableTrips, tableItineraryItems}, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, trip.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("repo.TripRepo.Delete: %w", err)
	}
	return nil
}

// upsertTrip writes a full trip record keyed by its non-zero ID.
func upsertTrip(ctx context.Context, tx *sql.Tx, trip domain.Trip) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trips (id, name, location, start_date, end_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name       = excluded.name,
			location   = excluded.location,
			start_date = excluded.start_date,
			end_date   = excluded.end_date`,
		trip.ID, trip.Name, trip.Location, trip.StartDate, trip.EndDate)
	return err
}

// scanner is satisfied by both *sql.Row and *sql.Rows, allowing the scan
// helpers to be reused for QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var t domain.Trip
	err := s.Scan(&t.ID, &t.Name, &t.Location, &t.StartDate, &t.EndDate)
	if err != nil {
		return domain.Trip{}, err
	}
	return t, nil
}
