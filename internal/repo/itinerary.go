package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/storage"
)

// ItineraryRepo defines the persistence operations for ItineraryItems.
type ItineraryRepo interface {
	// ForTrip returns a live subscription to all items of a trip, ordered by
	// date then time ascending (raw string order).
	ForTrip(tripID int64) *storage.Stream[[]domain.ItineraryItem]

	// ByID returns a live subscription to a single item; emits nil when no
	// item with that ID exists.
	ByID(id int64) *storage.Stream[*domain.ItineraryItem]

	// Insert upserts an item and returns the persisted record. Returns
	// domain.ErrConstraintViolation if item.TripID references no existing
	// trip; storage is left unchanged in that case.
	Insert(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)

	// Update fully replaces the record keyed by item.ID (upsert semantics).
	// Subject to the same referential check as Insert.
	Update(ctx context.Context, item domain.ItineraryItem) error

	// Delete removes an item; deleting a missing item is a no-op.
	Delete(ctx context.Context, item domain.ItineraryItem) error

	// DeleteAllForTrip removes every item belonging to the trip. Idempotent:
	// a trip with no items is a no-op.
	DeleteAllForTrip(ctx context.Context, tripID int64) error
}

// sqliteItineraryRepo is the SQLite implementation of ItineraryRepo.
type sqliteItineraryRepo struct {
	db *storage.DB
}

// NewItineraryRepo constructs an ItineraryRepo backed by the provided storage engine.
func NewItineraryRepo(db *storage.DB) ItineraryRepo {
	return &sqliteItineraryRepo{db: db}
}

func (r *sqliteItineraryRepo) ForTrip(tripID int64) *storage.Stream[[]domain.ItineraryItem] {
	const q = `
		SELECT id, trip_id, name, location, date, time, notes
		FROM itinerary_items
		WHERE trip_id = ?
		ORDER BY date ASC, time ASC`

	return storage.Observe(r.db, []string{tableItineraryItems}, func(ctx context.Context) ([]domain.ItineraryItem, error) {
		rows, err := r.db.Query(ctx, q, tripID)
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ForTrip: %w", err)
		}
		defer rows.Close()

		items := []domain.ItineraryItem{}
		for rows.Next() {
			item, err := scanItineraryItem(rows)
			if err != nil {
				return nil, fmt.Errorf("repo.ItineraryRepo.ForTrip: scan: %w", err)
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ForTrip: rows: %w", err)
		}
		return items, nil
	})
}

func (r *sqliteItineraryRepo) ByID(id int64) *storage.Stream[*domain.ItineraryItem] {
	const q = `
		SELECT id, trip_id, name, location, date, time, notes
		FROM itinerary_items
		WHERE id = ?`

	return storage.Observe(r.db, []string{tableItineraryItems}, func(ctx context.Context) (*domain.ItineraryItem, error) {
		item, err := scanItineraryItem(r.db.QueryRow(ctx, q, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("repo.ItineraryRepo.ByID: %w", err)
		}
		return &item, nil
	})
}

func (r *sqliteItineraryRepo) Insert(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error) {
	err := r.db.Write(ctx, []string{tableItineraryItems}, func(tx *sql.Tx) error {
		if item.ID == 0 {
			res, err := tx.ExecContext(ctx, `
				INSERT INTO itinerary_items (trip_id, name, location, date, time, notes)
				VALUES (?, ?, ?, ?, ?, ?)`,
				item.TripID, item.Name, item.Location, item.Date, item.Time, item.Notes)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			item.ID = id
			return nil
		}
		return upsertItineraryItem(ctx, tx, item)
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ItineraryItem{}, fmt.Errorf(
				"repo.ItineraryRepo.Insert: %w: no trip with id %d", domain.ErrConstraintViolation, item.TripID)
		}
		return domain.ItineraryItem{}, fmt.Errorf("repo.ItineraryRepo.Insert: %w", err)
	}
	return item, nil
}

func (r *sqliteItineraryRepo) Update(ctx context.Context, item domain.ItineraryItem) error {
	err := r.db.Write(ctx, []string{tableItineraryItems}, func(tx *sql.Tx) error {
		return upsertItineraryItem(ctx, tx, item)
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf(
				"repo.ItineraryRepo.Update: %w: no trip with id %d", domain.ErrConstraintViolation, item.TripID)
		}
		return fmt.Errorf("repo.ItineraryRepo.Update: %w", err)
	}
	return nil
}

func (r *sqliteItineraryRepo) Delete(ctx context.Context, item domain.ItineraryItem) error {
	err := r.db.Write(ctx, []string{tableItineraryItems}, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM itinerary_items WHERE id = ?`, item.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.Delete: %w", err)
	}
	return nil
}

func (r *sqliteItineraryRepo) DeleteAllForTrip(ctx context.Context, tripID int64) error {
	err := r.db.Write(ctx, []string{tableItineraryItems}, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM itinerary_items WHERE trip_id = ?`, tripID)
		return err
	})
	if err != nil {
		return fmt.Errorf("repo.ItineraryRepo.DeleteAllForTrip: %w", err)
	}
	return nil
}

// upsertItineraryItem writes a full item record keyed by its non-zero ID.
func upsertItineraryItem(ctx context.Context, tx *sql.Tx, item domain.ItineraryItem) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO itinerary_items (id, trip_id, name, location, date, time, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			trip_id  = excluded.trip_id,
			name     = excluded.name,
			location = excluded.location,
			date     = excluded.date,
			time     = excluded.time,
			notes    = excluded.notes`,
		item.ID, item.TripID, item.Name, item.Location, item.Date, item.Time, item.Notes)
	return err
}

// isForeignKeyViolation reports whether err is the engine rejecting a write
// that references a missing parent row.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3lib.SQLITE_CONSTRAINT:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

// scanItineraryItem maps a single database row into a domain.ItineraryItem.
func scanItineraryItem(s scanner) (domain.ItineraryItem, error) {
	var item domain.ItineraryItem
	err := s.Scan(&item.ID, &item.TripID, &item.Name, &item.Location, &item.Date, &item.Time, &item.Notes)
	if err != nil {
		return domain.ItineraryItem{}, err
	}
	return item, nil
}
