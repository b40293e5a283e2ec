// Package state owns the UI-facing state snapshot. The Holder is the only
// component presentation code talks to: it serializes all mutating commands
// through one loop goroutine, keeps the snapshot consistent with durable
// storage via the repository's live subscriptions, and converts write
// failures into a dismissible error message instead of letting them escape.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/storage"
)

// TripsRepository defines the repository operations the Holder depends on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets holder
// tests inject a failing repository without touching the database.
type TripsRepository interface {
	GetAllTrips() *storage.Stream[[]domain.Trip]
	GetItineraryItemsForTrip(tripID int64) *storage.Stream[[]domain.ItineraryItem]
	InsertTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	UpdateTrip(ctx context.Context, trip domain.Trip) error
	DeleteTrip(ctx context.Context, trip domain.Trip) error
	InsertItineraryItem(ctx context.Context, item domain.ItineraryItem) (domain.ItineraryItem, error)
	UpdateItineraryItem(ctx context.Context, item domain.ItineraryItem) error
	DeleteItineraryItem(ctx context.Context, item domain.ItineraryItem) error
}

// Holder owns the UIState snapshot and the live subscriptions feeding it.
//
// All commands and subscription callbacks run on a single loop goroutine;
// the few synchronous operations (SelectTrip, ClearError) mutate under the
// same lock the swap uses. The snapshot itself is immutable: every
// change builds a new value, and mutation commands never touch the list
// fields directly. Lists only change when the storage engine pushes a fresh
// query result, so what the UI shows always matches durable state.
type Holder struct {
	repo TripsRepository
	log  *slog.Logger

	ctx       context.Context
	cancelCtx context.CancelFunc
	cmds      chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	snap    domain.UIState
	updates chan domain.UIState
	closed  bool

	// wantItems is the trip ID whose items the snapshot should reflect.
	// Guarded by mu and written in the same critical section as the cursor
	// update, so an item emission checking it under mu either sees the new
	// selection and drops itself, or applies strictly before the cursor moves.
	wantItems int64

	// Owned by the loop goroutine.
	trips *storage.Stream[[]domain.Trip]
	items *storage.Stream[[]domain.ItineraryItem]
}

// New constructs a Holder, starts its command loop, and issues the initial
// LoadTrips, mirroring construction-time loading in the UI contract.
func New(repo TripsRepository, log *slog.Logger) *Holder {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Holder{
		repo:      repo,
		log:       log,
		ctx:       ctx,
		cancelCtx: cancel,
		cmds:      make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		snap: domain.UIState{
			TripList:       []domain.Trip{},
			ItineraryItems: []domain.ItineraryItem{},
		},
		updates: make(chan domain.UIState, 1),
	}
	go h.loop()
	h.LoadTrips()
	return h
}

// Snapshot returns the current immutable UI state.
func (h *Holder) Snapshot() domain.UIState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Updates delivers snapshots as they change. The channel coalesces: a reader
// that falls behind sees the latest snapshot, not every intermediate one.
// It is closed when the Holder is closed.
func (h *Holder) Updates() <-chan domain.UIState {
	return h.updates
}

// LoadTrips (re)subscribes to the full trip list. It runs once at
// construction; calling it again is safe, just redundant.
func (h *Holder) LoadTrips() {
	h.post(h.loadTripsCmd)
}

// LoadItineraryItems (re)subscribes to the items of the given trip,
// cancelling any prior itinerary subscription.
func (h *Holder) LoadItineraryItems(tripID int64) {
	h.mu.Lock()
	h.wantItems = tripID
	h.mu.Unlock()
	h.post(func() { h.loadItineraryCmd(tripID) })
}

// SelectTrip sets the current-trip cursor immediately and switches the
// itinerary subscription over to the selected trip. The cursor, the item-list
// reset and wantItems all change in one critical section: the snapshot never
// pairs the new trip with a previous trip's items, it shows an empty list
// until the new subscription delivers.
func (h *Holder) SelectTrip(trip domain.Trip) {
	h.setState(func(s domain.UIState) domain.UIState {
		h.wantItems = trip.ID
		t := trip
		s.CurrentTrip = &t
		s.ItineraryItems = []domain.ItineraryItem{}
		return s
	})
	h.post(func() { h.loadItineraryCmd(trip.ID) })
}

// AddTrip persists a new trip. On failure the error is converted to the
// snapshot's ErrorMessage; on success the trip list refreshes through the
// live subscription.
func (h *Holder) AddTrip(trip domain.Trip) {
	h.post(func() {
		if _, err := h.repo.InsertTrip(h.ctx, trip); err != nil {
			h.fail("add trip", err)
		}
	})
}

// UpdateTrip persists changes to an existing trip.
func (h *Holder) UpdateTrip(trip domain.Trip) {
	h.post(func() {
		if err := h.repo.UpdateTrip(h.ctx, trip); err != nil {
			h.fail("update trip", err)
		}
	})
}

// DeleteTrip removes a trip; its itinerary items go with it.
func (h *Holder) DeleteTrip(trip domain.Trip) {
	h.post(func() {
		if err := h.repo.DeleteTrip(h.ctx, trip); err != nil {
			h.fail("delete trip", err)
		}
	})
}

// AddItineraryItem persists a new itinerary item.
func (h *Holder) AddItineraryItem(item domain.ItineraryItem) {
	h.post(func() {
		if _, err := h.repo.InsertItineraryItem(h.ctx, item); err != nil {
			h.fail("add itinerary item", err)
		}
	})
}

// UpdateItineraryItem persists changes to an existing itinerary item.
func (h *Holder) UpdateItineraryItem(item domain.ItineraryItem) {
	h.post(func() {
		if err := h.repo.UpdateItineraryItem(h.ctx, item); err != nil {
			h.fail("update itinerary item", err)
		}
	})
}

// DeleteItineraryItem removes a single itinerary item.
func (h *Holder) DeleteItineraryItem(item domain.ItineraryItem) {
	h.post(func() {
		if err := h.repo.DeleteItineraryItem(h.ctx, item); err != nil {
			h.fail("delete itinerary item", err)
		}
	})
}

// ClearError dismisses the current error message. Synchronous.
func (h *Holder) ClearError() {
	h.setState(func(s domain.UIState) domain.UIState {
		s.ErrorMessage = ""
		return s
	})
}

// Wait blocks until every command enqueued before the call has been
// processed. Intended for tests and orderly shutdown; subscription emissions
// arriving afterwards are not waited for.
func (h *Holder) Wait() {
	ack := make(chan struct{})
	h.post(func() { close(ack) })
	select {
	case <-ack:
	case <-h.done:
	}
}

// Close stops the command loop and cancels all live subscriptions.
func (h *Holder) Close() {
	h.closeOnce.Do(func() {
		h.cancelCtx()
		close(h.quit)
	})
	<-h.done
}

// loop is the single serial execution context for all commands.
func (h *Holder) loop() {
	defer close(h.done)
	for {
		select {
		case fn := <-h.cmds:
			fn()
		case <-h.quit:
			if h.trips != nil {
				h.trips.Cancel()
			}
			if h.items != nil {
				h.items.Cancel()
			}
			// Closing under mu keeps publishLocked from sending on a
			// closed channel.
			h.mu.Lock()
			h.closed = true
			close(h.updates)
			h.mu.Unlock()
			return
		}
	}
}

// post enqueues fn onto the command loop, dropping it if the Holder is closed.
func (h *Holder) post(fn func()) {
	select {
	case h.cmds <- fn:
	case <-h.quit:
	}
}

// setState replaces the snapshot with mutate's result and publishes it.
// Callable from any goroutine; mutate runs under mu and must treat its
// argument as immutable, assigning fresh values rather than modifying slices
// in place.
func (h *Holder) setState(mutate func(domain.UIState) domain.UIState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = mutate(h.snap)
	h.publishLocked(h.snap)
}

// setStateIf applies mutate only while cond holds. cond is evaluated in the
// same critical section as the snapshot swap, so the decision and the swap
// are atomic with respect to every other state change.
func (h *Holder) setStateIf(cond func() bool, mutate func(domain.UIState) domain.UIState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !cond() {
		return
	}
	h.snap = mutate(h.snap)
	h.publishLocked(h.snap)
}

// publishLocked replaces the pending snapshot on the updates channel.
// The caller must hold mu, which serializes publishers: snapshots reach the
// channel in the order they were installed, so the buffered value is always
// the newest. The drain-then-send loop terminates because mu excludes
// competing senders.
func (h *Holder) publishLocked(next domain.UIState) {
	if h.closed {
		return
	}
	for {
		select {
		case h.updates <- next:
			return
		default:
			select {
			case <-h.updates:
			default:
			}
		}
	}
}

// fail records a failed mutation in the snapshot. Nothing else changes: the
// lists keep reflecting durable storage.
func (h *Holder) fail(action string, err error) {
	h.log.Error("command failed", "action", action, "error", err)
	msg := fmt.Sprintf("Failed to %s: %v", action, err)
	h.setState(func(s domain.UIState) domain.UIState {
		s.ErrorMessage = msg
		return s
	})
}

// loadTripsCmd runs on the loop: swap the trips subscription and forward its
// emissions back onto the loop.
func (h *Holder) loadTripsCmd() {
	if h.trips != nil {
		h.trips.Cancel()
	}
	h.setState(func(s domain.UIState) domain.UIState {
		s.IsLoading = true
		return s
	})

	stream := h.repo.GetAllTrips()
	h.trips = stream

	go func() {
		for trips := range stream.C {
			trips := trips
			h.post(func() {
				if h.trips != stream {
					return // superseded by a later LoadTrips
				}
				h.setState(func(s domain.UIState) domain.UIState {
					s.TripList = trips
					s.IsLoading = false
					s.ErrorMessage = ""
					return s
				})
			})
		}
	}()
}

// loadItineraryCmd runs on the loop: cancel the previous itinerary
// subscription before starting the new one, so stale-trip items never appear
// under a newly selected trip.
func (h *Holder) loadItineraryCmd(tripID int64) {
	if h.items != nil {
		h.items.Cancel()
	}

	stream := h.repo.GetItineraryItemsForTrip(tripID)
	h.items = stream

	go func() {
		for items := range stream.C {
			items := items
			h.post(func() {
				// The pointer check drops emissions from a cancelled
				// subscription still draining.
				if h.items != stream {
					return
				}
				// The wantItems check runs inside the snapshot's critical
				// section, where SelectTrip also moves the cursor: an apply
				// that lost the race to a newer selection sees the new trip
				// ID there and drops itself.
				h.setStateIf(
					func() bool { return h.wantItems == tripID },
					func(s domain.UIState) domain.UIState {
						s.ItineraryItems = items
						return s
					},
				)
			})
		}
	}()
}
