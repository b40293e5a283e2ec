package state_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/repo"
	"github.com/xmikolay/trip-planner-app/internal/service"
	"github.com/xmikolay/trip-planner-app/internal/state"
	"github.com/xmikolay/trip-planner-app/testutil"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newHolder wires a Holder to a real sqlite-backed façade.
func newHolder(t *testing.T) (*state.Holder, *service.Trips) {
	t.Helper()
	db := testutil.OpenDB(t)
	facade := service.NewTrips(repo.NewTripRepo(db), repo.NewItineraryRepo(db))

	h := state.New(facade, discardLogger())
	t.Cleanup(h.Close)
	return h, facade
}

func insertTrip(t *testing.T, facade *service.Trips, name, startDate string) domain.Trip {
	t.Helper()
	trip, err := facade.InsertTrip(context.Background(), domain.Trip{
		Name: name, Location: "Krakow, Poland", StartDate: startDate, EndDate: startDate,
	})
	require.NoError(t, err)
	return trip
}

func insertItem(t *testing.T, facade *service.Trips, tripID int64, name string) domain.ItineraryItem {
	t.Helper()
	item, err := facade.InsertItineraryItem(context.Background(), domain.ItineraryItem{
		TripID: tripID, Name: name, Location: "Krakow, Poland",
		Date: "Nov 27, 2025", Time: "10:00",
	})
	require.NoError(t, err)
	return item
}

func TestHolder_InitialLoadSettlesEmpty(t *testing.T) {
	h, _ := newHolder(t)

	require.Eventually(t, func() bool {
		return !h.Snapshot().IsLoading
	}, waitFor, tick, "initial trip-list emission should clear IsLoading")

	snap := h.Snapshot()
	assert.Empty(t, snap.TripList)
	assert.Nil(t, snap.CurrentTrip)
	assert.Empty(t, snap.ItineraryItems)
	assert.Empty(t, snap.ErrorMessage)
}

func TestHolder_AddTrip_AppearsViaSubscription(t *testing.T) {
	h, _ := newHolder(t)

	h.AddTrip(domain.Trip{
		Name: "Krakow Trip", Location: "Krakow, Poland",
		StartDate: "Nov 26, 2025", EndDate: "Nov 30, 2025",
	})

	require.Eventually(t, func() bool {
		return len(h.Snapshot().TripList) == 1
	}, waitFor, tick, "inserted trip should arrive through the push channel")
	assert.Equal(t, "Krakow Trip", h.Snapshot().TripList[0].Name)
}

func TestHolder_TripListOrderedByStartDate(t *testing.T) {
	h, facade := newHolder(t)

	insertTrip(t, facade, "Paris Trip", "Dec 10, 2025")
	insertTrip(t, facade, "Dublin Trip", "Dec 01, 2025")

	require.Eventually(t, func() bool {
		return len(h.Snapshot().TripList) == 2
	}, waitFor, tick)

	trips := h.Snapshot().TripList
	assert.Equal(t, "Dublin Trip", trips[0].Name)
	assert.Equal(t, "Paris Trip", trips[1].Name)
}

func TestHolder_SelectTrip_SetsCursorImmediately(t *testing.T) {
	h, facade := newHolder(t)
	trip := insertTrip(t, facade, "Krakow Trip", "Nov 26, 2025")

	h.SelectTrip(trip)

	// The cursor update is synchronous; no settling needed.
	snap := h.Snapshot()
	require.NotNil(t, snap.CurrentTrip)
	assert.Equal(t, trip, *snap.CurrentTrip)
}

func TestHolder_SelectTrip_LoadsItems(t *testing.T) {
	h, facade := newHolder(t)
	trip := insertTrip(t, facade, "Krakow Trip", "Nov 26, 2025")
	insertItem(t, facade, trip.ID, "Wawel Castle")

	h.SelectTrip(trip)

	require.Eventually(t, func() bool {
		return len(h.Snapshot().ItineraryItems) == 1
	}, waitFor, tick)
	assert.Equal(t, "Wawel Castle", h.Snapshot().ItineraryItems[0].Name)
}

// TestHolder_RapidReselect_NeverMixesTrips drives the stale-subscription
// guard: after selecting B right on the heels of A, the snapshot must never
// pair B as current trip with A's items.
func TestHolder_RapidReselect_NeverMixesTrips(t *testing.T) {
	h, facade := newHolder(t)

	tripA := insertTrip(t, facade, "Trip A", "Jan 01, 2026")
	tripB := insertTrip(t, facade, "Trip B", "Feb 01, 2026")
	insertItem(t, facade, tripA.ID, "A item")
	insertItem(t, facade, tripB.ID, "B item")

	h.SelectTrip(tripA)
	h.SelectTrip(tripB)

	deadline := time.Now().Add(waitFor)
	settled := false
	for time.Now().Before(deadline) {
		snap := h.Snapshot()
		require.NotNil(t, snap.CurrentTrip)
		require.Equal(t, tripB.ID, snap.CurrentTrip.ID)
		for _, item := range snap.ItineraryItems {
			require.Equal(t, tripB.ID, item.TripID,
				"foreign trip's items must never appear under the selected trip")
		}
		if len(snap.ItineraryItems) == 1 {
			settled = true
			break
		}
		time.Sleep(tick)
	}
	require.True(t, settled, "B's items should eventually load")
	assert.Equal(t, "B item", h.Snapshot().ItineraryItems[0].Name)
}

// TestHolder_ReselectStorm_NeverPairsMismatchedItems hammers reselection
// while item emissions land concurrently. The selection cursor and the
// wantItems guard change in one critical section, so every snapshot taken
// mid-storm must pair the current trip with its own items only.
func TestHolder_ReselectStorm_NeverPairsMismatchedItems(t *testing.T) {
	h, facade := newHolder(t)

	tripA := insertTrip(t, facade, "Trip A", "Jan 01, 2026")
	tripB := insertTrip(t, facade, "Trip B", "Feb 01, 2026")
	insertItem(t, facade, tripA.ID, "A item")
	insertItem(t, facade, tripB.ID, "B item")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for n := 0; n < 500; n++ {
			h.SelectTrip(tripA)
			h.SelectTrip(tripB)
		}
	}()

	for storming := true; storming; {
		select {
		case <-done:
			storming = false
		default:
		}
		snap := h.Snapshot()
		if snap.CurrentTrip == nil {
			continue
		}
		for _, item := range snap.ItineraryItems {
			require.Equal(t, snap.CurrentTrip.ID, item.TripID,
				"snapshot pairs trip %d with an item of trip %d",
				snap.CurrentTrip.ID, item.TripID)
		}
	}
}

// TestHolder_Updates_BufferHoldsNewestUnderContention drives publishers from
// several goroutines at once; once everything settles, the pending value on
// the updates channel must be the snapshot itself, never an older state that
// published late.
func TestHolder_Updates_BufferHoldsNewestUnderContention(t *testing.T) {
	h, facade := newHolder(t)

	tripA := insertTrip(t, facade, "Trip A", "Jan 01, 2026")
	tripB := insertTrip(t, facade, "Trip B", "Feb 01, 2026")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		trip := tripA
		if i%2 == 1 {
			trip = tripB
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				h.SelectTrip(trip)
				h.ClearError()
			}
		}()
	}
	wg.Wait()
	h.Wait()

	require.Eventually(t, func() bool {
		select {
		case snap := <-h.Updates():
			return assert.ObjectsAreEqual(h.Snapshot(), snap)
		default:
			return false
		}
	}, waitFor, tick, "pending update should converge on the latest snapshot")
}

func TestHolder_DeleteTrip_RemovesTripAndItems(t *testing.T) {
	h, facade := newHolder(t)
	trip := insertTrip(t, facade, "Krakow Trip", "Nov 26, 2025")
	insertItem(t, facade, trip.ID, "Wawel Castle")
	h.SelectTrip(trip)

	require.Eventually(t, func() bool {
		return len(h.Snapshot().TripList) == 1 && len(h.Snapshot().ItineraryItems) == 1
	}, waitFor, tick)

	h.DeleteTrip(trip)

	require.Eventually(t, func() bool {
		snap := h.Snapshot()
		return len(snap.TripList) == 0 && len(snap.ItineraryItems) == 0
	}, waitFor, tick, "cascade should empty both lists via the push channel")
}

// failingRepo wraps the real façade but rejects trip inserts, to exercise
// the holder's recovery boundary without a broken database.
type failingRepo struct {
	*service.Trips
}

func (f *failingRepo) InsertTrip(context.Context, domain.Trip) (domain.Trip, error) {
	return domain.Trip{}, errors.New("disk full")
}

func TestHolder_FailedAddTrip_SetsErrorMessageOnly(t *testing.T) {
	db := testutil.OpenDB(t)
	facade := service.NewTrips(repo.NewTripRepo(db), repo.NewItineraryRepo(db))

	h := state.New(&failingRepo{Trips: facade}, discardLogger())
	t.Cleanup(h.Close)

	require.Eventually(t, func() bool {
		return !h.Snapshot().IsLoading
	}, waitFor, tick)
	before := h.Snapshot()

	h.AddTrip(domain.Trip{Name: "Doomed", Location: "Nowhere", StartDate: "x", EndDate: "x"})
	h.Wait()

	snap := h.Snapshot()
	assert.Contains(t, snap.ErrorMessage, "Failed to add trip")
	assert.Contains(t, snap.ErrorMessage, "disk full")
	assert.Equal(t, before.TripList, snap.TripList, "a failed write must not touch the list")

	h.ClearError()
	assert.Empty(t, h.Snapshot().ErrorMessage, "ClearError is synchronous")
}

func TestHolder_Updates_DeliversLatestSnapshot(t *testing.T) {
	h, facade := newHolder(t)
	updates := h.Updates()

	insertTrip(t, facade, "Krakow Trip", "Nov 26, 2025")

	require.Eventually(t, func() bool {
		select {
		case snap, ok := <-updates:
			return ok && len(snap.TripList) == 1
		default:
			return false
		}
	}, waitFor, tick, "observers should see the post-insert snapshot")
}
