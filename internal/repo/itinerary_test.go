package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/repo"
	"github.com/xmikolay/trip-planner-app/testutil"
)

// itineraryFixture returns an item attached to the given trip.
func itineraryFixture(tripID int64) domain.ItineraryItem {
	return domain.ItineraryItem{
		TripID:   tripID,
		Name:     "Wawel Castle",
		Location: "Krakow, Poland",
		Date:     "Nov 27, 2025",
		Time:     "10:00",
		Notes:    "Buy tickets in advance",
	}
}

// newRepos opens a fresh database and returns both access surfaces plus a
// trip already inserted for items to attach to.
func newRepos(t *testing.T) (repo.TripRepo, repo.ItineraryRepo, domain.Trip) {
	t.Helper()
	db := testutil.OpenDB(t)
	trips := repo.NewTripRepo(db)
	items := repo.NewItineraryRepo(db)

	trip, err := trips.Insert(context.Background(), tripFixture())
	require.NoError(t, err, "insert parent trip")
	return trips, items, trip
}

func TestItineraryRepo_Insert_ThenFetchByID(t *testing.T) {
	_, items, trip := newRepos(t)
	ctx := context.Background()

	created, err := items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)
	require.Positive(t, created.ID)

	got := first[*domain.ItineraryItem](t, items.ByID(created.ID))
	require.NotNil(t, got)
	assert.Equal(t, created, *got)
}

func TestItineraryRepo_Insert_UnknownTrip_ConstraintViolation(t *testing.T) {
	_, items, _ := newRepos(t)
	ctx := context.Background()

	_, err := items.Insert(ctx, itineraryFixture(999))

	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	// Storage must be left unchanged by the rejected write.
	orphans := first[[]domain.ItineraryItem](t, items.ForTrip(999))
	assert.Empty(t, orphans)
}

func TestItineraryRepo_Update_UnknownTrip_ConstraintViolation(t *testing.T) {
	_, items, trip := newRepos(t)
	ctx := context.Background()

	created, err := items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)

	created.TripID = 999
	err = items.Update(ctx, created)

	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	got := first[*domain.ItineraryItem](t, items.ByID(created.ID))
	require.NotNil(t, got)
	assert.Equal(t, trip.ID, got.TripID, "rejected update must not change the row")
}

func TestItineraryRepo_ForTrip_OrderedByDateThenTime(t *testing.T) {
	_, items, trip := newRepos(t)
	ctx := context.Background()

	evening := itineraryFixture(trip.ID)
	evening.Name = "Dinner"
	evening.Time = "19:00"

	morning := itineraryFixture(trip.ID)
	morning.Name = "Castle"
	morning.Time = "10:00"

	dayBefore := itineraryFixture(trip.ID)
	dayBefore.Name = "Arrival"
	dayBefore.Date = "Nov 26, 2025"
	dayBefore.Time = "21:00"

	for _, item := range []domain.ItineraryItem{evening, morning, dayBefore} {
		_, err := items.Insert(ctx, item)
		require.NoError(t, err)
	}

	got := first[[]domain.ItineraryItem](t, items.ForTrip(trip.ID))

	require.Len(t, got, 3)
	assert.Equal(t, "Arrival", got[0].Name)
	assert.Equal(t, "Castle", got[1].Name)
	assert.Equal(t, "Dinner", got[2].Name)
}

func TestItineraryRepo_TripDelete_CascadesToItems(t *testing.T) {
	trips, items, trip := newRepos(t)
	ctx := context.Background()

	_, err := items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)
	_, err = items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)

	require.NoError(t, trips.Delete(ctx, trip))

	remaining := first[[]domain.ItineraryItem](t, items.ForTrip(trip.ID))
	assert.Empty(t, remaining, "items must be cascade-deleted with their trip")
}

func TestItineraryRepo_TripDelete_NotifiesItemSubscribers(t *testing.T) {
	trips, items, trip := newRepos(t)
	ctx := context.Background()

	_, err := items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)

	stream := items.ForTrip(trip.ID)
	defer stream.Cancel()

	initial, err := stream.Next(ctx)
	require.NoError(t, err)
	require.Len(t, initial, 1)

	// The cascade happens inside the trip delete; the item subscription must
	// still observe the post-delete state without any direct item write.
	require.NoError(t, trips.Delete(ctx, trip))

	after, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestItineraryRepo_DeleteAllForTrip(t *testing.T) {
	_, items, trip := newRepos(t)
	ctx := context.Background()

	_, err := items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)
	_, err = items.Insert(ctx, itineraryFixture(trip.ID))
	require.NoError(t, err)

	require.NoError(t, items.DeleteAllForTrip(ctx, trip.ID))

	got := first[[]domain.ItineraryItem](t, items.ForTrip(trip.ID))
	assert.Empty(t, got)

	// Idempotent: deleting again with nothing left is still a success.
	assert.NoError(t, items.DeleteAllForTrip(ctx, trip.ID))
}

func TestItineraryRepo_Delete_Missing_NoOp(t *testing.T) {
	_, items, _ := newRepos(t)

	err := items.Delete(context.Background(), domain.ItineraryItem{ID: 1234})

	assert.NoError(t, err)
}
