// Package worker runs the periodic trip reminder job.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xmikolay/trip-planner-app/internal/domain"
	"github.com/xmikolay/trip-planner-app/internal/storage"
)

// TripsLister is the single repository operation the reminder depends on.
type TripsLister interface {
	GetAllTrips() *storage.Stream[[]domain.Trip]
}

// UpcomingFunc decides which trips count as "upcoming" at the given instant.
// It is the extension point for real reminder logic; the scan itself carries
// no date comparison because trip dates are opaque display strings.
type UpcomingFunc func(now time.Time, trips []domain.Trip) []domain.Trip

// NoUpcoming is the default UpcomingFunc: it matches nothing, keeping the
// periodic check a pure placeholder until a caller injects real logic.
func NoUpcoming(time.Time, []domain.Trip) []domain.Trip { return nil }

// Reminder periodically scans the trip list for upcoming trips.
// Each run takes a single trip-list emission and releases the subscription
// before returning; nothing is held between invocations.
type Reminder struct {
	repo     TripsLister
	log      *slog.Logger
	upcoming UpcomingFunc
	cron     *cron.Cron
}

// NewReminder constructs a Reminder. A nil upcoming falls back to NoUpcoming.
func NewReminder(repo TripsLister, log *slog.Logger, upcoming UpcomingFunc) *Reminder {
	if upcoming == nil {
		upcoming = NoUpcoming
	}
	return &Reminder{repo: repo, log: log, upcoming: upcoming}
}

// Start schedules RunOnce on the given cron spec (e.g. "@every 24h").
// Returns an error if the spec does not parse.
func (r *Reminder) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := r.RunOnce(context.Background()); err != nil {
			r.log.Error("trip reminder run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("worker.Reminder.Start: invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	r.cron = c
	r.log.Info("trip reminder scheduled", "schedule", schedule)
	return nil
}

// Stop halts the schedule. Safe to call when Start was never called.
func (r *Reminder) Stop() {
	if r.cron != nil {
		r.cron.Stop()
	}
}

// RunOnce performs one reminder scan: fetch the current trip list, apply the
// upcoming predicate, log the result. Also usable on demand, outside the
// schedule.
func (r *Reminder) RunOnce(ctx context.Context) error {
	r.log.Debug("trip reminder check started")

	stream := r.repo.GetAllTrips()
	defer stream.Cancel()

	trips, err := stream.Next(ctx)
	if err != nil {
		return fmt.Errorf("worker.Reminder.RunOnce: %w", err)
	}

	upcoming := r.upcoming(time.Now(), trips)
	for _, trip := range upcoming {
		r.log.Info("upcoming trip", "name", trip.Name, "start_date", trip.StartDate)
	}

	r.log.Debug("trip reminder check completed", "trips", len(trips), "upcoming", len(upcoming))
	return nil
}
