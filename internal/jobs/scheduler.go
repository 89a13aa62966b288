package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"unimart/internal/events"
	"unimart/internal/models"
	"unimart/internal/service"
)

// PendingLister is satisfied by *service.ListingService.
type PendingLister interface {
	ListPendingForAdmin(ctx context.Context) ([]models.OwnedListing, error)
}

type Scheduler struct {
	cron     *cron.Cron
	spec     string
	listings PendingLister
	events   service.EventPublisher
	log      zerolog.Logger
}

func NewScheduler(spec string, listings PendingLister, publisher service.EventPublisher, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		spec:     spec,
		listings: listings,
		events:   publisher,
		log:      log,
	}
}

// Start registers the review reminder and starts the cron loop. It is a
// no-op when no spec or publisher is configured.
func (s *Scheduler) Start() error {
	if s.spec == "" || s.events == nil {
		s.log.Info().Msg("review reminder disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.remind); err != nil {
		return fmt.Errorf("schedule review reminder %q: %w", s.spec, err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits up to five seconds for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("review reminder still running at shutdown")
	}
}

func (s *Scheduler) remind() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.RemindPending(ctx); err != nil {
		s.log.Error().Err(err).Msg("review reminder failed")
	}
}

// RemindPending publishes a review reminder when listings await review and
// returns how many do.
func (s *Scheduler) RemindPending(ctx context.Context) (int, error) {
	pending, err := s.listings.ListPendingForAdmin(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pending listings: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	err = s.events.Publish(ctx, events.Event{
		Type:    events.ReviewReminder,
		Pending: len(pending),
	})
	if err != nil {
		return len(pending), err
	}

	s.log.Info().Int("pending", len(pending)).Msg("review reminder published")
	return len(pending), nil
}
