package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
)

const jobTimeout = 2 * time.Minute

// LowStockNotifier sends the low-stock summary.
type LowStockNotifier interface {
	SendLowStockSummary(ctx context.Context, trigger models.NotificationTrigger) (*models.LowStockNotification, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	notifier LowStockNotifier
}

// NewScheduler creates a scheduler that evaluates the cron schedule in loc.
func NewScheduler(schedule string, loc *time.Location, notifier LowStockNotifier) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		notifier: notifier,
	}
}

// Start registers the daily low-stock job and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sendLowStockSummary); err != nil {
		return fmt.Errorf("failed to schedule low stock job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Str("location", s.cron.Location().String()).Msg("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendLowStockSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	notification, err := s.notifier.SendLowStockSummary(ctx, models.TriggerSchedule)
	switch {
	case errors.Is(err, services.ErrNotificationsDisabled):
		log.Debug().Msg("Low stock job skipped, notifications disabled")
	case err != nil:
		log.Error().Err(err).Msg("Scheduled low stock notification failed")
	default:
		log.Info().Int("item_count", notification.ItemCount).Bool("delivered", notification.Delivered).Msg("Scheduled low stock check finished")
	}
}
