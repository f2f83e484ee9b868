// Package scheduler fires the schedule trigger for cron-based schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/triggers"
)

// Firer ingests a trigger event into the workflow engine.
type Firer interface {
	FireTrigger(ctx context.Context, eventName string, triggerContext map[string]any) ([]string, error)
}

// Scheduler runs enabled schedules on their cron expressions. Each firing
// ingests a schedule trigger event carrying the schedule and workflow ids.
type Scheduler struct {
	schedules persistence.ScheduleRepository
	firer     Firer
	logger    *slog.Logger

	mu      sync.Mutex
	runner  *cron.Cron
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler over the given schedule store.
func NewScheduler(schedules persistence.ScheduleRepository, firer Firer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		schedules: schedules,
		firer:     firer,
		logger:    logger,
		entries:   make(map[string]cron.EntryID),
	}
}

// Start loads enabled schedules and begins firing them. Schedules with an
// invalid cron expression or timezone are skipped with a warning; one bad
// record never blocks the rest.
func (s *Scheduler) Start(ctx context.Context) error {
	stored, err := s.schedules.Schedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runner = cron.New()

	for _, schedule := range stored {
		if !schedule.Enabled {
			continue
		}

		err := s.register(ctx, schedule)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping schedule",
				"schedule_id", schedule.ID, "cron", schedule.CronExpr, "error", err)
		}
	}

	s.runner.Start()
	s.logger.InfoContext(ctx, "scheduler started", "schedules", len(s.entries))

	return nil
}

// Stop halts the cron runner and waits for in-flight firings to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.entries = make(map[string]cron.EntryID)
	s.mu.Unlock()

	if runner == nil {
		return
	}

	<-runner.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) register(ctx context.Context, schedule *models.Schedule) error {
	location := time.UTC

	if schedule.Timezone != "" {
		var err error

		location, err = time.LoadLocation(schedule.Timezone)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", schedule.Timezone, err)
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	spec, err := parser.Parse(schedule.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule.CronExpr, err)
	}

	scheduleID := schedule.ID
	workflowID := schedule.WorkflowID

	entryID := s.runner.Schedule(timezoneSchedule{spec: spec, location: location}, cron.FuncJob(func() {
		s.fire(ctx, scheduleID, workflowID)
	}))

	s.entries[scheduleID] = entryID

	return nil
}

// fire ingests one schedule firing and records LastRunAt.
func (s *Scheduler) fire(ctx context.Context, scheduleID, workflowID string) {
	logger := s.logger.With("schedule_id", scheduleID, "workflow_id", workflowID)

	executionIDs, err := s.firer.FireTrigger(ctx, triggers.EventSchedule, map[string]any{
		"schedule_id": scheduleID,
		"workflow_id": workflowID,
	})
	if err != nil {
		logger.WarnContext(ctx, "schedule firing failed", "error", err)
	}

	logger.InfoContext(ctx, "schedule fired", "executions", len(executionIDs))

	s.recordRun(ctx, scheduleID, logger)
}

func (s *Scheduler) recordRun(ctx context.Context, scheduleID string, logger *slog.Logger) {
	stored, err := s.schedules.Schedules(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to load schedule for run bookkeeping", "error", err)

		return
	}

	for _, schedule := range stored {
		if schedule.ID != scheduleID {
			continue
		}

		now := time.Now().UTC()
		schedule.LastRunAt = &now

		err = s.schedules.SaveSchedule(ctx, schedule)
		if err != nil {
			logger.WarnContext(ctx, "failed to record schedule run", "error", err)
		}

		return
	}
}

// timezoneSchedule evaluates a parsed cron spec in the schedule's location.
type timezoneSchedule struct {
	spec     cron.Schedule
	location *time.Location
}

func (t timezoneSchedule) Next(from time.Time) time.Time {
	return t.spec.Next(from.In(t.location))
}
