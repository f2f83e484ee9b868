package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// AutomationRepository stores automation records as JSON values in Redis.
type AutomationRepository struct {
	store *kvStore
}

// AutomationRepository returns the automation repository.
func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return &AutomationRepository{store: &kvStore{client: p.client, collection: "automations"}}
}

// Automations returns all automation records ordered by title.
func (r *AutomationRepository) Automations(ctx context.Context) ([]*models.Automation, error) {
	ids, err := r.store.ids(ctx)
	if err != nil {
		return nil, err
	}

	automations := make([]*models.Automation, 0, len(ids))

	for _, id := range ids {
		var automation models.Automation

		err := r.store.load(ctx, id, &automation)
		if err != nil {
			if isNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load automation %s: %w", id, err)
		}

		automations = append(automations, &automation)
	}

	sort.Slice(automations, func(i, j int) bool {
		return automations[i].Title < automations[j].Title
	})

	return automations, nil
}

// AutomationByID returns the automation with the given id.
func (r *AutomationRepository) AutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	var automation models.Automation

	err := r.store.load(ctx, id, &automation)
	if err != nil {
		if isNotFound(err) {
			return nil, persistence.ErrAutomationNotFound
		}

		return nil, fmt.Errorf("failed to load automation %s: %w", id, err)
	}

	return &automation, nil
}

// SaveAutomation inserts or updates an automation record.
func (r *AutomationRepository) SaveAutomation(ctx context.Context, automation *models.Automation) error {
	now := time.Now().UTC()

	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	if automation.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate automation ID: %w", err)
		}

		automation.ID = id.String()
	}

	return r.store.save(ctx, automation.ID, automation)
}

// ScheduleRepository stores schedules as JSON values in Redis.
type ScheduleRepository struct {
	store *kvStore
}

// ScheduleRepository returns the schedule repository.
func (p *Persistence) ScheduleRepository() persistence.ScheduleRepository {
	return &ScheduleRepository{store: &kvStore{client: p.client, collection: "schedules"}}
}

// Schedules returns all schedules ordered by creation time.
func (r *ScheduleRepository) Schedules(ctx context.Context) ([]*models.Schedule, error) {
	ids, err := r.store.ids(ctx)
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.Schedule, 0, len(ids))

	for _, id := range ids {
		var schedule models.Schedule

		err := r.store.load(ctx, id, &schedule)
		if err != nil {
			if isNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load schedule %s: %w", id, err)
		}

		schedules = append(schedules, &schedule)
	}

	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})

	return schedules, nil
}

// SaveSchedule inserts or updates a schedule.
func (r *ScheduleRepository) SaveSchedule(ctx context.Context, schedule *models.Schedule) error {
	now := time.Now().UTC()

	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}

	schedule.UpdatedAt = now

	if schedule.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate schedule ID: %w", err)
		}

		schedule.ID = id.String()
	}

	return r.store.save(ctx, schedule.ID, schedule)
}

// DeleteSchedule removes a schedule. Deleting a missing schedule is not an
// error.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	return r.store.delete(ctx, id)
}
