package file

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// AutomationRepository stores automation records as JSON documents.
type AutomationRepository struct {
	store docStore
}

func (r *AutomationRepository) Automations(ctx context.Context) ([]*models.Automation, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	automations := make([]*models.Automation, 0, len(ids))

	for _, id := range ids {
		automation, err := r.AutomationByID(ctx, id)
		if err != nil {
			return nil, err
		}

		automations = append(automations, automation)
	}

	sort.Slice(automations, func(i, j int) bool {
		return automations[i].ID < automations[j].ID
	})

	return automations, nil
}

func (r *AutomationRepository) AutomationByID(_ context.Context, id string) (*models.Automation, error) {
	automation := &models.Automation{}

	err := r.store.load(id, automation)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.ErrAutomationNotFound
		}

		return nil, err
	}

	return automation, nil
}

func (r *AutomationRepository) SaveAutomation(_ context.Context, automation *models.Automation) error {
	return r.store.save(automation.ID, automation)
}

// ScheduleRepository stores cron schedules as JSON documents.
type ScheduleRepository struct {
	store docStore
}

func (r *ScheduleRepository) Schedules(_ context.Context) ([]*models.Schedule, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, err
	}

	schedules := make([]*models.Schedule, 0, len(ids))

	for _, id := range ids {
		schedule := &models.Schedule{}

		err := r.store.load(id, schedule)
		if err != nil {
			return nil, err
		}

		schedules = append(schedules, schedule)
	}

	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].ID < schedules[j].ID
	})

	return schedules, nil
}

func (r *ScheduleRepository) SaveSchedule(_ context.Context, schedule *models.Schedule) error {
	return r.store.save(schedule.ID, schedule)
}

func (r *ScheduleRepository) DeleteSchedule(_ context.Context, id string) error {
	err := r.store.delete(id)
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.ErrScheduleNotFound
	}

	return err
}
