package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db *sql.DB
}

const automationColumns = `
	id
  , title
  , description
  , category
  , is_active
  , trigger_event
  , trigger_manual
  , created_at
  , updated_at
`

// Automations returns all automation records ordered by title.
func (r *AutomationRepository) Automations(ctx context.Context) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations ORDER BY title ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	return automations, nil
}

// AutomationByID returns the automation with the given id.
func (r *AutomationRepository) AutomationByID(ctx context.Context, id string) (*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE id = $1`

	automation, err := scanAutomation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrAutomationNotFound
		}

		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}

	return automation, nil
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

	query := `
		INSERT INTO automations (id, title, description, category, is_active, trigger_event, trigger_manual, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			is_active = EXCLUDED.is_active,
			trigger_event = EXCLUDED.trigger_event,
			trigger_manual = EXCLUDED.trigger_manual,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		automation.ID,
		automation.Title,
		automation.Description,
		automation.Category,
		automation.IsActive,
		automation.Trigger.EventName,
		automation.Trigger.Manual,
		automation.CreatedAt,
		automation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save automation: %w", err)
	}

	return nil
}

func scanAutomation(scanner interface{ Scan(dest ...any) error }) (*models.Automation, error) {
	var automation models.Automation

	err := scanner.Scan(
		&automation.ID,
		&automation.Title,
		&automation.Description,
		&automation.Category,
		&automation.IsActive,
		&automation.Trigger.EventName,
		&automation.Trigger.Manual,
		&automation.CreatedAt,
		&automation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &automation, nil
}

// ScheduleRepository handles schedule-related database operations.
type ScheduleRepository struct {
	db *sql.DB
}

// Schedules returns all schedules ordered by creation time.
func (r *ScheduleRepository) Schedules(ctx context.Context) ([]*models.Schedule, error) {
	query := `
		SELECT id, workflow_id, cron_expr, timezone, enabled, last_run_at, next_run_at, created_at, updated_at
		FROM schedules
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schedules := make([]*models.Schedule, 0)

	for rows.Next() {
		var schedule models.Schedule

		err := rows.Scan(
			&schedule.ID,
			&schedule.WorkflowID,
			&schedule.CronExpr,
			&schedule.Timezone,
			&schedule.Enabled,
			&schedule.LastRunAt,
			&schedule.NextRunAt,
			&schedule.CreatedAt,
			&schedule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}

		schedules = append(schedules, &schedule)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

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

	if schedule.Timezone == "" {
		schedule.Timezone = "UTC"
	}

	query := `
		INSERT INTO schedules (id, workflow_id, cron_expr, timezone, enabled, last_run_at, next_run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			workflow_id = EXCLUDED.workflow_id,
			cron_expr = EXCLUDED.cron_expr,
			timezone = EXCLUDED.timezone,
			enabled = EXCLUDED.enabled,
			last_run_at = EXCLUDED.last_run_at,
			next_run_at = EXCLUDED.next_run_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.WorkflowID,
		schedule.CronExpr,
		schedule.Timezone,
		schedule.Enabled,
		schedule.LastRunAt,
		schedule.NextRunAt,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}

	return nil
}

// DeleteSchedule removes a schedule. Deleting a missing schedule is not an
// error.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	return nil
}
