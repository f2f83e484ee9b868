// Package persistence provides the storage abstraction for workflows,
// executions, automations and schedules.
package persistence

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/models"
)

// WorkflowRepository stores workflow documents.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
	ListTemplates(ctx context.Context) ([]*models.Workflow, error)
}

// ExecutionRepository stores execution records. Terminal executions are
// immutable; implementations only ever see monotonic updates from the engine.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, execution *models.Execution) error
	ExecutionByID(ctx context.Context, id string) (*models.Execution, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error)
}

// AutomationRepository stores the automation records operators attach to
// automation nodes.
type AutomationRepository interface {
	Automations(ctx context.Context) ([]*models.Automation, error)
	AutomationByID(ctx context.Context, id string) (*models.Automation, error)
	SaveAutomation(ctx context.Context, automation *models.Automation) error
}

// ScheduleRepository stores cron schedules for time-based trigger firing.
type ScheduleRepository interface {
	Schedules(ctx context.Context) ([]*models.Schedule, error)
	SaveSchedule(ctx context.Context, schedule *models.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
}

// Persistence aggregates the repositories behind one backend.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	AutomationRepository() AutomationRepository
	ScheduleRepository() ScheduleRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
