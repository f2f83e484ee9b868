// Package postgresql provides PostgreSQL-backed persistence.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// PostgreSQL driver.
	_ "github.com/lib/pq"

	"github.com/fieldflow/fieldflow/pkg/log"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence backed by PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	workflows   *WorkflowRepository
	executions  *ExecutionRepository
	automations *AutomationRepository
	schedules   *ScheduleRepository
}

// NewPersistence creates a new PostgreSQL persistence layer and runs
// pending schema migrations.
func NewPersistence(ctx context.Context, databaseURL string) (*Persistence, error) {
	url := strings.TrimPrefix(databaseURL, "postgresql://")
	if !strings.HasPrefix(url, "postgres://") {
		url = "postgres://" + url
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger := log.WithModule("persistence.postgresql")

	migrator := sqlbase.NewMigrationManager(logger, db, migrations)

	err = migrator.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	p := &Persistence{
		db:          db,
		logger:      logger,
		workflows:   &WorkflowRepository{db: db},
		executions:  &ExecutionRepository{db: db},
		automations: &AutomationRepository{db: db},
		schedules:   &ScheduleRepository{db: db},
	}

	return p, nil
}

// WorkflowRepository returns the workflow repository.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflows
}

// ExecutionRepository returns the execution repository.
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executions
}

// AutomationRepository returns the automation repository.
func (p *Persistence) AutomationRepository() persistence.AutomationRepository {
	return p.automations
}

// ScheduleRepository returns the schedule repository.
func (p *Persistence) ScheduleRepository() persistence.ScheduleRepository {
	return p.schedules
}

// HealthCheck verifies the database connection is alive.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
