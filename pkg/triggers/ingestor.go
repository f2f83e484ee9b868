package triggers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// Runner starts one execution of a workflow. Satisfied by the engine.
type Runner interface {
	Run(ctx context.Context, workflow *models.Workflow, input map[string]any) (*models.Execution, error)
}

// Ingestor is the event-ingestion boundary: it turns one business event into
// executions of every workflow bound to it.
type Ingestor struct {
	registry  *Registry
	workflows persistence.WorkflowRepository
	runner    Runner
	logger    *slog.Logger
}

// NewIngestor creates an ingestor over the registry, the workflow store and
// the engine.
func NewIngestor(registry *Registry, workflows persistence.WorkflowRepository, runner Runner, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		registry:  registry,
		workflows: workflows,
		runner:    runner,
		logger:    logger,
	}
}

// FireTrigger starts one execution per workflow bound to the event and
// returns the started execution ids. A workflow that fails to load or
// validate is reported in the returned error without blocking its siblings.
func (i *Ingestor) FireTrigger(ctx context.Context, eventName string, triggerContext map[string]any) ([]string, error) {
	matched := i.registry.Match(eventName)

	executionIDs := make([]string, 0, len(matched))

	var errs []error

	for _, workflowID := range matched {
		workflow, err := i.workflows.GetByID(ctx, workflowID)
		if err != nil {
			errs = append(errs, fmt.Errorf("workflow %s: %w", workflowID, err))

			continue
		}

		execution, err := i.runner.Run(ctx, workflow, triggerContext)
		if err != nil {
			errs = append(errs, fmt.Errorf("workflow %s: %w", workflowID, err))

			continue
		}

		executionIDs = append(executionIDs, execution.ID)
	}

	i.logger.InfoContext(ctx, "trigger fired",
		"event_name", eventName, "matched", len(matched), "started", len(executionIDs))

	return executionIDs, errors.Join(errs...)
}
