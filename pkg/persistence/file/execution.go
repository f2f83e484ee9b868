package file

import (
	"context"
	"errors"
	"io/fs"
	"sort"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// ExecutionRepository stores execution records as JSON documents.
type ExecutionRepository struct {
	store docStore
}

func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	existing, err := r.ExecutionByID(ctx, execution.ID)
	if err != nil && !persistence.IsExecutionNotFound(err) {
		return err
	}

	// Terminal records are append-only history.
	if existing != nil && existing.Status.Terminal() {
		return persistence.NewExecutionError("SaveExecution", execution.ID, persistence.ErrExecutionImmutable)
	}

	err = r.store.save(execution.ID, execution)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", execution.ID, err)
	}

	return nil
}

func (r *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.Execution, error) {
	execution := &models.Execution{}

	err := r.store.load(id, execution)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return execution, nil
}

func (r *ExecutionRepository) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	ids, err := r.store.ids()
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionsByWorkflow", "", err)
	}

	executions := make([]*models.Execution, 0)

	for _, id := range ids {
		execution, err := r.ExecutionByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.Before(executions[j].CreatedAt)
	})

	return executions, nil
}
