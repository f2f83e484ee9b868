package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// ExecutionRepository stores execution records as JSON values in Redis.
type ExecutionRepository struct {
	store *kvStore
}

// ExecutionRepository returns the execution repository.
func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return &ExecutionRepository{store: &kvStore{client: p.client, collection: "executions"}}
}

// SaveExecution inserts or updates an execution record. Writes against a
// stored terminal record are rejected.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	var stored models.Execution

	err := r.store.load(ctx, execution.ID, &stored)
	if err != nil && !isNotFound(err) {
		return persistence.NewExecutionError("save", execution.ID, err)
	}

	if err == nil && stored.Status.Terminal() {
		return persistence.NewExecutionError("save", execution.ID, persistence.ErrExecutionImmutable)
	}

	return r.store.save(ctx, execution.ID, execution)
}

// ExecutionByID returns the execution with the given id.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	var execution models.Execution

	err := r.store.load(ctx, id, &execution)
	if err != nil {
		if isNotFound(err) {
			return nil, persistence.NewExecutionError("get", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	return &execution, nil
}

// ExecutionsByWorkflow returns all executions of a workflow ordered by
// creation time.
func (r *ExecutionRepository) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	ids, err := r.store.ids(ctx)
	if err != nil {
		return nil, err
	}

	executions := make([]*models.Execution, 0)

	for _, id := range ids {
		var execution models.Execution

		err := r.store.load(ctx, id, &execution)
		if err != nil {
			if isNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
		}

		if execution.WorkflowID == workflowID {
			executions = append(executions, &execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].CreatedAt.Before(executions[j].CreatedAt)
	})

	return executions, nil
}
