package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db *sql.DB
}

const executionColumns = `
	id
  , workflow_id
  , status
  , steps
  , progress
  , current_step
  , input
  , output
  , error
  , created_at
  , started_at
  , completed_at
`

// SaveExecution inserts or updates an execution record. Writes against a
// stored terminal record are rejected.
func (r *ExecutionRepository) SaveExecution(ctx context.Context, execution *models.Execution) error {
	var storedStatus models.ExecutionStatus

	err := r.db.QueryRowContext(ctx, "SELECT status FROM executions WHERE id = $1", execution.ID).Scan(&storedStatus)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return persistence.NewExecutionError("save", execution.ID, err)
	}

	if err == nil && storedStatus.Terminal() {
		return persistence.NewExecutionError("save", execution.ID, persistence.ErrExecutionImmutable)
	}

	stepsJSON, err := json.Marshal(execution.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	inputJSON, err := json.Marshal(execution.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	outputJSON, err := json.Marshal(execution.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, status, steps, progress, current_step, input, output, error, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			steps = EXCLUDED.steps,
			progress = EXCLUDED.progress,
			current_step = EXCLUDED.current_step,
			output = EXCLUDED.output,
			error = EXCLUDED.error,
			started_at = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.WorkflowID,
		execution.Status,
		stepsJSON,
		execution.Progress,
		nullString(execution.CurrentStep),
		inputJSON,
		outputJSON,
		nullString(execution.Error),
		execution.CreatedAt,
		execution.StartedAt,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("save", execution.ID, err)
	}

	return nil
}

// ExecutionByID returns the execution with the given id.
func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("get", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	return execution, nil
}

// ExecutionsByWorkflow returns all executions of a workflow ordered by
// creation time.
func (r *ExecutionRepository) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE workflow_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(scanner interface{ Scan(dest ...any) error }) (*models.Execution, error) {
	var (
		execution                     models.Execution
		stepsJSON, inputJSON, outJSON []byte
		currentStep, executionErr     sql.NullString
	)

	err := scanner.Scan(
		&execution.ID,
		&execution.WorkflowID,
		&execution.Status,
		&stepsJSON,
		&execution.Progress,
		&currentStep,
		&inputJSON,
		&outJSON,
		&executionErr,
		&execution.CreatedAt,
		&execution.StartedAt,
		&execution.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.CurrentStep = currentStep.String
	execution.Error = executionErr.String

	if stepsJSON != nil {
		err := json.Unmarshal(stepsJSON, &execution.Steps)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}
	}

	if inputJSON != nil {
		err := json.Unmarshal(inputJSON, &execution.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal input: %w", err)
		}
	}

	if outJSON != nil {
		err := json.Unmarshal(outJSON, &execution.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal output: %w", err)
		}
	}

	return &execution, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
