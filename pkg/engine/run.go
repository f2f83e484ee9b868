package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/events"
	"github.com/fieldflow/fieldflow/pkg/graph"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ErrCancelled marks an execution that was cancelled before finishing.
var ErrCancelled = errors.New("execution cancelled")

// Run validates the workflow's graph, creates an execution and drives it to a
// terminal state. Validation failure returns the violation and creates no
// execution record. A failed execution is a normal result, not an error.
func (e *Engine) Run(ctx context.Context, workflow *models.Workflow, input map[string]any) (*models.Execution, error) {
	err := graph.Validate(&workflow.Graph)
	if err != nil {
		return nil, err
	}

	// The engine executes against a frozen copy so concurrent editor saves
	// never change an in-flight execution's view of the graph.
	frozen, err := workflow.Graph.Clone()
	if err != nil {
		return nil, err
	}

	order, err := graph.TopologicalOrder(frozen)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	execution := &models.Execution{
		ID:         newExecutionID(),
		WorkflowID: workflow.ID,
		Status:     models.ExecutionStatusPending,
		Steps:      make([]*models.StepResult, 0, len(order)),
		Input:      input,
		CreatedAt:  now,
	}

	for _, nodeID := range order {
		execution.Steps = append(execution.Steps, &models.StepResult{
			NodeID: nodeID,
			Status: models.StepStatusPending,
		})
	}

	logger := e.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)

	ctx, span := e.startSpan(ctx, "engine.run",
		attribute.String(tracing.WorkflowIDKey, workflow.ID),
		attribute.String(tracing.WorkflowNameKey, workflow.Name),
		attribute.String(tracing.ExecutionIDKey, execution.ID),
	)
	if span != nil {
		defer span.End()
	}

	if len(order) == 0 {
		execution.Status = models.ExecutionStatusCompleted
		execution.Progress = 100
		started := now
		execution.StartedAt = &started
		completed := time.Now().UTC()
		execution.CompletedAt = &completed

		err = e.executions.SaveExecution(ctx, execution)
		if err != nil {
			return nil, fmt.Errorf("failed to persist execution: %w", err)
		}

		e.publishCompleted(ctx, workflow, execution, 0)
		logger.InfoContext(ctx, "execution completed", "steps", 0)

		return execution, nil
	}

	err = e.executions.SaveExecution(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to persist execution: %w", err)
	}

	execution.Status = models.ExecutionStatusRunning
	started := time.Now().UTC()
	execution.StartedAt = &started

	err = e.executions.SaveExecution(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to persist execution: %w", err)
	}

	e.publishEvent(ctx, workflow.ID, events.ExecutionStarted{
		BaseEvent:    events.NewBaseEvent(events.ExecutionStartedEvent, workflow.ID),
		ExecutionID:  execution.ID,
		WorkflowName: workflow.Name,
		Input:        input,
		StepCount:    len(order),
	})

	logger.InfoContext(ctx, "execution started", "steps", len(order))

	run := &runState{
		engine:    e,
		workflow:  workflow,
		frozen:    frozen,
		order:     order,
		execution: execution,
		logger:    logger,
	}

	run.drive(ctx)

	err = e.executions.SaveExecution(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to persist execution: %w", err)
	}

	if execution.Status == models.ExecutionStatusFailed {
		e.publishEvent(ctx, workflow.ID, events.ExecutionFailed{
			BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, workflow.ID),
			ExecutionID:   execution.ID,
			Error:         execution.Error,
			FailedNodeID:  run.failedNodeID,
			DurationMs:    time.Since(started).Milliseconds(),
			StepsExecuted: run.terminalCount,
		})
		logger.InfoContext(ctx, "execution failed", "error", execution.Error, "failed_node", run.failedNodeID)
	} else {
		e.publishCompleted(ctx, workflow, execution, run.terminalCount)
		logger.InfoContext(ctx, "execution completed", "steps", run.terminalCount)
	}

	return execution, nil
}

func (e *Engine) publishCompleted(ctx context.Context, workflow *models.Workflow, execution *models.Execution, steps int) {
	var durationMs int64
	if execution.StartedAt != nil && execution.CompletedAt != nil {
		durationMs = execution.CompletedAt.Sub(*execution.StartedAt).Milliseconds()
	}

	e.publishEvent(ctx, workflow.ID, events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, workflow.ID),
		ExecutionID:   execution.ID,
		DurationMs:    durationMs,
		StepsExecuted: steps,
		Output:        execution.Output,
	})
}

func (e *Engine) publishEvent(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.WarnContext(ctx, "failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
