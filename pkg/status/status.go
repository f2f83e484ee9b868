// Package status exposes pollable execution progress. The snapshot is
// derived from the stored execution record, so any process with access to the
// store can answer status queries.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

const defaultPollInterval = 2 * time.Second

// ErrNotFound is returned for status queries against unknown execution ids.
var ErrNotFound = errors.New("execution not found")

// Reporter answers execution status queries from the execution store.
type Reporter struct {
	executions persistence.ExecutionRepository
}

// NewReporter creates a status reporter backed by the given store.
func NewReporter(executions persistence.ExecutionRepository) *Reporter {
	return &Reporter{executions: executions}
}

// GetExecutionStatus returns the pollable snapshot of an execution. Unknown
// ids return ErrNotFound; other store errors pass through untouched.
func (r *Reporter) GetExecutionStatus(ctx context.Context, executionID string) (*models.ExecutionSnapshot, error) {
	execution, err := r.executions.ExecutionByID(ctx, executionID)
	if errors.Is(err, persistence.ErrExecutionNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, executionID)
	}

	if err != nil {
		return nil, err
	}

	return execution.Snapshot(), nil
}

// Poller watches an execution until it reaches a terminal state.
type Poller struct {
	reporter *Reporter
	logger   *slog.Logger
	interval time.Duration
}

// NewPoller creates a poller. A zero interval falls back to the default.
func NewPoller(reporter *Reporter, logger *slog.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Poller{reporter: reporter, logger: logger, interval: interval}
}

// Watch polls the execution until it is terminal or the context ends, then
// invokes onDone exactly once with the final snapshot. Transient store errors
// are logged and retried on the next tick.
func (p *Poller) Watch(ctx context.Context, executionID string, onDone func(*models.ExecutionSnapshot)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		snapshot, err := p.reporter.GetExecutionStatus(ctx, executionID)
		if err != nil {
			p.logger.WarnContext(ctx, "status poll failed", "execution_id", executionID, "error", err)
		} else if snapshot.Status.Terminal() {
			onDone(snapshot)

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
