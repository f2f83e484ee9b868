package triggers

import (
	"context"
	"log/slog"
	"time"

	"github.com/fieldflow/fieldflow/pkg/persistence"
)

const defaultRefreshInterval = 30 * time.Second

// Refresher keeps a trigger registry in sync with the workflow and
// automation stores.
type Refresher struct {
	registry    *Registry
	workflows   persistence.WorkflowRepository
	automations persistence.AutomationRepository
	logger      *slog.Logger
	interval    time.Duration
}

// NewRefresher creates a refresher. A zero interval falls back to the
// default.
func NewRefresher(
	registry *Registry,
	workflows persistence.WorkflowRepository,
	automations persistence.AutomationRepository,
	logger *slog.Logger,
	interval time.Duration,
) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	return &Refresher{
		registry:    registry,
		workflows:   workflows,
		automations: automations,
		logger:      logger,
		interval:    interval,
	}
}

// Refresh rebuilds the registry from the stores once.
func (r *Refresher) Refresh(ctx context.Context) error {
	workflows, err := r.workflows.GetAll(ctx)
	if err != nil {
		return err
	}

	automations, err := r.automations.Automations(ctx)
	if err != nil {
		return err
	}

	r.registry.Rebuild(workflows, automations)

	return nil
}

// Run refreshes periodically until the context ends. Failures are logged and
// retried on the next tick; the previous bindings stay in effect meanwhile.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := r.Refresh(ctx)
			if err != nil {
				r.logger.WarnContext(ctx, "trigger registry refresh failed", "error", err)
			}
		}
	}
}
