// Package engine turns a validated workflow graph plus a triggering input
// into an execution and drives it to a terminal state.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/registry"
)

const (
	defaultMaxWorkers      = 4
	defaultDispatchTimeout = 30 * time.Second
)

// Options tune one engine instance. Zero values mean: 4 workers, fail-fast,
// 30s dispatch timeout.
type Options struct {
	// MaxWorkers bounds how many independent nodes dispatch concurrently
	// within one execution.
	MaxWorkers int

	// ContinueOnFailure lets sibling branches finish after a step fails.
	// The execution still fails if any step failed. The default stops
	// scheduling at the first failure and skips not-yet-started steps.
	ContinueOnFailure bool

	// DispatchTimeout bounds each channel dispatch. A node that exceeds it
	// is marked failed with a timeout error.
	DispatchTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = defaultMaxWorkers
	}

	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = defaultDispatchTimeout
	}

	return o
}

// Engine executes workflows. Each Run is an independent unit of work; one
// engine serves any number of concurrent runs.
type Engine struct {
	executions persistence.ExecutionRepository
	registry   *registry.Registry
	publisher  eventbus.EventPublisher
	logger     *slog.Logger
	tracer     trace.Tracer
	opts       Options
}

// NewEngine creates an engine. The publisher and tracer may be nil; lifecycle
// events and spans are then skipped.
func NewEngine(
	executions persistence.ExecutionRepository,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
	tracer trace.Tracer,
	opts Options,
) *Engine {
	return &Engine{
		executions: executions,
		registry:   reg,
		publisher:  publisher,
		logger:     logger,
		tracer:     tracer,
		opts:       opts.withDefaults(),
	}
}

func newExecutionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}

	return id.String()
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if e.tracer == nil {
		return ctx, nil
	}

	return e.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
