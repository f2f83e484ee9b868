package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/events"
	"github.com/fieldflow/fieldflow/pkg/graph"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/tracing"
)

// stepOutcome is what a worker reports back to the coordinator.
type stepOutcome struct {
	nodeID   string
	status   models.StepStatus
	output   map[string]any
	dispatch *models.DispatchResult
	errText  string
}

// runState drives one execution. The coordinator goroutine is the only
// writer of the execution record; workers dispatch and report outcomes over
// the results channel.
type runState struct {
	engine    *Engine
	workflow  *models.Workflow
	frozen    *models.Graph
	order     []string
	execution *models.Execution
	logger    *slog.Logger

	remaining     map[string]int
	childrenOf    map[string][]string
	cascadeSkip   map[string]bool
	scheduled     map[string]bool
	terminalCount int
	failed        bool
	failedNodeID  string
	firstError    string
}

func (r *runState) drive(ctx context.Context) {
	r.remaining = make(map[string]int, len(r.order))
	for nodeID, sources := range graph.Dependencies(r.frozen) {
		r.remaining[nodeID] = len(sources)
	}

	r.childrenOf = make(map[string][]string, len(r.order))
	for _, edge := range r.frozen.Edges {
		r.childrenOf[edge.Source] = append(r.childrenOf[edge.Source], edge.Target)
	}

	r.cascadeSkip = make(map[string]bool)
	r.scheduled = make(map[string]bool)

	results := make(chan stepOutcome)

	inFlight := 0
	halted := false

	for {
		if !halted && ctx.Err() == nil {
			inFlight += r.scheduleReady(ctx, results, r.engine.opts.MaxWorkers-inFlight)
		}

		if inFlight == 0 {
			break
		}

		outcome := <-results
		inFlight--

		r.applyOutcome(ctx, outcome)

		if outcome.status == models.StepStatusFailed && !r.engine.opts.ContinueOnFailure {
			halted = true
		}
	}

	r.finalize(ctx)
}

// scheduleReady starts up to budget ready nodes. Passive nodes and cascade
// skips complete inline; only action nodes consume a worker slot.
func (r *runState) scheduleReady(ctx context.Context, results chan<- stepOutcome, budget int) int {
	started := 0

	for started < budget {
		nodeID := r.nextReady()
		if nodeID == "" {
			break
		}

		r.scheduled[nodeID] = true
		node := r.frozen.Node(nodeID)

		if r.cascadeSkip[nodeID] {
			r.applyOutcome(ctx, stepOutcome{nodeID: nodeID, status: models.StepStatusSkipped})

			continue
		}

		if !node.Type.IsAction() {
			r.applyOutcome(ctx, stepOutcome{
				nodeID: nodeID,
				status: models.StepStatusCompleted,
				output: r.passiveOutput(node),
			})

			continue
		}

		r.markRunning(ctx, node)

		view := r.templateView()

		go r.engine.dispatchNode(ctx, node, view, results)

		started++
	}

	return started
}

// nextReady returns the first node in topological order that is pending with
// all dependencies terminal, or "".
func (r *runState) nextReady() string {
	for _, nodeID := range r.order {
		if r.scheduled[nodeID] || r.remaining[nodeID] > 0 {
			continue
		}

		return nodeID
	}

	return ""
}

func (r *runState) markRunning(ctx context.Context, node *models.Node) {
	step := r.execution.Step(node.ID)
	step.Status = models.StepStatusRunning
	now := time.Now().UTC()
	step.StartedAt = &now

	label := models.PayloadLabel(node.Data)
	if label == "" {
		label = node.ID
	}

	r.execution.CurrentStep = label

	r.persist(ctx)
}

func (r *runState) applyOutcome(ctx context.Context, outcome stepOutcome) {
	step := r.execution.Step(outcome.nodeID)
	step.Status = outcome.status
	step.Output = outcome.output
	step.Dispatch = outcome.dispatch
	step.Error = outcome.errText

	if outcome.status != models.StepStatusSkipped {
		now := time.Now().UTC()
		step.CompletedAt = &now
	}

	r.terminalCount++
	r.execution.Progress = r.terminalCount * 100 / len(r.order)

	if outcome.status == models.StepStatusFailed && !r.failed {
		r.failed = true
		r.firstError = outcome.errText
		r.failedNodeID = outcome.nodeID
	}

	failedBranch := outcome.status != models.StepStatusCompleted

	for _, child := range r.childrenOf[outcome.nodeID] {
		r.remaining[child]--

		if failedBranch {
			r.cascadeSkip[child] = true
		}
	}

	r.persist(ctx)

	r.engine.publishEvent(ctx, r.execution.WorkflowID, events.StepCompleted{
		BaseEvent:   events.NewBaseEvent(events.StepCompletedEvent, r.execution.WorkflowID),
		ExecutionID: r.execution.ID,
		NodeID:      outcome.nodeID,
		Status:      outcome.status,
		Output:      outcome.output,
		Error:       outcome.errText,
		DurationMs:  stepDurationMs(step),
	})
}

// finalize skips every step that never started and settles the terminal
// status.
func (r *runState) finalize(ctx context.Context) {
	for _, step := range r.execution.Steps {
		if step.Status == models.StepStatusPending || step.Status == models.StepStatusRunning {
			step.Status = models.StepStatusSkipped
			r.terminalCount++
		}
	}

	r.execution.Progress = 100
	r.execution.CurrentStep = ""

	now := time.Now().UTC()
	r.execution.CompletedAt = &now

	switch {
	case ctx.Err() != nil:
		r.execution.Status = models.ExecutionStatusFailed
		r.execution.Error = fmt.Sprintf("%v: %v", ErrCancelled, ctx.Err())
	case r.failed:
		r.execution.Status = models.ExecutionStatusFailed
		r.execution.Error = failureMessage(r.failedNodeID, r.firstError)
	default:
		r.execution.Status = models.ExecutionStatusCompleted
		r.execution.Output = r.mergedOutput()
	}
}

// passiveOutput merges the outputs of the node's dependency sources and
// overlays the node's own reference data.
func (r *runState) passiveOutput(node *models.Node) map[string]any {
	out := make(map[string]any)

	for _, edge := range r.frozen.Edges {
		if edge.Target != node.ID {
			continue
		}

		parent := r.execution.Step(edge.Source)
		if parent == nil || parent.Status != models.StepStatusCompleted {
			continue
		}

		for k, v := range parent.Output {
			out[k] = v
		}
	}

	payload, ok := node.Data.(*models.StepPayload)
	if !ok {
		return out
	}

	if payload.Label != "" {
		out["label"] = payload.Label
	}

	if payload.Description != "" {
		out["description"] = payload.Description
	}

	if payload.Target != nil {
		out["target_type"] = string(payload.Target.Type)
		out["target_id"] = payload.Target.ID
	}

	return out
}

// mergedOutput folds completed step outputs in topological order.
func (r *runState) mergedOutput() map[string]any {
	out := make(map[string]any)

	for _, nodeID := range r.order {
		step := r.execution.Step(nodeID)
		if step == nil || step.Status != models.StepStatusCompleted {
			continue
		}

		for k, v := range step.Output {
			out[k] = v
		}
	}

	return out
}

// templateView is a frozen read-only copy handed to workers so template
// rendering never races with coordinator writes. Only terminal steps are
// visible to templates.
func (r *runState) templateView() *models.Execution {
	view := &models.Execution{
		ID:         r.execution.ID,
		WorkflowID: r.execution.WorkflowID,
		Input:      r.execution.Input,
	}

	for _, step := range r.execution.Steps {
		if step.Status == models.StepStatusCompleted || step.Status == models.StepStatusFailed {
			view.Steps = append(view.Steps, &models.StepResult{
				NodeID: step.NodeID,
				Status: step.Status,
				Output: step.Output,
			})
		}
	}

	return view
}

// persist saves mid-run progress. A transient store failure here is logged;
// the terminal write in Run is the one that must succeed.
func (r *runState) persist(ctx context.Context) {
	err := r.engine.executions.SaveExecution(ctx, r.execution)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to persist execution progress", "error", err)
	}
}

// failureMessage tolerates adapters that report failure with no error text.
func failureMessage(nodeID, errText string) string {
	if errText == "" {
		return fmt.Sprintf("node %s failed", nodeID)
	}

	return fmt.Sprintf("node %s: %s", nodeID, errText)
}

func stepDurationMs(step *models.StepResult) int64 {
	if step.StartedAt == nil || step.CompletedAt == nil {
		return 0
	}

	return step.CompletedAt.Sub(*step.StartedAt).Milliseconds()
}

// dispatchNode runs on a worker goroutine. No locks are held across the
// dispatch call; the outcome travels back over the results channel.
func (e *Engine) dispatchNode(ctx context.Context, node *models.Node, view *models.Execution, results chan<- stepOutcome) {
	ctx, span := e.startSpan(ctx, "engine.dispatch",
		attribute.String(tracing.ExecutionIDKey, view.ID),
		attribute.String(tracing.NodeIDKey, node.ID),
		attribute.String(tracing.NodeTypeKey, string(node.Type)),
	)
	if span != nil {
		defer span.End()
	}

	channel, err := channels.ChannelFor(node.Type)
	if err != nil {
		results <- stepOutcome{nodeID: node.ID, status: models.StepStatusFailed, errText: err.Error()}

		return
	}

	if span != nil {
		span.SetAttributes(attribute.String(tracing.ChannelKey, string(channel)))
	}

	adapter, err := e.registry.CreateAdapter(ctx, channel)
	if err != nil {
		results <- stepOutcome{nodeID: node.ID, status: models.StepStatusFailed, errText: err.Error()}

		return
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, e.opts.DispatchTimeout)
	defer cancel()

	result, err := adapter.Dispatch(dispatchCtx, node, view)
	if err != nil {
		if span != nil {
			tracing.SetError(span, err)
		}

		results <- stepOutcome{nodeID: node.ID, status: models.StepStatusFailed, errText: err.Error()}

		return
	}

	if !result.Success {
		errText := result.Error
		if dispatchCtx.Err() == context.DeadlineExceeded {
			errText = fmt.Sprintf("dispatch timed out after %s", e.opts.DispatchTimeout)
		}

		results <- stepOutcome{
			nodeID:   node.ID,
			status:   models.StepStatusFailed,
			dispatch: result,
			errText:  errText,
		}

		return
	}

	results <- stepOutcome{
		nodeID:   node.ID,
		status:   models.StepStatusCompleted,
		dispatch: result,
		output: map[string]any{
			"channel":     string(result.Channel),
			"external_id": result.ExternalID,
		},
	}
}
