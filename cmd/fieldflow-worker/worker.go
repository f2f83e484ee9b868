// Package main provides the fieldflow background worker. It ingests
// business events from the bus and chains automation dispatches into
// their bound trigger events. It also runs the cron scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldflow/fieldflow/pkg/engine"
	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/events"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/registry"
	"github.com/fieldflow/fieldflow/pkg/scheduler"
	"github.com/fieldflow/fieldflow/pkg/triggers"
)

type Worker struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	ingestor    *triggers.Ingestor
	refresher   *triggers.Refresher
	scheduler   *scheduler.Scheduler
}

func NewWorker(
	id string,
	logger *slog.Logger,
	p persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
) *Worker {
	eng := engine.NewEngine(p.ExecutionRepository(), reg, eventBus, logger, nil, engine.Options{})

	triggerRegistry := triggers.NewRegistry()
	ingestor := triggers.NewIngestor(triggerRegistry, p.WorkflowRepository(), eng, logger)
	refresher := triggers.NewRefresher(triggerRegistry, p.WorkflowRepository(), p.AutomationRepository(), logger, 0)

	return &Worker{
		id:          id,
		logger:      logger,
		persistence: p,
		eventBus:    eventBus,
		ingestor:    ingestor,
		refresher:   refresher,
		scheduler:   scheduler.NewScheduler(p.ScheduleRepository(), ingestor, logger),
	}
}

// Start runs the worker until SIGINT or SIGTERM.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := w.refresher.Refresh(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "initial trigger registry refresh failed", "error", err)
	}

	go w.refresher.Run(ctx)

	err = w.scheduler.Start(ctx)
	if err != nil {
		return err
	}

	defer w.scheduler.Stop()

	err = w.eventBus.Handle(events.TriggerFiredEvent, w.handleTriggerFired)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.AutomationTriggeredEvent, w.handleAutomationTriggered)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		w.logger.Info("Shutting down worker")
	case <-ctx.Done():
	}

	return nil
}

// handleTriggerFired ingests a business event received over the bus and runs
// every workflow bound to it. This is the asynchronous counterpart of the
// API's fire endpoint, used by external producers.
func (w *Worker) handleTriggerFired(ctx context.Context, raw any) error {
	event, ok := raw.(*events.TriggerFired)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", raw)
	}

	executionIDs, err := w.ingestor.FireTrigger(ctx, event.EventName, event.Payload)
	if err != nil {
		w.logger.WarnContext(ctx, "trigger ingestion failed", "event", event.EventName, "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "trigger ingested", "event", event.EventName, "executions", len(executionIDs))

	return nil
}

// handleAutomationTriggered chains an automation dispatch into the trigger
// event the automation is bound to. Manual-only automations end the chain.
func (w *Worker) handleAutomationTriggered(ctx context.Context, raw any) error {
	event, ok := raw.(*events.AutomationTriggered)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", raw)
	}

	logger := w.logger.With("automation_id", event.AutomationID, "execution_id", event.ExecutionID)

	automation, err := w.persistence.AutomationRepository().AutomationByID(ctx, event.AutomationID)
	if err != nil {
		logger.WarnContext(ctx, "automation lookup failed", "error", err)

		return err
	}

	if !automation.IsActive || automation.Trigger.EventName == "" {
		return nil
	}

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payload["automation_id"] = event.AutomationID
	payload["source_execution_id"] = event.ExecutionID

	executionIDs, err := w.ingestor.FireTrigger(ctx, automation.Trigger.EventName, payload)
	if err != nil {
		logger.WarnContext(ctx, "automation chain failed", "error", err)

		return err
	}

	logger.InfoContext(ctx, "automation chained", "event", automation.Trigger.EventName, "executions", len(executionIDs))

	return nil
}
