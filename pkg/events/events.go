// Package events defines event types and structures for workflow lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldflow/fieldflow/pkg/models"
)

type EventType string

// Topic is the single event topic; consumers dispatch on the event type
// carried in message metadata.
const Topic = "fieldflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Trigger events.
	TriggerFiredEvent        EventType = "trigger.fired"
	AutomationTriggeredEvent EventType = "automation.triggered"

	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	StepCompletedEvent      EventType = "execution.step.completed"

	// Editor events.
	WorkflowSavedEvent EventType = "workflow.saved"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}

// TriggerFired carries a business event onto the bus. The worker ingests it
// and starts every workflow whose trigger is bound to the event name.
type TriggerFired struct {
	BaseEvent

	EventName string         `json:"event_name"`
	Payload   map[string]any `json:"payload,omitempty"`
}

func (t TriggerFired) GetType() EventType {
	return TriggerFiredEvent
}

// AutomationTriggered is published when an automation node dispatches its
// saved automation.
type AutomationTriggered struct {
	BaseEvent

	AutomationID string         `json:"automation_id"`
	ExecutionID  string         `json:"execution_id"`
	NodeID       string         `json:"node_id"`
	Payload      map[string]any `json:"payload,omitempty"`
}

func (a AutomationTriggered) GetType() EventType {
	return AutomationTriggeredEvent
}

// Execution lifecycle events

type ExecutionStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowName string         `json:"workflow_name"`
	Input        map[string]any `json:"input,omitempty"`
	StepCount    int            `json:"step_count"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	DurationMs    int64          `json:"duration_ms"`
	StepsExecuted int            `json:"steps_executed"`
	Output        map[string]any `json:"output,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	Error         string `json:"error"`
	FailedNodeID  string `json:"failed_node_id,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
	StepsExecuted int    `json:"steps_executed"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

// StepCompleted is published when one node reaches a terminal step status,
// including failed and skipped.
type StepCompleted struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	NodeID      string            `json:"node_id"`
	Status      models.StepStatus `json:"status"`
	Output      map[string]any    `json:"output,omitempty"`
	Error       string            `json:"error,omitempty"`
	DurationMs  int64             `json:"duration_ms"`
}

func (s StepCompleted) GetType() EventType {
	return StepCompletedEvent
}

// WorkflowSaved is published after the editor sync controller persists a
// workflow revision.
type WorkflowSaved struct {
	BaseEvent

	Revision int       `json:"revision"`
	SavedAt  time.Time `json:"saved_at"`
}

func (w WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}
