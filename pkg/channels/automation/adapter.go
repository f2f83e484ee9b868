// Package automation dispatches automation nodes by resolving the bound
// automation record and publishing its trigger on the event bus.
package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/events"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

var (
	// ErrPayloadMismatch is returned when a node carries a non-automation payload.
	ErrPayloadMismatch = errors.New("node payload is not an automation payload")
	// ErrAutomationInactive is returned when the bound automation is disabled.
	ErrAutomationInactive = errors.New("automation is not active")
)

// Adapter dispatches automation nodes. The side effect is an
// automation.triggered event; downstream consumers run the automation.
type Adapter struct {
	automations persistence.AutomationRepository
	publisher   eventbus.EventPublisher
}

// NewAdapter creates an automation adapter over the automation store and the
// event bus.
func NewAdapter(automations persistence.AutomationRepository, publisher eventbus.EventPublisher) *Adapter {
	return &Adapter{
		automations: automations,
		publisher:   publisher,
	}
}

// Channel returns the automation channel.
func (a *Adapter) Channel() models.Channel {
	return models.ChannelAutomation
}

// Dispatch resolves the node's automation and publishes its trigger. A
// missing or inactive automation is a failed dispatch, not an adapter error.
func (a *Adapter) Dispatch(ctx context.Context, node *models.Node, execution *models.Execution) (*models.DispatchResult, error) {
	payload, ok := node.Data.(*models.AutomationPayload)
	if !ok {
		return nil, fmt.Errorf("node %s: %w", node.ID, ErrPayloadMismatch)
	}

	automation, err := a.automations.AutomationByID(ctx, payload.AutomationID)
	if err != nil {
		return &models.DispatchResult{
			Channel: models.ChannelAutomation,
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	if !automation.IsActive {
		return &models.DispatchResult{
			Channel: models.ChannelAutomation,
			Success: false,
			Error:   fmt.Sprintf("automation %s: %v", automation.ID, ErrAutomationInactive),
		}, nil
	}

	event := events.AutomationTriggered{
		BaseEvent:    events.NewBaseEvent(events.AutomationTriggeredEvent, execution.WorkflowID),
		AutomationID: automation.ID,
		ExecutionID:  execution.ID,
		NodeID:       node.ID,
		Payload:      execution.Input,
	}

	err = a.publisher.Publish(ctx, execution.WorkflowID, event)
	if err != nil {
		return &models.DispatchResult{
			Channel: models.ChannelAutomation,
			Success: false,
			Error:   fmt.Sprintf("failed to publish automation trigger: %v", err),
		}, nil
	}

	return &models.DispatchResult{
		Channel:    models.ChannelAutomation,
		Success:    true,
		ExternalID: automation.ID,
	}, nil
}
