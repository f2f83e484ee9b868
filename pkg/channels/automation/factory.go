package automation

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/models"
	"github.com/fieldflow/fieldflow/pkg/persistence"
)

// AdapterFactory creates automation adapters. Unlike provider-backed
// adapters its dependencies are injected, not configured.
type AdapterFactory struct {
	automations persistence.AutomationRepository
	publisher   eventbus.EventPublisher
}

// NewAdapterFactory creates a new automation adapter factory.
func NewAdapterFactory(automations persistence.AutomationRepository, publisher eventbus.EventPublisher) *AdapterFactory {
	return &AdapterFactory{
		automations: automations,
		publisher:   publisher,
	}
}

// ID returns the automation channel.
func (f *AdapterFactory) ID() models.Channel {
	return models.ChannelAutomation
}

// Name returns the name of the adapter.
func (f *AdapterFactory) Name() string {
	return "Automation"
}

// Description returns a brief description of the adapter.
func (f *AdapterFactory) Description() string {
	return "Triggers a saved automation through the event bus."
}

// Create creates a new adapter. Automation adapters take no configuration.
func (f *AdapterFactory) Create(_ context.Context, _ map[string]any) (channels.Adapter, error) {
	return NewAdapter(f.automations, f.publisher), nil
}

// Schema returns the JSON schema for configuring this adapter.
func (f *AdapterFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}
