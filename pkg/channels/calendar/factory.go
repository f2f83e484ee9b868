package calendar

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

// AdapterFactory creates calendar adapters.
type AdapterFactory struct{}

// NewAdapterFactory creates a new calendar adapter factory.
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// ID returns the calendar channel.
func (f *AdapterFactory) ID() models.Channel {
	return models.ChannelCalendar
}

// Name returns the name of the adapter.
func (f *AdapterFactory) Name() string {
	return "Calendar"
}

// Description returns a brief description of the adapter.
func (f *AdapterFactory) Description() string {
	return "Syncs a linked event to the connected calendars."
}

// Create creates a new adapter from the given configuration.
func (f *AdapterFactory) Create(_ context.Context, config map[string]any) (channels.Adapter, error) {
	return NewAdapter(config)
}

// Schema returns the JSON schema for configuring this adapter.
func (f *AdapterFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_url": map[string]any{
				"type":        "string",
				"description": "Calendar sync API base URL.",
			},
			"api_key": map[string]any{
				"type":        "string",
				"description": "Calendar sync API key.",
			},
			"calendars": map[string]any{
				"type":        "array",
				"description": "Connected calendar identifiers to sync into.",
				"items":       map[string]any{"type": "string"},
			},
		},
		"required":             []string{"api_url", "api_key"},
		"additionalProperties": false,
	}
}
