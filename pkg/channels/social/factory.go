package social

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

// AdapterFactory creates social adapters.
type AdapterFactory struct{}

// NewAdapterFactory creates a new social adapter factory.
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// ID returns the social channel.
func (f *AdapterFactory) ID() models.Channel {
	return models.ChannelSocial
}

// Name returns the name of the adapter.
func (f *AdapterFactory) Name() string {
	return "Social"
}

// Description returns a brief description of the adapter.
func (f *AdapterFactory) Description() string {
	return "Publishes posts to social platforms through an aggregator API."
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
				"description": "Aggregator API base URL.",
			},
			"api_key": map[string]any{
				"type":        "string",
				"description": "Aggregator API key.",
			},
		},
		"required":             []string{"api_url", "api_key"},
		"additionalProperties": false,
	}
}
