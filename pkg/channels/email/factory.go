package email

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

// AdapterFactory creates email adapters.
type AdapterFactory struct{}

// NewAdapterFactory creates a new email adapter factory.
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// ID returns the email channel.
func (f *AdapterFactory) ID() models.Channel {
	return models.ChannelEmail
}

// Name returns the name of the adapter.
func (f *AdapterFactory) Name() string {
	return "Email"
}

// Description returns a brief description of the adapter.
func (f *AdapterFactory) Description() string {
	return "Sends email through a Mailgun-compatible messages API."
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
			"domain": map[string]any{
				"type":        "string",
				"description": "Sending domain registered with the provider.",
			},
			"api_key": map[string]any{
				"type":        "string",
				"description": "Provider API key.",
			},
			"from": map[string]any{
				"type":        "string",
				"description": "Sender address, e.g. 'Acme <no-reply@acme.com>'.",
			},
			"api_url": map[string]any{
				"type":        "string",
				"description": "Override the provider API base URL.",
			},
		},
		"required":             []string{"domain", "api_key", "from"},
		"additionalProperties": false,
	}
}
