package telephony

import (
	"context"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

// AdapterFactory creates telephony adapters.
type AdapterFactory struct{}

// NewAdapterFactory creates a new telephony adapter factory.
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{}
}

// ID returns the telephony channel.
func (f *AdapterFactory) ID() models.Channel {
	return models.ChannelTelephony
}

// Name returns the name of the adapter.
func (f *AdapterFactory) Name() string {
	return "Telephony"
}

// Description returns a brief description of the adapter.
func (f *AdapterFactory) Description() string {
	return "Orders and queries business phone numbers through a Twilio-compatible API."
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
			"account_sid": map[string]any{
				"type":        "string",
				"description": "Provider account identifier.",
			},
			"auth_token": map[string]any{
				"type":        "string",
				"description": "Provider auth token.",
			},
			"area_code": map[string]any{
				"type":        "string",
				"description": "Preferred area code for ordered numbers.",
			},
			"api_url": map[string]any{
				"type":        "string",
				"description": "Override the provider API base URL.",
			},
		},
		"required":             []string{"account_sid", "auth_token"},
		"additionalProperties": false,
	}
}
