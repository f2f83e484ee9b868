package sms

import (
	"context"
	"encoding/base64"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

// AdapterFactory creates messaging adapters for one channel.
type AdapterFactory struct {
	channel models.Channel
}

// NewAdapterFactory creates a factory for the sms channel.
func NewAdapterFactory() *AdapterFactory {
	return &AdapterFactory{channel: models.ChannelSMS}
}

// NewWhatsAppAdapterFactory creates a factory for the whatsapp channel.
func NewWhatsAppAdapterFactory() *AdapterFactory {
	return &AdapterFactory{channel: models.ChannelWhatsApp}
}

// ID returns the channel this factory serves.
func (f *AdapterFactory) ID() models.Channel {
	return f.channel
}

// Name returns the name of the adapter.
func (f *AdapterFactory) Name() string {
	if f.channel == models.ChannelWhatsApp {
		return "WhatsApp"
	}

	return "SMS"
}

// Description returns a brief description of the adapter.
func (f *AdapterFactory) Description() string {
	return "Sends text messages through a Twilio-compatible messaging API."
}

// Create creates a new adapter from the given configuration.
func (f *AdapterFactory) Create(_ context.Context, config map[string]any) (channels.Adapter, error) {
	return NewAdapter(f.channel, config)
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
			"from": map[string]any{
				"type":        "string",
				"description": "Sender phone number in E.164 format.",
			},
			"api_url": map[string]any{
				"type":        "string",
				"description": "Override the provider API base URL.",
			},
		},
		"required":             []string{"account_sid", "auth_token", "from"},
		"additionalProperties": false,
	}
}

func basicAuth(user, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
}
