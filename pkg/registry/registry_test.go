package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/channels/sms"
	"github.com/fieldflow/fieldflow/pkg/models"
)

func smsConfig() map[string]any {
	return map[string]any{
		"account_sid": "AC1",
		"auth_token":  "t",
		"from":        "+15550001111",
	}
}

func TestRegistry_CreateAdapter(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.RegisterAdapter(sms.NewAdapterFactory(), smsConfig())

	adapter, err := r.CreateAdapter(context.Background(), models.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, models.ChannelSMS, adapter.Channel())
}

func TestRegistry_CreateAdapterUnknownChannel(t *testing.T) {
	r := NewRegistry(slog.Default())

	_, err := r.CreateAdapter(context.Background(), models.ChannelEmail)
	require.ErrorIs(t, err, channels.ErrUnknownChannel)
}

func TestRegistry_AvailableChannels(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.RegisterAdapter(sms.NewAdapterFactory(), smsConfig())
	r.RegisterAdapter(sms.NewWhatsAppAdapterFactory(), smsConfig())

	available := r.AvailableChannels()
	assert.ElementsMatch(t, []models.Channel{models.ChannelSMS, models.ChannelWhatsApp}, available)
}

func TestRegistry_AdapterSchema(t *testing.T) {
	r := NewRegistry(slog.Default())
	r.RegisterAdapter(sms.NewAdapterFactory(), smsConfig())

	schema, err := r.AdapterSchema(models.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, "object", schema["type"])
}
