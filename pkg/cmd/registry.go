package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/fieldflow/fieldflow/pkg/channels/automation"
	"github.com/fieldflow/fieldflow/pkg/channels/calendar"
	"github.com/fieldflow/fieldflow/pkg/channels/email"
	"github.com/fieldflow/fieldflow/pkg/channels/sms"
	"github.com/fieldflow/fieldflow/pkg/channels/social"
	"github.com/fieldflow/fieldflow/pkg/channels/telephony"
	"github.com/fieldflow/fieldflow/pkg/config"
	"github.com/fieldflow/fieldflow/pkg/eventbus"
	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/registry"
)

// NewRegistry builds the channel adapter registry with the native adapters
// plus any adapter plugins found under pluginsPath. Provider credentials come
// from the environment, optionally overridden per channel by a channels.yaml
// file; an adapter with missing credentials stays registered and fails with a
// configuration error when first used.
func NewRegistry(
	ctx context.Context,
	logger *slog.Logger,
	pluginsPath string,
	channelsConfigPath string,
	p persistence.Persistence,
	publisher eventbus.EventPublisher,
) *registry.Registry {
	reg := registry.NewRegistry(logger)

	overrides := map[string]map[string]any{}

	if channelsConfigPath != "" {
		loaded, err := config.LoadChannels(channelsConfigPath)
		if err != nil {
			logger.WarnContext(ctx, "failed to load channels config", "path", channelsConfigPath, "error", err)
		} else {
			overrides = loaded
		}
	}

	twilio := map[string]any{
		"account_sid": os.Getenv("TWILIO_ACCOUNT_SID"),
		"auth_token":  os.Getenv("TWILIO_AUTH_TOKEN"),
		"from":        os.Getenv("TWILIO_FROM"),
		"api_url":     os.Getenv("TWILIO_API_URL"),
	}

	reg.RegisterAdapter(sms.NewAdapterFactory(), config.Merge(twilio, overrides["sms"]))
	reg.RegisterAdapter(sms.NewWhatsAppAdapterFactory(), config.Merge(twilio, overrides["whatsapp"]))

	reg.RegisterAdapter(email.NewAdapterFactory(), config.Merge(map[string]any{
		"domain":  os.Getenv("MAILGUN_DOMAIN"),
		"api_key": os.Getenv("MAILGUN_API_KEY"),
		"from":    os.Getenv("MAILGUN_FROM"),
		"api_url": os.Getenv("MAILGUN_API_URL"),
	}, overrides["email"]))

	reg.RegisterAdapter(social.NewAdapterFactory(), config.Merge(map[string]any{
		"api_url": os.Getenv("SOCIAL_API_URL"),
		"api_key": os.Getenv("SOCIAL_API_KEY"),
	}, overrides["social"]))

	reg.RegisterAdapter(calendar.NewAdapterFactory(), config.Merge(map[string]any{
		"api_url": os.Getenv("CALENDAR_API_URL"),
		"api_key": os.Getenv("CALENDAR_API_KEY"),
	}, overrides["calendar"]))

	reg.RegisterAdapter(telephony.NewAdapterFactory(), config.Merge(map[string]any{
		"account_sid": os.Getenv("TWILIO_ACCOUNT_SID"),
		"auth_token":  os.Getenv("TWILIO_AUTH_TOKEN"),
		"area_code":   os.Getenv("TELEPHONY_AREA_CODE"),
		"api_url":     os.Getenv("TWILIO_API_URL"),
	}, overrides["telephony"]))

	reg.RegisterAdapter(automation.NewAdapterFactory(p.AutomationRepository(), publisher), nil)

	if pluginsPath != "" {
		registerAdapterPlugins(ctx, reg, logger, pluginsPath)
	}

	return reg
}

func registerAdapterPlugins(ctx context.Context, reg *registry.Registry, logger *slog.Logger, pluginsPath string) {
	plugins, err := reg.LoadAdapterPlugins(pluginsPath)
	if err != nil {
		logger.WarnContext(ctx, "failed to load adapter plugins", "path", pluginsPath, "error", err)

		return
	}

	for _, plugin := range plugins {
		reg.RegisterAdapter(plugin, nil)
	}
}
