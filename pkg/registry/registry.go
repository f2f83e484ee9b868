// Package registry maintains the set of channel adapter factories available
// to the engine.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"strings"

	"github.com/fieldflow/fieldflow/pkg/channels"
	"github.com/fieldflow/fieldflow/pkg/models"
)

// Registry maps channels to adapter factories. Factories are registered at
// startup; lookups during execution are read-only.
type Registry struct {
	logger           *slog.Logger
	adapterFactories map[models.Channel]channels.AdapterFactory
	adapterConfigs   map[models.Channel]map[string]any
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:           logger,
		adapterFactories: make(map[models.Channel]channels.AdapterFactory),
		adapterConfigs:   make(map[models.Channel]map[string]any),
	}
}

// RegisterAdapter registers a factory with an optional static configuration
// used when the engine creates adapters.
func (r *Registry) RegisterAdapter(factory channels.AdapterFactory, config map[string]any) {
	r.adapterFactories[factory.ID()] = factory
	r.adapterConfigs[factory.ID()] = config
}

// CreateAdapter creates an adapter for a channel using the configuration
// registered with its factory.
func (r *Registry) CreateAdapter(ctx context.Context, channel models.Channel) (channels.Adapter, error) {
	factory, ok := r.adapterFactories[channel]
	if !ok {
		return nil, fmt.Errorf("channel %q not registered: %w", channel, channels.ErrUnknownChannel)
	}

	return factory.Create(ctx, r.adapterConfigs[channel])
}

// AvailableChannels lists the channels with a registered factory.
func (r *Registry) AvailableChannels() []models.Channel {
	out := make([]models.Channel, 0, len(r.adapterFactories))
	for channel := range r.adapterFactories {
		out = append(out, channel)
	}

	return out
}

// AdapterSchema returns the configuration schema for a channel's factory.
func (r *Registry) AdapterSchema(channel models.Channel) (map[string]any, error) {
	factory, ok := r.adapterFactories[channel]
	if !ok {
		return nil, fmt.Errorf("channel %q not registered: %w", channel, channels.ErrUnknownChannel)
	}

	return factory.Schema(), nil
}

// LoadAdapterPlugins loads adapter factories from shared-object plugins under
// pluginsPath/adapters.
func (r *Registry) LoadAdapterPlugins(pluginsPath string) ([]channels.AdapterFactory, error) {
	return loadPlugin[channels.AdapterFactory](r.logger, pluginsPath, "Adapter")
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("failed to look up symbol in plugin %s: %w", p, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s does not implement the %s protocol", p, symbolName)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
