// Package config loads channel adapter configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelsFile is the structure of the channels.yaml file. Each key under
// channels is a channel id (sms, whatsapp, email, social, calendar,
// telephony) mapping to that adapter's configuration.
type ChannelsFile struct {
	Channels map[string]map[string]any `yaml:"channels"`
}

// LoadChannels reads adapter configurations from a YAML file. A missing file
// is not an error; it returns an empty map so environment defaults apply.
func LoadChannels(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]map[string]any{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read channels config %s: %w", path, err)
	}

	var file ChannelsFile

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse channels config %s: %w", path, err)
	}

	if file.Channels == nil {
		file.Channels = map[string]map[string]any{}
	}

	return file.Channels, nil
}

// Merge overlays file-provided values onto environment defaults. File values
// win; empty file values fall back to the default.
func Merge(defaults, overrides map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(overrides))

	for key, value := range defaults {
		merged[key] = value
	}

	for key, value := range overrides {
		if s, ok := value.(string); ok && s == "" {
			continue
		}

		merged[key] = value
	}

	return merged
}
