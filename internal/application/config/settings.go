package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"cors-relay/internal/models/global"

	"gopkg.in/yaml.v3"
)

func defaultSettings() *global.Settings {
	return &global.Settings{
		Server: global.Server{Listen: ":8080"},
		Relay: global.Relay{
			UpstreamTimeout: 60 * time.Second,
			Version:         "dev",
		},
	}
}

// LoadSettings reads the server settings file. A missing file is not an
// error: the relay runs on defaults.
func LoadSettings(path string) (*global.Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultSettings(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg global.Settings
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Relay.UpstreamTimeout == 0 {
		cfg.Relay.UpstreamTimeout = 60 * time.Second
	}
	if cfg.Relay.Version == "" {
		cfg.Relay.Version = "dev"
	}

	return &cfg, nil
}
