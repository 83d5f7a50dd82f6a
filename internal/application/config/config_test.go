package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoadRelayConfig(t *testing.T) {
	t.Run("defaults when nothing is set", func(t *testing.T) {
		cfg := LoadRelayConfig(testLogger(), mapLookup(nil))

		if len(cfg.BlacklistUrls) != 0 {
			t.Errorf("Expected empty blacklist, got %v", cfg.BlacklistUrls)
		}
		if len(cfg.WhitelistOrigins) != 1 || cfg.WhitelistOrigins[0] != ".*" {
			t.Errorf("Expected [.*] whitelist, got %v", cfg.WhitelistOrigins)
		}
	})

	t.Run("valid JSON arrays are used", func(t *testing.T) {
		cfg := LoadRelayConfig(testLogger(), mapLookup(map[string]string{
			EnvBlacklistUrls:    `["^https?://malicious\\.com"]`,
			EnvWhitelistOrigins: `["^https://app\\.test$", "^https://admin\\.test$"]`,
		}))

		if len(cfg.BlacklistUrls) != 1 || cfg.BlacklistUrls[0] != `^https?://malicious\.com` {
			t.Errorf("Unexpected blacklist %v", cfg.BlacklistUrls)
		}
		if len(cfg.WhitelistOrigins) != 2 {
			t.Errorf("Unexpected whitelist %v", cfg.WhitelistOrigins)
		}
	})

	t.Run("malformed value falls back without affecting the other", func(t *testing.T) {
		cfg := LoadRelayConfig(testLogger(), mapLookup(map[string]string{
			EnvBlacklistUrls:    `{"not":"an array"}`,
			EnvWhitelistOrigins: `["^https://app\\.test$"]`,
		}))

		if len(cfg.BlacklistUrls) != 0 {
			t.Errorf("Expected blacklist fallback, got %v", cfg.BlacklistUrls)
		}
		if len(cfg.WhitelistOrigins) != 1 || cfg.WhitelistOrigins[0] != `^https://app\.test$` {
			t.Errorf("Expected whitelist preserved, got %v", cfg.WhitelistOrigins)
		}
	})

	t.Run("non-JSON value falls back", func(t *testing.T) {
		cfg := LoadRelayConfig(testLogger(), mapLookup(map[string]string{
			EnvWhitelistOrigins: "not json at all",
		}))

		if len(cfg.WhitelistOrigins) != 1 || cfg.WhitelistOrigins[0] != ".*" {
			t.Errorf("Expected whitelist fallback, got %v", cfg.WhitelistOrigins)
		}
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("reads the settings file", func(t *testing.T) {
		tmpDir := t.TempDir()

		settingsContent := `server:
  listen: ":9090"
  timeouts:
    read: 30s
    write: 30s
    idle: 60s
  limits:
    max_header_bytes: 1048576
relay:
  upstream_timeout: 45s
  version: "2.1.0"`

		settingsFile := filepath.Join(tmpDir, "settings.yml")
		if err := os.WriteFile(settingsFile, []byte(settingsContent), 0644); err != nil {
			t.Fatalf("Failed to create settings file: %v", err)
		}

		settings, err := LoadSettings(settingsFile)
		if err != nil {
			t.Fatalf("Failed to load settings: %v", err)
		}

		if settings.Server.Listen != ":9090" {
			t.Errorf("Expected listen :9090, got %s", settings.Server.Listen)
		}
		if settings.Server.Timeouts.Read != 30*time.Second {
			t.Errorf("Expected read timeout 30s, got %v", settings.Server.Timeouts.Read)
		}
		if settings.Server.Limits.MaxHeaderBytes != 1048576 {
			t.Errorf("Expected max header bytes 1048576, got %d", settings.Server.Limits.MaxHeaderBytes)
		}
		if settings.Relay.UpstreamTimeout != 45*time.Second {
			t.Errorf("Expected upstream timeout 45s, got %v", settings.Relay.UpstreamTimeout)
		}
		if settings.Relay.Version != "2.1.0" {
			t.Errorf("Expected version 2.1.0, got %s", settings.Relay.Version)
		}
	})

	t.Run("missing file runs on defaults", func(t *testing.T) {
		settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yml"))
		if err != nil {
			t.Fatalf("Expected defaults for missing file, got %v", err)
		}

		if settings.Server.Listen != ":8080" {
			t.Errorf("Expected default listen, got %s", settings.Server.Listen)
		}
		if settings.Relay.UpstreamTimeout != 60*time.Second {
			t.Errorf("Expected default upstream timeout, got %v", settings.Relay.UpstreamTimeout)
		}
		if settings.Relay.Version != "dev" {
			t.Errorf("Expected default version, got %s", settings.Relay.Version)
		}
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		tmpDir := t.TempDir()
		settingsFile := filepath.Join(tmpDir, "settings.yml")
		if err := os.WriteFile(settingsFile, []byte("server: [broken"), 0644); err != nil {
			t.Fatalf("Failed to create settings file: %v", err)
		}

		if _, err := LoadSettings(settingsFile); err == nil {
			t.Error("Expected an error for invalid yaml")
		}
	})

	t.Run("partial file is filled with defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		settingsFile := filepath.Join(tmpDir, "settings.yml")
		if err := os.WriteFile(settingsFile, []byte("server:\n  listen: \":7070\""), 0644); err != nil {
			t.Fatalf("Failed to create settings file: %v", err)
		}

		settings, err := LoadSettings(settingsFile)
		if err != nil {
			t.Fatalf("Failed to load settings: %v", err)
		}
		if settings.Server.Listen != ":7070" {
			t.Errorf("Expected listen :7070, got %s", settings.Server.Listen)
		}
		if settings.Relay.UpstreamTimeout != 60*time.Second {
			t.Errorf("Expected default upstream timeout, got %v", settings.Relay.UpstreamTimeout)
		}
	})
}
