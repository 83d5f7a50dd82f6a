package config

import (
	"encoding/json"
	"log/slog"

	"cors-relay/internal/models"
)

// Environment keys supplying the admission pattern lists as JSON arrays of
// regex strings.
const (
	EnvBlacklistUrls    = "CORS_BLACKLIST_URLS"
	EnvWhitelistOrigins = "CORS_WHITELIST_ORIGINS"
)

var (
	defaultBlacklistUrls    = []string{}
	defaultWhitelistOrigins = []string{".*"}
)

// LoadRelayConfig reads the blacklist/whitelist pattern lists through the
// supplied lookup (os.LookupEnv in production). A missing, malformed, or
// non-array value falls back to that one setting's default; the other
// setting is unaffected.
func LoadRelayConfig(logger *slog.Logger, lookup func(string) (string, bool)) *models.RelayConfig {
	return &models.RelayConfig{
		BlacklistUrls:    patternList(logger, lookup, EnvBlacklistUrls, defaultBlacklistUrls),
		WhitelistOrigins: patternList(logger, lookup, EnvWhitelistOrigins, defaultWhitelistOrigins),
	}
}

func patternList(logger *slog.Logger, lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || raw == "" {
		return fallback
	}

	var patterns []string
	if err := json.Unmarshal([]byte(raw), &patterns); err != nil {
		logger.Warn("invalid pattern list, falling back to default", "key", key, "error", err)
		return fallback
	}

	return patterns
}
