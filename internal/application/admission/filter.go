// Package admission gates relay requests: the resolved target URL is checked
// against a blacklist and the caller's Origin header against a whitelist,
// both ordered lists of regular expressions matched by unanchored search.
package admission

import (
	"log/slog"
	"regexp"

	"cors-relay/internal/models"
)

type Filter struct {
	blacklist []*regexp.Regexp
	whitelist []*regexp.Regexp
}

// NewFilter compiles the configured pattern lists. A pattern that fails to
// compile is skipped rather than taking the relay down.
func NewFilter(logger *slog.Logger, cfg *models.RelayConfig) *Filter {
	return &Filter{
		blacklist: compile(logger, cfg.BlacklistUrls),
		whitelist: compile(logger, cfg.WhitelistOrigins),
	}
}

func compile(logger *slog.Logger, patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn("skipping invalid admission pattern", "pattern", p, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

// Admit reports whether a request for target with the given Origin header
// value may be relayed. An empty origin means the caller sent no Origin
// header and is accepted unconditionally; an empty target never is.
func (f *Filter) Admit(target, origin string) bool {
	if target == "" {
		return false
	}
	if matchAny(f.blacklist, target) {
		return false
	}
	if origin == "" {
		return true
	}
	return matchAny(f.whitelist, origin)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
