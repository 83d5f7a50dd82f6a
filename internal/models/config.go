package models

// RelayConfig holds the admission pattern lists, each an ordered sequence of
// regular expressions matched by unanchored search. Both lists come from the
// deployment environment as JSON arrays; see the config package for defaults
// and fallback behavior.
type RelayConfig struct {
	BlacklistUrls    []string
	WhitelistOrigins []string
}
