// Package target extracts the destination URL of a relay request from the
// inbound query string.
//
// Two request forms are supported: an explicit "url" parameter, and a legacy
// form where everything after the "?" is the target itself, possibly
// percent-encoded once or twice. A raw unencoded URL in the legacy form may
// have been split into several key/value pairs by generic query parsing, so
// resolution first tries to reconstruct the original string from the parsed
// pairs before falling back to progressive decoding.
package target

import (
	"net/url"
	"regexp"
	"strings"
)

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

type pair struct {
	key   string
	value string
}

// Resolve returns the normalized absolute target URL for the given raw query
// string, or "" when no resolvable target exists. A non-empty result always
// carries an explicit http:// or https:// scheme.
func Resolve(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := parsePairs(rawQuery)

	candidate := ""
	if v, ok := lookup(pairs, "url"); ok {
		candidate = v
	} else {
		candidate = reconstruct(pairs, rawQuery)
		if candidate == "" {
			candidate = progressiveDecode(rawQuery)
		}
	}

	return normalize(candidate)
}

// parsePairs splits the query into ordered key/value pairs. Order matters for
// reconstruction, so url.ParseQuery (a map) is not usable here. Decoding is
// percent-only (a "+" is a literal plus, not a space) and lenient: a
// component that fails to unescape is kept verbatim.
func parsePairs(rawQuery string) []pair {
	segments := strings.Split(rawQuery, "&")
	pairs := make([]pair, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		pairs = append(pairs, pair{key: decodeComponent(key), value: decodeComponent(value)})
	}
	return pairs
}

func decodeComponent(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func lookup(pairs []pair, key string) (string, bool) {
	for _, p := range pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// reconstruct undoes the damage a key/value parse inflicts on a raw legacy
// target: "https://h/a" parses as a single valueless key, and targets
// containing "&" split into several pairs. The pieces are joined back
// together and accepted only when the result still looks like an absolute
// URL. Triggered when more than one pair was parsed, or a single pair was
// parsed from a query carrying no "=" at all.
func reconstruct(pairs []pair, rawQuery string) string {
	if len(pairs) == 0 {
		return ""
	}
	if len(pairs) == 1 && strings.Contains(rawQuery, "=") {
		return ""
	}

	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			parts = append(parts, p.key+"="+p.value)
		} else {
			parts = append(parts, p.key)
		}
	}

	joined := strings.Join(parts, "/")
	if !schemePrefix.MatchString(joined) {
		return ""
	}
	return joined
}

// progressiveDecode percent-decodes up to two levels, backing off to the last
// successful level on error. It never fails: worst case the input comes back
// unmodified. A "+" is a literal plus in the target, never a space.
func progressiveDecode(s string) string {
	once, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	if !strings.Contains(once, "%") {
		return once
	}
	twice, err := url.PathUnescape(once)
	if err != nil {
		return once
	}
	return twice
}

// normalize prepends https:// when the candidate has no explicit http(s)
// scheme, then parses it as an absolute URL. Candidates that do not parse, or
// parse without a host, resolve to "".
func normalize(candidate string) string {
	if candidate == "" {
		return ""
	}
	if !schemePrefix.MatchString(candidate) {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.String()
}
