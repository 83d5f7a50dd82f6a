package relay

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// CustomHeadersField is the inbound header carrying a JSON object of
// caller-supplied outbound header overrides.
const CustomHeadersField = "x-cors-headers"

// Inbound headers with these (lowercased) name prefixes never reach the
// target: they either leak the relay's presence or belong to the relay
// protocol itself.
var excludedPrefixes = []string{"origin", "referer", "cf-", "x-forw", "x-cors-headers"}

// Preflight defaults, used when the browser does not name the method or
// headers it wants to send.
const (
	defaultAllowMethods = "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS"
	defaultAllowHeaders = "Accept, Accept-Language, Content-Language, Content-Type, Authorization, X-Requested-With, x-cors-headers"
)

// ComposeOutbound builds the outbound header set from three layers, lowest
// precedence first: the fingerprint baseline, the passthrough-filtered
// inbound headers, and the caller's x-cors-headers overrides. A customJSON
// value that does not parse as a JSON object is silently ignored, and
// non-string entries are skipped individually; a malformed override must
// never abort an otherwise-valid relay request.
func ComposeOutbound(profile map[string]string, inbound http.Header, customJSON string) http.Header {
	out := make(http.Header, len(profile)+len(inbound))
	for name, value := range profile {
		out.Set(name, value)
	}

	for name, values := range inbound {
		if excluded(name) {
			continue
		}
		out.Del(name)
		for _, v := range values {
			out.Add(name, v)
		}
	}

	if customJSON == "" {
		return out
	}
	var overrides map[string]any
	if err := json.Unmarshal([]byte(customJSON), &overrides); err != nil {
		return out
	}
	for name, value := range overrides {
		text, ok := value.(string)
		if !ok {
			continue
		}
		// An override that is not a valid field token would corrupt the
		// outbound wire format; skip it, same leniency as malformed JSON.
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(text) {
			continue
		}
		out.Set(name, text)
	}
	return out
}

func excluded(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// ApplyCORS writes the CORS response headers for the given inbound request
// onto h. With an Origin header the exact origin is echoed and credentials
// allowed; without one the wildcard is used. Preflight responses additionally
// negotiate methods and headers and drop X-Content-Type-Options.
func ApplyCORS(h http.Header, r *http.Request, preflight bool) {
	if origin := r.Header.Get("Origin"); origin != "" {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
	} else {
		h.Set("Access-Control-Allow-Origin", "*")
	}

	if !preflight {
		return
	}

	methods := r.Header.Get("Access-Control-Request-Method")
	if methods == "" {
		methods = defaultAllowMethods
	}
	h.Set("Access-Control-Allow-Methods", methods)

	headers := r.Header.Get("Access-Control-Request-Headers")
	if headers == "" {
		headers = defaultAllowHeaders
	}
	h.Set("Access-Control-Allow-Headers", headers)

	h.Del("X-Content-Type-Options")
}
