// Package fingerprint holds the browser header bundles used as the baseline
// for outbound relay requests. Selection is a pure function of the target
// URL, so repeated requests to the same destination always present the same
// browser.
package fingerprint

// Profile is a fixed bundle of HTTP headers mimicking one real browser/OS
// combination. The table below is built once at process start and never
// mutated; Headers returns a fresh per-request copy.
type Profile struct {
	Name    string
	headers map[string]string
}

var profiles = []*Profile{
	{
		Name: "chrome-windows",
		headers: map[string]string{
			"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			"Accept":             "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
			"Accept-Language":    "en-US,en;q=0.9",
			"Accept-Encoding":    "gzip, deflate, br, zstd",
			"Sec-Ch-Ua":          `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
			"Sec-Ch-Ua-Mobile":   "?0",
			"Sec-Ch-Ua-Platform": `"Windows"`,
			"Sec-Fetch-Dest":     "empty",
			"Sec-Fetch-Mode":     "cors",
		},
	},
	{
		Name: "chrome-macos",
		headers: map[string]string{
			"User-Agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			"Accept":             "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
			"Accept-Language":    "en-US,en;q=0.9",
			"Accept-Encoding":    "gzip, deflate, br, zstd",
			"Sec-Ch-Ua":          `"Not/A)Brand";v="8", "Chromium";v="126", "Google Chrome";v="126"`,
			"Sec-Ch-Ua-Mobile":   "?0",
			"Sec-Ch-Ua-Platform": `"macOS"`,
			"Sec-Fetch-Dest":     "empty",
			"Sec-Fetch-Mode":     "cors",
		},
	},
	{
		Name: "firefox-windows",
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.5",
			"Accept-Encoding": "gzip, deflate, br, zstd",
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
		},
	},
	{
		Name: "safari-macos",
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Accept-Encoding": "gzip, deflate, br",
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
		},
	},
}

// Select deterministically picks a profile for the given target URL: a
// 31-based rolling hash with signed 32-bit wraparound, absolute value, then
// reduced modulo the profile count.
func Select(targetURL string) *Profile {
	var h int32
	for _, r := range targetURL {
		h = h*31 + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return profiles[v%int64(len(profiles))]
}

// Headers materializes the outbound baseline for one request. Referer and
// Sec-Fetch-Site depend on whether the caller sent an Origin header: with an
// origin the request looks like a cross-site fetch from that page, without
// one it looks like a direct navigation.
func (p *Profile) Headers(origin string) map[string]string {
	h := make(map[string]string, len(p.headers)+2)
	for k, v := range p.headers {
		h[k] = v
	}
	if origin != "" {
		h["Referer"] = origin
		h["Sec-Fetch-Site"] = "cross-site"
	} else {
		h["Referer"] = "https://www.google.com/"
		h["Sec-Fetch-Site"] = "none"
	}
	return h
}
