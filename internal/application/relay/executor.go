package relay

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ReceivedHeadersField mirrors every upstream response header back to the
// caller as one JSON object. Browsers strip forbidden response headers such
// as Set-Cookie before script can read them; the mirror keeps them readable.
const ReceivedHeadersField = "cors-received-headers"

// Connection-scoped headers, never forwarded to the caller.
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Proxy-Connection":    true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// Executor issues the outbound request. It holds no per-request state; one
// executor serves all requests concurrently.
type Executor struct {
	Client *http.Client
}

// NewExecutor builds an executor whose timeout bounds the wait for upstream
// response headers only. A whole-exchange client timeout would cut off
// streamed bodies that legitimately outlive it; once headers have arrived,
// body delivery is limited only by the inbound request's lifetime.
func NewExecutor(timeout time.Duration) *Executor {
	transport := &http.Transport{
		MaxIdleConns:          1000,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &Executor{
		Client: &http.Client{
			Transport: transport,
		},
	}
}

// Do forwards the inbound method and body to target with the composed header
// set, propagating the inbound request context so a dropped client connection
// cancels the upstream fetch. Redirects are followed by the client.
func (e *Executor) Do(r *http.Request, target string, headers http.Header) (*http.Response, error) {
	body := r.Body
	if r.ContentLength == 0 {
		body = nil
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	if r.ContentLength > 0 {
		req.ContentLength = r.ContentLength
	}

	return e.Client.Do(req)
}

// ExposeUpstream copies the upstream response headers onto the client
// response (minus hop-by-hop), then makes every upstream header readable to
// calling script: Access-Control-Expose-Headers names them all, and the
// mirrored JSON field carries their values.
func ExposeUpstream(dst http.Header, upstream http.Header) {
	received := make(map[string]string, len(upstream))
	names := make([]string, 0, len(upstream))

	for name, values := range upstream {
		names = append(names, name)
		received[name] = strings.Join(values, ", ")
		if hopByHopHeaders[name] {
			continue
		}
		dst[name] = append([]string(nil), values...)
	}

	sort.Strings(names)
	dst.Set("Access-Control-Expose-Headers", strings.Join(append(names, ReceivedHeadersField), ", "))

	if payload, err := json.Marshal(received); err == nil {
		dst.Set(ReceivedHeadersField, string(payload))
	}
}

// ShouldStream reports whether the upstream response must be forwarded as a
// live byte stream instead of buffered whole: event streams and chunked or
// newline-delimited payloads lose their value if held back until EOF. The
// caller can also force streaming with a stream=true|1 query parameter on the
// target URL.
func ShouldStream(resp *http.Response, r *http.Request, target string) bool {
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "text/event-stream"):
		return true
	case chunked(resp):
		return true
	case strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/event-stream"):
		return true
	case streamParam(target):
		return true
	case strings.Contains(contentType, "application/x-ndjson"):
		return true
	}
	return false
}

func chunked(resp *http.Response) bool {
	for _, enc := range resp.TransferEncoding {
		if strings.EqualFold(enc, "chunked") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(resp.Header.Get("Transfer-Encoding")), "chunked")
}

func streamParam(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	v := u.Query().Get("stream")
	return v == "true" || v == "1"
}
