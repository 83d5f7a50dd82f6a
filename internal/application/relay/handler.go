// Package relay implements the request/response transformation pipeline: the
// inbound cross-origin request is rewritten into a fingerprinted outbound
// request, and the upstream response is rewritten so the browser's CORS
// policy accepts it.
package relay

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"cors-relay/internal/application/admission"
	"cors-relay/internal/application/fingerprint"
	"cors-relay/internal/application/target"
)

// Handler is the relay endpoint. It resolves the target from the query
// string, gates it through the admission filter, and either answers the
// preflight synthetically or forwards the request with a fingerprinted
// header set.
type Handler struct {
	Logger   *slog.Logger
	Filter   *admission.Filter
	Executor *Executor
	Version  string
}

func NewHandler(logger *slog.Logger, filter *admission.Filter, executor *Executor, version string) *Handler {
	return &Handler{
		Logger:   logger,
		Filter:   filter,
		Executor: executor,
		Version:  version,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	w.Header().Set("X-Request-ID", requestID)
	logger := h.Logger.With("request_id", requestID)

	targetURL := target.Resolve(r.URL.RawQuery)
	if targetURL == "" {
		// No target and an unparseable target are the same outcome: the
		// informational page, not an error.
		h.serveInfo(w, r)
		return
	}

	origin := r.Header.Get("Origin")
	if !h.Filter.Admit(targetURL, origin) {
		logger.Warn("request denied", "target", targetURL, "origin", origin)
		ApplyCORS(w.Header(), r, false)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintln(w, "Access denied: target or origin is not permitted by this relay")
		return
	}

	if r.Method == http.MethodOptions {
		h.servePreflight(w, r)
		return
	}

	h.serveRelay(w, r, logger, targetURL, origin)
}

// servePreflight answers the browser's OPTIONS negotiation synthetically; a
// preflight is never forwarded to the target.
func (h *Handler) servePreflight(w http.ResponseWriter, r *http.Request) {
	ApplyCORS(w.Header(), r, true)
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) serveRelay(w http.ResponseWriter, r *http.Request, logger *slog.Logger, targetURL, origin string) {
	profile := fingerprint.Select(targetURL)
	outbound := ComposeOutbound(profile.Headers(origin), r.Header, r.Header.Get(CustomHeadersField))

	resp, err := h.Executor.Do(r, targetURL, outbound)
	if err != nil {
		logger.Warn("relay failed", "target", targetURL, "error", err)
		ApplyCORS(w.Header(), r, false)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "relay to %s failed: %v\n", targetURL, err)
		return
	}
	defer resp.Body.Close()

	ExposeUpstream(w.Header(), resp.Header)
	ApplyCORS(w.Header(), r, false)

	if ShouldStream(resp, r, targetURL) {
		// Completion cannot be awaited before responding, so the outcome is
		// logged as soon as the upstream headers arrive.
		logger.Info("relay streaming", "target", targetURL, "status", resp.StatusCode, "profile", profile.Name)
		w.Header().Del("Content-Length")
		w.WriteHeader(resp.StatusCode)
		flushCopy(w, resp.Body)
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("upstream body read failed", "target", targetURL, "error", err)
		w.Header().Del("Content-Length")
		http.Error(w, "failed to read upstream body: "+err.Error(), http.StatusBadGateway)
		return
	}

	logger.Info("relay complete", "target", targetURL, "status", resp.StatusCode, "profile", profile.Name, "bytes", len(body))

	if r.Method != http.MethodHead {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(body)
}

// serveInfo answers requests with no resolvable target: a plain usage page
// that still carries CORS headers so a browser caller can read it.
func (h *Handler) serveInfo(w http.ResponseWriter, r *http.Request) {
	ApplyCORS(w.Header(), r, r.Method == http.MethodOptions)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, infoPage, h.Version, clientIP(r), clientCountry(r), clientDatacenter(r))
}

const infoPage = `cors-relay %s

Usage:

  /?url=https://example.com/api      explicit target parameter
  /?https://example.com/api          legacy raw-suffix form (may be
                                     percent-encoded once or twice)

Send an x-cors-headers request header containing a JSON object to override
outbound headers. Every upstream response header is mirrored back in the
cors-received-headers response header.

Client IP:  %s
Country:    %s
Datacenter: %s
`

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func clientCountry(r *http.Request) string {
	if c := r.Header.Get("CF-IPCountry"); c != "" {
		return c
	}
	return "unknown"
}

// clientDatacenter reads the colo identifier from the trailing segment of an
// edge ray ID, when one is present.
func clientDatacenter(r *http.Request) string {
	ray := r.Header.Get("CF-Ray")
	if i := strings.LastIndex(ray, "-"); i >= 0 && i < len(ray)-1 {
		return ray[i+1:]
	}
	return "unknown"
}

// flushCopy forwards the upstream body chunk by chunk, flushing after every
// write so event-stream payloads reach the client as they arrive.
func flushCopy(w http.ResponseWriter, body io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if rerr != nil {
			return
		}
	}
}
