package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/muurk/gallery/internal/logging"
)

// ErrorBody is written to the client when the upstream cannot be reached
const ErrorBody = "Proxy error"

// ParseTarget validates an upstream URL
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid target URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid target URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q: missing host", raw)
	}
	return u, nil
}

// stripPrefix removes prefix from p, keeping a leading slash
func stripPrefix(p, prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return p
	}
	if p == prefix {
		return "/"
	}
	if strings.HasPrefix(p, prefix+"/") {
		return p[len(prefix):]
	}
	return p
}

// NewForwarder returns a reverse proxy that forwards to target with prefix
// removed from the request path. The Host header is rewritten to the target.
func NewForwarder(target *url.URL, prefix string, hub *Hub) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = stripPrefix(pr.In.URL.Path, prefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ModifyResponse: func(resp *http.Response) error {
			// CORS is decided by this proxy, not by the upstream
			for key := range resp.Header {
				if strings.HasPrefix(http.CanonicalHeaderKey(key), "Access-Control-") {
					resp.Header.Del(key)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			rid := RequestIDFromContext(r.Context())
			logging.Error("Proxy error",
				zap.String("request_id", rid),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			if hub != nil {
				hub.Publish(Event{
					Type:      EventError,
					RequestID: rid,
					Method:    r.Method,
					Path:      r.URL.Path,
					Error:     err.Error(),
				})
			}
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(ErrorBody))
		},
	}
}
