package config

import (
	"sort"
	"strings"
	"time"

	"github.com/muurk/gallery/internal/urls"
)

const (
	// CurrentVersion is the only config file version understood
	CurrentVersion = 1

	DefaultBaseURL        = urls.Endpoint
	DefaultProxyURL       = urls.LocalProxy
	DefaultProxyTarget    = urls.SecureEndpoint
	DefaultUserID         = "108"
	DefaultCategory       = "popular"
	DefaultTimeoutSeconds = 15
	DefaultListenAddr     = ":3001"
	DefaultPathPrefix     = "/api"
	DefaultServiceName    = "gallery-proxy"
	DefaultDiscoverSecs   = 5
)

// Registry represents the entire user configuration file.
type Registry struct {
	Version  int                    `yaml:"version"`
	Endpoint *EndpointConfig        `yaml:"endpoint,omitempty"`
	Client   *ClientConfig          `yaml:"client,omitempty"`
	Proxy    *ProxyConfig           `yaml:"proxy,omitempty"`
	Proxies  map[string]*KnownProxy `yaml:"proxies,omitempty"` // Keyed by mDNS instance name
}

// EndpointConfig selects where gateway requests go
type EndpointConfig struct {
	BaseURL  string `yaml:"base_url"`            // Remote endpoint root
	ProxyURL string `yaml:"proxy_url,omitempty"` // Local proxy root including its path prefix
	UseProxy bool   `yaml:"use_proxy"`           // Route requests through ProxyURL
}

// ClientConfig holds request parameters sent with every listing call
type ClientConfig struct {
	UserID          string `yaml:"user_id"`
	Category        string `yaml:"category"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	DiscoverTimeout int    `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

// ProxyConfig configures gallery-proxy serve
type ProxyConfig struct {
	Listen         string   `yaml:"listen"`
	Target         string   `yaml:"target,omitempty"` // See ProxyTarget
	PathPrefix     string   `yaml:"path_prefix"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"` // Empty means any origin
	Advertise      bool     `yaml:"advertise"`
	ServiceName    string   `yaml:"service_name"`
}

// KnownProxy remembers a proxy found on the local network
type KnownProxy struct {
	Nickname string    `yaml:"nickname,omitempty"`
	LastURL  string    `yaml:"last_url"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	r := &Registry{Version: CurrentVersion}
	r.applyDefaults()
	return r
}

// applyDefaults fills in missing sections and zero values
func (r *Registry) applyDefaults() {
	if r.Endpoint == nil {
		r.Endpoint = &EndpointConfig{}
	}
	if r.Endpoint.BaseURL == "" {
		r.Endpoint.BaseURL = DefaultBaseURL
	}
	if r.Endpoint.ProxyURL == "" {
		r.Endpoint.ProxyURL = DefaultProxyURL
	}

	if r.Client == nil {
		r.Client = &ClientConfig{}
	}
	if r.Client.UserID == "" {
		r.Client.UserID = DefaultUserID
	}
	if r.Client.Category == "" {
		r.Client.Category = DefaultCategory
	}
	if r.Client.TimeoutSeconds == 0 {
		r.Client.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if r.Client.DiscoverTimeout == 0 {
		r.Client.DiscoverTimeout = DefaultDiscoverSecs
	}

	if r.Proxy == nil {
		r.Proxy = &ProxyConfig{}
	}
	if r.Proxy.Listen == "" {
		r.Proxy.Listen = DefaultListenAddr
	}
	if r.Proxy.PathPrefix == "" {
		r.Proxy.PathPrefix = DefaultPathPrefix
	}
	if r.Proxy.ServiceName == "" {
		r.Proxy.ServiceName = DefaultServiceName
	}

	if r.Proxies == nil {
		r.Proxies = make(map[string]*KnownProxy)
	}
}

// EffectiveBaseURL returns the proxy URL when proxying is enabled, else the remote base URL
func (r *Registry) EffectiveBaseURL() string {
	if r.Endpoint.UseProxy && strings.TrimSpace(r.Endpoint.ProxyURL) != "" {
		return strings.TrimRight(r.Endpoint.ProxyURL, "/")
	}
	return strings.TrimRight(r.Endpoint.BaseURL, "/")
}

// Timeout returns the configured request timeout
func (r *Registry) Timeout() time.Duration {
	return time.Duration(r.Client.TimeoutSeconds) * time.Second
}

// ProxyTarget returns where the proxy forwards to: proxy.target when set,
// the https endpoint while base_url is the default, else base_url.
func (r *Registry) ProxyTarget() string {
	if r.Proxy.Target != "" {
		return r.Proxy.Target
	}
	if strings.TrimRight(r.Endpoint.BaseURL, "/") == DefaultBaseURL {
		return DefaultProxyTarget
	}
	return r.Endpoint.BaseURL
}

// EnsureProxy ensures a known-proxy entry exists and returns it.
func (r *Registry) EnsureProxy(name string) *KnownProxy {
	if r.Proxies == nil {
		r.Proxies = make(map[string]*KnownProxy)
	}
	if p, ok := r.Proxies[name]; ok {
		return p
	}
	p := &KnownProxy{}
	r.Proxies[name] = p
	return p
}

// UpdateProxyLastSeen records where and when a proxy was last discovered.
func (r *Registry) UpdateProxyLastSeen(name, url string) {
	p := r.EnsureProxy(name)
	p.LastURL = url
	p.LastSeen = time.Now()
}

// MostRecentProxy returns the most recently seen proxy, or nil if none is known.
func (r *Registry) MostRecentProxy() (string, *KnownProxy) {
	names := make([]string, 0, len(r.Proxies))
	for name := range r.Proxies {
		names = append(names, name)
	}
	sort.Strings(names)

	var bestName string
	var best *KnownProxy
	for _, name := range names {
		p := r.Proxies[name]
		if p == nil || p.LastURL == "" {
			continue
		}
		if best == nil || p.LastSeen.After(best.LastSeen) {
			bestName, best = name, p
		}
	}
	return bestName, best
}
