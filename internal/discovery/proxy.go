package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Proxy represents a gallery-proxy instance discovered on the network
type Proxy struct {
	// Instance is the mDNS instance name (e.g., "gallery-proxy on studio")
	Instance string

	// Hostname is the mDNS hostname (e.g., "studio.local.")
	Hostname string

	// IP is the advertised address, IPv4 preferred
	IP string

	// Port is the listening port (typically 3001)
	Port int

	// Metadata contains the TXT record data
	// Common fields: "path=/api", "version=1.2.0", "target=dev3.xicomtechnologies.com"
	Metadata map[string]string

	// DiscoveredAt is when the proxy was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the proxy
func (p *Proxy) String() string {
	return fmt.Sprintf("%s (%s) at %s", p.Instance, p.Hostname, net.JoinHostPort(p.IP, strconv.Itoa(p.Port)))
}

// BaseURL returns the gateway base URL served by the proxy, including its path prefix
func (p *Proxy) BaseURL() string {
	prefix := p.GetMetadata(TXTPath)
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(p.IP, strconv.Itoa(p.Port)), strings.TrimRight(prefix, "/"))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Proxy) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
