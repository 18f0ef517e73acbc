package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type gallery-proxy advertises
	ServiceType = "_gallery-proxy._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for proxy discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 3001

	// DefaultPathPrefix is assumed when an entry carries no path TXT record
	DefaultPathPrefix = "/api"

	// TXT record keys
	TXTPath    = "path"
	TXTVersion = "version"
	TXTTarget  = "target"
)

// Scanner handles mDNS proxy discovery
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan collects every proxy that answers before the timeout
func (s *Scanner) Scan(ctx context.Context) ([]*Proxy, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)

	var mu sync.Mutex
	seen := make(map[string]bool)
	proxies := make([]*Proxy, 0)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			proxy := parseServiceEntry(entry)
			if proxy == nil {
				continue
			}
			mu.Lock()
			if !seen[proxy.Instance] {
				seen[proxy.Instance] = true
				proxies = append(proxies, proxy)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	// The resolver closes entries once the context is done
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return append([]*Proxy(nil), proxies...), nil
}

// First returns the first proxy that answers, or an error on timeout
func (s *Scanner) First(ctx context.Context) (*Proxy, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Proxy, 1)

	go func() {
		for entry := range entries {
			if proxy := parseServiceEntry(entry); proxy != nil {
				select {
				case found <- proxy:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case proxy := <-found:
		return proxy, nil
	case <-ctx.Done():
		select {
		case proxy := <-found:
			return proxy, nil
		default:
		}
		return nil, fmt.Errorf("no gallery proxy found within %s", s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Proxy.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Proxy {
	if entry == nil {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	instance := entry.Instance
	if instance == "" {
		instance = strings.TrimSuffix(entry.HostName, ".")
	}
	if instance == "" {
		instance = ip
	}

	return &Proxy{
		Instance:     instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
