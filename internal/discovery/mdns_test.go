package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name         string
		entry        *zeroconf.ServiceEntry
		wantNil      bool
		wantInstance string
		wantIP       string
		wantPort     int
	}{
		{
			name:         "proxy with IPv4",
			entry:        entry("gallery-proxy on studio", "studio.local.", 3001, []net.IP{net.ParseIP("192.168.4.16")}, nil, "path=/api"),
			wantInstance: "gallery-proxy on studio",
			wantIP:       "192.168.4.16",
			wantPort:     3001,
		},
		{
			name:         "custom port",
			entry:        entry("lab", "lab.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantInstance: "lab",
			wantIP:       "10.0.0.5",
			wantPort:     8080,
		},
		{
			name:         "no port defaults to 3001",
			entry:        entry("lab", "lab.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil),
			wantInstance: "lab",
			wantIP:       "172.16.0.1",
			wantPort:     DefaultPort,
		},
		{
			name:         "instance falls back to hostname",
			entry:        entry("", "studio.local.", 3001, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantInstance: "studio.local",
			wantIP:       "192.168.1.1",
			wantPort:     3001,
		},
		{
			name:    "no IP address",
			entry:   entry("lab", "lab.local.", 3001, nil, nil),
			wantNil: true,
		},
		{
			name:         "IPv6 only",
			entry:        entry("v6", "v6.local.", 3001, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantInstance: "v6",
			wantIP:       "fe80::1",
			wantPort:     3001,
		},
		{
			name:         "prefers IPv4",
			entry:        entry("dual", "dual.local.", 3001, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantInstance: "dual",
			wantIP:       "192.168.1.50",
			wantPort:     3001,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxy := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if proxy != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", proxy)
				}
				return
			}

			if proxy == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil proxy")
			}
			if proxy.Instance != tt.wantInstance {
				t.Errorf("Instance = %v, want %v", proxy.Instance, tt.wantInstance)
			}
			if proxy.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", proxy.IP, tt.wantIP)
			}
			if proxy.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", proxy.Port, tt.wantPort)
			}
			if time.Since(proxy.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", proxy.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	e := entry("lab", "lab.local.", 3001, []net.IP{net.ParseIP("192.168.4.16")}, nil,
		"path=/api", "version=1.0", "flag", "target=a=b")

	proxy := parseServiceEntry(e)
	if proxy == nil {
		t.Fatal("parseServiceEntry() = nil, want proxy")
	}

	expected := map[string]string{
		"path":    "/api",
		"version": "1.0",
		"flag":    "",
		"target":  "a=b",
	}

	if len(proxy.Metadata) != len(expected) {
		t.Errorf("Metadata has %d entries, want %d", len(proxy.Metadata), len(expected))
	}
	for key, want := range expected {
		if got, ok := proxy.Metadata[key]; !ok {
			t.Errorf("Metadata missing key %q", key)
		} else if got != want {
			t.Errorf("Metadata[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func TestFormatTXT(t *testing.T) {
	got := FormatTXT(map[string]string{
		TXTVersion: "1.0",
		TXTPath:    "/api",
		"flag":     "",
	})
	want := []string{"flag", "path=/api", "version=1.0"}

	if len(got) != len(want) {
		t.Fatalf("FormatTXT() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FormatTXT()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Round trip through the parser
	proxy := parseServiceEntry(entry("x", "x.local.", 1, []net.IP{net.ParseIP("10.0.0.1")}, nil, got...))
	if proxy.GetMetadata(TXTPath) != "/api" || proxy.GetMetadata(TXTVersion) != "1.0" {
		t.Errorf("round trip metadata = %v", proxy.Metadata)
	}
}

func TestAdvertise_InvalidPort(t *testing.T) {
	if _, err := Advertise("x", 0, nil); err == nil {
		t.Error("Advertise() with port 0 should fail")
	}
	var a *Advertisement
	a.Shutdown()
}

// Live mDNS browsing needs multicast on the host network and is exercised
// manually with: gallery discover --timeout 5s
