// Package discovery finds and advertises gallery proxies over mDNS.
//
// gallery-proxy registers itself under the "_gallery-proxy._tcp" service
// type with TXT records describing its path prefix, version and upstream
// target. The gallery client browses for that service type so it can route
// requests through a proxy without being told its address.
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 5 * time.Second
//
//	proxies, err := scanner.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range proxies {
//	    fmt.Printf("Found: %s -> %s\n", p.Instance, p.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Proxies must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
