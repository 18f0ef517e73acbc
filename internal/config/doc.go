// Package config provides user configuration management for the gallery tools.
//
// This package manages a YAML configuration file holding the endpoint the
// gallery talks to, the request parameters sent with listing calls, the
// settings of the local forwarding proxy, and proxies remembered from mDNS
// discovery.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/gallery/config.yaml or $HOME/.config/gallery/config.yaml
//   - macOS: $HOME/.config/gallery/config.yaml
//   - Windows: %LOCALAPPDATA%\gallery\config.yaml
//
// # Environment Overrides
//
// Endpoint settings can be overridden without touching the file:
//
//	GALLERY_BASE_URL=http://dev3.xicomtechnologies.com/xttest
//	GALLERY_PROXY_URL=http://localhost:3001/api
//	GALLERY_USE_PROXY=true
//
// Load reads .env and .env.local from the working directory first, so these
// can live next to the project. Variables already set in the environment win.
//
// # Usage Example
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := gateway.NewClient(cfg.EffectiveBaseURL())
//	client.SetTimeout(cfg.Timeout())
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
