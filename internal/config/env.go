package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override endpoint settings
const (
	EnvBaseURL  = "GALLERY_BASE_URL"
	EnvProxyURL = "GALLERY_PROXY_URL"
	EnvUseProxy = "GALLERY_USE_PROXY"
)

// DefaultEnvFiles are read by LoadEnvFiles when no files are given
var DefaultEnvFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads dotenv files into the process environment. Missing files
// are skipped and variables that are already set are not overwritten.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides endpoint settings from lookup (usually os.LookupEnv).
func (r *Registry) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && strings.TrimSpace(v) != "" {
		r.Endpoint.BaseURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvProxyURL); ok && strings.TrimSpace(v) != "" {
		r.Endpoint.ProxyURL = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvUseProxy); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvUseProxy, v, err)
		}
		r.Endpoint.UseProxy = b
	}
	return nil
}

// Load returns the global registry with dotenv files and environment
// overrides applied. The returned registry is a copy; saving it would
// persist the overrides, so commands that save should use LoadRegistry.
func Load() (*Registry, error) {
	base, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	r := base.clone()
	if err := r.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return r, nil
}

// clone copies the sections that ApplyEnv may modify
func (r *Registry) clone() *Registry {
	out := *r
	endpoint := *r.Endpoint
	out.Endpoint = &endpoint
	return &out
}
