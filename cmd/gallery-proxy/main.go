// Gallery-proxy is a CORS forwarding proxy for the image gallery endpoint.
//
// It mounts the remote endpoint under a local path prefix, answers CORS
// preflight requests and optionally advertises itself over mDNS so that
// 'gallery discover' can find it. Proxied requests are published on a
// websocket feed that 'gallery-proxy watch' prints.
//
// Usage:
//
//	gallery-proxy serve [flags]
//	gallery-proxy watch [flags]
//
// See 'gallery-proxy serve --help' for available options.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/gallery/internal/config"
	"github.com/muurk/gallery/internal/discovery"
	"github.com/muurk/gallery/internal/logging"
	"github.com/muurk/gallery/internal/proxy"
	"github.com/muurk/gallery/internal/ui"
	"github.com/muurk/gallery/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gallery-proxy",
	Short: "Gallery CORS proxy",
	Long: `A local forwarding proxy for the image gallery endpoint.

Requests under the path prefix (default /api) are forwarded to the remote
endpoint with the prefix stripped, and every response carries permissive
CORS headers so browser clients on other origins can call it.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	listen       string
	target       string
	prefix       string
	allowOrigins []string
	advertise    bool
	serviceName  string
	logLevel     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the proxy",
	Long: `Start the CORS proxy.

Flags override the proxy section of the config file, which in turn falls
back to built-in defaults. The upstream target defaults to the https
endpoint, or to endpoint.base_url when that has been changed.`,
	Example: `  # Forward http://localhost:3001/api/* to the configured endpoint
  gallery-proxy serve

  # Custom port and target, advertised on the local network
  gallery-proxy serve --listen :8080 --target http://example.com/xttest --advertise

  # Only allow one browser origin
  gallery-proxy serve --allow-origin http://localhost:3000 --log-level debug`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :3001)")
	serveCmd.Flags().StringVar(&target, "target", "", "Upstream base URL (default from config)")
	serveCmd.Flags().StringVar(&prefix, "prefix", "", "Path prefix stripped before forwarding (default /api)")
	serveCmd.Flags().StringSliceVar(&allowOrigins, "allow-origin", nil, "Allowed browser origin (repeatable, default any)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the proxy over mDNS")
	serveCmd.Flags().StringVar(&serviceName, "name", "", "mDNS instance name")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pc := proxy.Config{
		Listen:         cfg.Proxy.Listen,
		Target:         cfg.ProxyTarget(),
		PathPrefix:     cfg.Proxy.PathPrefix,
		AllowedOrigins: cfg.Proxy.AllowedOrigins,
		Advertise:      cfg.Proxy.Advertise,
		ServiceName:    cfg.Proxy.ServiceName,
	}
	if cmd.Flags().Changed("listen") {
		pc.Listen = listen
	}
	if cmd.Flags().Changed("target") {
		pc.Target = target
	}
	if cmd.Flags().Changed("prefix") {
		pc.PathPrefix = prefix
	}
	if cmd.Flags().Changed("allow-origin") {
		pc.AllowedOrigins = allowOrigins
	}
	if cmd.Flags().Changed("advertise") {
		pc.Advertise = advertise
	}
	if cmd.Flags().Changed("name") {
		pc.ServiceName = serviceName
	}

	srv, err := proxy.New(pc)
	if err != nil {
		return fmt.Errorf("failed to create proxy: %w", err)
	}

	origins := "any"
	if len(pc.AllowedOrigins) > 0 {
		origins = strings.Join(pc.AllowedOrigins, ", ")
	}
	fmt.Println(ui.NewHeader("Gallery proxy", "gallery-proxy serve",
		ui.Param{Key: "Listen", Value: pc.Listen},
		ui.Param{Key: "Prefix", Value: pc.PathPrefix},
		ui.Param{Key: "Target", Value: pc.Target},
		ui.Param{Key: "Origins", Value: origins},
		ui.Param{Key: "Advertise", Value: fmt.Sprintf("%t", pc.Advertise)},
	).Render())
	fmt.Println()

	return srv.Start()
}

// Watch command and flags
var (
	watchURL  string
	watchJSON bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print requests passing through a proxy",
	Long: `Connect to a running proxy's event feed and print each proxied request.

Without --url the first proxy found over mDNS is used.`,
	Example: `  gallery-proxy watch
  gallery-proxy watch --url http://localhost:3001
  gallery-proxy watch --json`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "", "Proxy URL (default: discover over mDNS)")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print raw JSON events")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	base := watchURL
	if base == "" {
		fmt.Println("Looking for a gallery proxy on the local network...")
		scanner := discovery.NewScanner()
		p, err := scanner.First(ctx)
		if err != nil {
			return fmt.Errorf("no proxy found (use --url): %w", err)
		}
		base = p.BaseURL()
		fmt.Printf("Found %s\n", p)
	}

	fmt.Printf("Watching %s (Ctrl+C to stop)\n\n", base)

	return proxy.Watch(ctx, base, func(e proxy.Event) {
		if watchJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return
			}
			fmt.Println(string(data))
			return
		}
		fmt.Println(formatEvent(e))
	})
}

// formatEvent renders one event as a log-style line
func formatEvent(e proxy.Event) string {
	ts := e.Time.Local().Format(time.TimeOnly)
	id := e.RequestID
	if len(id) > 8 {
		id = id[:8]
	}

	switch e.Type {
	case proxy.EventRequest:
		return fmt.Sprintf("%s %s -> %s %s", ts, id, e.Method, e.Path)
	case proxy.EventResponse:
		return fmt.Sprintf("%s %s <- %d %s (%dms)", ts, id, e.Status, e.Path, e.DurationMS)
	default:
		return fmt.Sprintf("%s %s !! %s %s", ts, id, e.Path, e.Error)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gallery-proxy %s (commit: %s)\n", version.Version, version.Commit)
	},
}
