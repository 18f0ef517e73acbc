// Gallery is the terminal client for the image gallery endpoint.
//
// It browses the paginated image list and submits the contact form with an
// attached image, either interactively or through direct commands.
//
// Usage:
//
//	gallery [command] [flags]
//
// Running without arguments launches the interactive UI.
// See 'gallery --help' for available commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/gallery/internal/config"
	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/logging"
	"github.com/muurk/gallery/internal/tui"
	"github.com/muurk/gallery/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	baseURLFlag string
	useProxy    bool
	timeoutSecs int
	attachment  string
)

var rootCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Image gallery client",
	Long: `A terminal client for the image gallery endpoint.

Browse the paginated image list, open an image and submit your details
(name, email, phone) together with an image to upload.

If no command is specified, the interactive UI will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	RunE: runInteractive,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Endpoint base URL (overrides config and environment)")
	rootCmd.PersistentFlags().BoolVar(&useProxy, "proxy", false, "Route requests through the local CORS proxy")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "Request timeout in seconds (10-15, default from config)")

	rootCmd.Flags().StringVar(&attachment, "image", "", "Image path or URL to pre-fill in the form")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gallery %s (commit: %s)\n", version.Version, version.Commit)
	},
}

// resolveBaseURL picks the endpoint: --base-url, then --proxy (the most
// recently discovered proxy, else the configured proxy URL), then config.
func resolveBaseURL(cfg *config.Registry) string {
	if baseURLFlag != "" {
		return baseURLFlag
	}
	if useProxy {
		if _, p := cfg.MostRecentProxy(); p != nil {
			return p.LastURL
		}
		return cfg.Endpoint.ProxyURL
	}
	return cfg.EffectiveBaseURL()
}

// newClient builds a gateway client from config, environment and flags
func newClient() (*gateway.Client, *config.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	client := gateway.NewClient(resolveBaseURL(cfg))
	client.UserID = cfg.Client.UserID
	client.Category = cfg.Client.Category

	timeout := cfg.Timeout()
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs) * time.Second
	}
	client.SetTimeout(timeout)

	return client, cfg, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	// The UI owns the terminal, so logs go to a file next to the config
	if dir, err := config.GetConfigDir(); err == nil && os.Getenv(logging.LogLevelEnvVar) != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			_ = logging.InitializeWithOutput("", filepath.Join(dir, "gallery.log"))
		}
	}
	defer logging.Sync()

	if err := tui.Run(client, tui.Options{
		Endpoint:   client.BaseURL,
		Attachment: gateway.ImageRef(attachment),
	}); err != nil {
		return fmt.Errorf("interactive UI error: %w", err)
	}
	return nil
}
