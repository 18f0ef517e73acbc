package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/gallery/internal/config"
	"github.com/muurk/gallery/internal/discovery"
	"github.com/muurk/gallery/internal/gallery"
	"github.com/muurk/gallery/internal/gateway"
	"github.com/muurk/gallery/internal/submission"
	"github.com/muurk/gallery/internal/ui"
	"github.com/muurk/gallery/internal/validation"
)

// Command flags
var (
	listOffset   int
	listAll      bool
	outputFormat string

	firstName string
	lastName  string
	email     string
	phone     string
	imageRef  string

	discoverTimeout int
	discoverUse     bool

	forceInit bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(configCmd)
}

// signalContext returns a context cancelled on Ctrl+C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// listCmd prints one page, or every page, of the gallery
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List gallery images",
	Long: `Fetch images from the gallery endpoint.

By default one page is fetched starting at --offset. With --all, pages are
fetched until the endpoint returns an empty page, skipping duplicate IDs.`,
	Example: `  # First page
  gallery list

  # Page starting after the first 10 images
  gallery list --offset 10

  # Every page, as JSON
  gallery list --all --format json

  # Through the local CORS proxy
  gallery list --proxy`,
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "Number of images to skip")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Fetch every page")
	listCmd.Flags().StringVar(&outputFormat, "format", "table", "Output format (table, json)")
}

func runList(cmd *cobra.Command, args []string) error {
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("invalid --format %q (use table or json)", outputFormat)
	}
	if listAll && listOffset != 0 {
		return errors.New("--all always starts at offset 0; drop --offset")
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var page *gateway.ImageListPage
	if listAll {
		page, err = fetchAll(ctx, client)
	} else {
		page, err = client.FetchImages(ctx, listOffset)
	}
	if err != nil {
		printFailure("Could not load images", err)
		return err
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(page.Images) == 0 {
		fmt.Println("No more images.")
		return nil
	}

	table := ui.NewTable("#", "ID", "SIZE", "URL")
	for i, item := range page.Images {
		table.AddRow(
			strconv.Itoa(listOffset+i+1),
			item.ID,
			fmt.Sprintf("%dx%d", item.Width, item.Height),
			item.ImageURL,
		)
	}
	fmt.Println(table.Render())
	fmt.Println()
	fmt.Println(ui.Summary("%d image(s) from %s", len(page.Images), client.BaseURL))
	return nil
}

// fetchAll drives the pagination controller until the gallery is exhausted
func fetchAll(ctx context.Context, client *gateway.Client) (*gateway.ImageListPage, error) {
	ctrl := gallery.NewController(client, nil)

	if _, err := ctrl.LoadInitial(ctx); err != nil {
		return nil, err
	}
	for ctrl.Snapshot().HasMore {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := ctrl.LoadMore(ctx); err != nil {
			return nil, err
		}
	}

	images := ctrl.Snapshot().Images
	return &gateway.ImageListPage{Images: images, Total: len(images)}, nil
}

// submitCmd validates and submits the contact form
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit your details with an image",
	Long: `Validate the contact form and upload it with an image.

All four fields are validated before anything is sent:
  First and last name: at least 2 characters
  Email:               local@domain.tld
  Phone:               10-15 digits once spaces, dashes, parentheses and
                       + signs are removed (dots are not allowed)

--image accepts a file path, a file:// URI, an http(s) URL or a data: URI.`,
	Example: `  gallery submit --first Ada --last Lovelace \
    --email ada@example.com --phone "+44 20 7946 0958" --image ./photo.jpg

  # Attach an image straight from the gallery
  gallery submit --first Ada --last Lovelace --email ada@example.com \
    --phone 0123456789 --image https://example.com/images/42.jpg`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&firstName, "first", "", "First name")
	submitCmd.Flags().StringVar(&lastName, "last", "", "Last name")
	submitCmd.Flags().StringVar(&email, "email", "", "Email address")
	submitCmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	submitCmd.Flags().StringVar(&imageRef, "image", "", "Image path or URL to upload")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	fmt.Println(ui.NewHeader("Submit details", "gallery submit",
		ui.Param{Key: "Endpoint", Value: client.BaseURL},
		ui.Param{Key: "Image", Value: imageRef},
	).Render())
	fmt.Println()

	var notice string
	ctrl := submission.NewController(client, gateway.ImageRef(imageRef), func(kind submission.NoticeKind, message string) {
		notice = message
	})
	values := map[validation.Field]string{
		validation.FieldFirstName: firstName,
		validation.FieldLastName:  lastName,
		validation.FieldEmail:     email,
		validation.FieldPhone:     phone,
	}
	for _, f := range validation.Fields {
		ctrl.UpdateField(f, values[f])
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcome, err := ctrl.Submit(ctx)
	switch outcome {
	case submission.OutcomeSubmitted:
		fmt.Println(ui.NewSuccessResult("Details saved",
			ui.Param{Key: "Message", Value: notice},
			ui.Param{Key: "Name", Value: firstName + " " + lastName},
			ui.Param{Key: "Image", Value: imageRef},
		).Render())
		return nil

	case submission.OutcomeInvalid:
		result := ui.NewWarningResult("Form has errors")
		errs := ctrl.Snapshot().Errors
		for _, f := range validation.Fields {
			if msg, ok := errs[f]; ok {
				result.AddDetail(f.Label(), msg)
			}
		}
		fmt.Println(result.Render())
		return err

	default:
		printFailure("Submission failed", err)
		return err
	}
}

// printFailure renders err with the gateway's troubleshooting hint
func printFailure(title string, err error) {
	fmt.Println(ui.NewFailureResult(title, errors.New(gateway.UserMessage(err)), ui.SplitHint(gateway.Hint(err))).Render())
}

// discoverCmd finds CORS proxies advertised on the local network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find gallery proxies on the local network",
	Long: `Browse mDNS for gallery proxies ("gallery-proxy serve --advertise").

Every proxy found is remembered in the config file; --proxy then routes
requests through the most recently seen one.`,
	Example: `  # Scan for 5 seconds (default)
  gallery discover

  # Scan and make the first proxy the default endpoint
  gallery discover --use`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")
	discoverCmd.Flags().BoolVar(&discoverUse, "use", false, "Route future requests through the first proxy found")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	timeout := time.Duration(cfg.Client.DiscoverTimeout) * time.Second
	if discoverTimeout > 0 {
		timeout = time.Duration(discoverTimeout) * time.Second
	}

	fmt.Printf("Scanning for gallery proxies (timeout: %s)...\n\n", timeout)

	ctx, cancel := signalContext()
	defer cancel()

	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	proxies, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(proxies) == 0 {
		fmt.Println(ui.NewWarningResult("No proxies found",
			ui.Param{Key: "Service", Value: discovery.ServiceType},
		).Render())
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Start one with 'gallery-proxy serve --advertise'")
		fmt.Println("  - Check that this machine is on the same network")
		fmt.Println("  - Try increasing --timeout")
		return nil
	}

	table := ui.NewTable("NAME", "ADDRESS", "TARGET", "URL")
	for _, p := range proxies {
		table.AddRow(p.Instance, fmt.Sprintf("%s:%d", p.IP, p.Port), p.GetMetadata(discovery.TXTTarget), p.BaseURL())
		cfg.UpdateProxyLastSeen(p.Instance, p.BaseURL())
	}
	fmt.Println(table.Render())
	fmt.Println()

	if discoverUse {
		cfg.Endpoint.ProxyURL = proxies[0].BaseURL()
		cfg.Endpoint.UseProxy = true
		fmt.Printf("Requests will now go through %s\n", proxies[0].BaseURL())
	}

	if err := config.SaveGlobal(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println(ui.Summary("Found %d proxy(ies). Use 'gallery --proxy' to route through the most recent.", len(proxies)))
	return nil
}

// configCmd groups configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after .env files and GALLERY_* environment
overrides have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Printf("# %s\n", path)
		fmt.Printf("# effective endpoint: %s\n", resolveBaseURL(cfg))
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Example: `  gallery config init
  gallery config init --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		force := forceInit
		if _, err := os.Stat(path); err == nil && !force && ui.IsTerminal() {
			force = ui.Confirm(os.Stdin, os.Stdout, "Config file exists",
				[]string{path, "Known proxies and custom settings will be lost"},
				"Overwrite it with defaults?")
			if !force {
				return nil
			}
		}

		if err := config.CreateDefaultConfig(path, force); err != nil {
			return err
		}

		// Drop the copy loaded before the file was rewritten
		cfg, err := config.ReloadRegistry()
		if err != nil {
			return fmt.Errorf("failed to reload config: %w", err)
		}
		fmt.Println(ui.NewSuccessResult("Configuration written",
			ui.Param{Key: "Path", Value: path},
			ui.Param{Key: "Endpoint", Value: cfg.EffectiveBaseURL()},
		).Render())
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
