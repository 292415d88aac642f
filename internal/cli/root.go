// Package cli provides the command-line interface for hue.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/hue/internal/catalog"
	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/config"
	"github.com/jmylchreest/hue/internal/extraction"
	"github.com/jmylchreest/hue/internal/image"
	"github.com/jmylchreest/hue/internal/palettecache"
	"github.com/jmylchreest/hue/internal/search"
	"github.com/jmylchreest/hue/internal/version"
)

var (
	// Global flags
	globalConfigFile string
	globalVerbose    bool
	globalQuiet      bool
)

// flagKeys maps config keys to the flags that override them. Only flags a
// command actually defines are bound.
var flagKeys = map[string]string{
	config.KeyAPIBaseURL:    "api-url",
	config.KeyIIIFBaseURL:   "iiif-url",
	config.KeyPageSize:      "page-size",
	config.KeyColourCount:   "colours",
	config.KeyMaxConcurrent: "concurrency",
}

// app holds the collaborators shared by the commands of one invocation.
type app struct {
	cfg       *config.Config
	logger    hclog.Logger
	catalog   *catalog.Client
	cache     *palettecache.Cache
	extractor *extraction.Service
}

// newApp loads the configuration and wires the catalog, cache and extraction service.
func newApp(cmd *cobra.Command) (*app, error) {
	v := config.New()
	keys := make(map[string]string)
	for key, flag := range flagKeys {
		if cmd.Flags().Lookup(flag) != nil {
			keys[key] = flag
		}
	}
	if err := config.BindFlags(v, cmd.Flags(), keys); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v, globalConfigFile)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cmd.ErrOrStderr())
	if cfg.File != "" {
		logger.Debug("using config file", "path", cfg.File)
	}

	client := catalog.New(catalog.Options{
		BaseURL:           cfg.APIBaseURL,
		IIIFURL:           cfg.IIIFBaseURL,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger.Named("catalog"),
	})

	cache := palettecache.New(palettecache.Options{
		TTL:         cfg.CacheTTL,
		Concurrency: cfg.MaxConcurrent,
		Logger:      logger.Named("cache"),
	})

	svc, err := extraction.New(extraction.Options{
		URLs:      client,
		Loader:    image.NewSmartLoader(cfg.HTTPTimeout, cfg.MaxImageBytes),
		Cache:     cache,
		Extractor: colour.NewMedianCutExtractor().WithMaxSamples(cfg.MaxSamples),
		Logger:    logger.Named("extraction"),
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, catalog: client, cache: cache, extractor: svc}, nil
}

// newSearchController creates a search session over the app's catalog.
func (a *app) newSearchController() *search.Controller {
	return search.New(a.catalog, search.Options{
		PageSize:         a.cfg.PageSize,
		FeaturedPageSize: a.cfg.FeaturedPageSize,
		Logger:           a.logger.Named("search"),
	})
}

// newLogger creates the root logger. Warnings are shown by default, everything
// with --verbose, nothing with --quiet.
func newLogger(w io.Writer) hclog.Logger {
	level := hclog.Warn
	switch {
	case globalQuiet:
		level = hclog.Off
	case globalVerbose:
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "hue",
		Output: w,
		Level:  level,
	})
}

// withApp adapts a command body that needs the wired collaborators to cobra's RunE.
func withApp(run func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cmd, a, args)
	}
}

// progressf writes a progress line to stderr unless --quiet is set.
func progressf(cmd *cobra.Command, format string, args ...any) {
	if globalQuiet {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}

// NewRootCmd builds the hue command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hue",
		Short: "Colour palettes from public-domain artworks",
		Long: `Hue browses the Art Institute of Chicago's public-domain collection and
extracts colour palettes from artwork images.

Search the collection, page through the featured selection, extract the
dominant colours of an artwork or a local image, and export palettes as
SVG, Adobe Swatch Exchange, CSS variables or JSON.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&colour.DisableColourOutput, "no-colour", false, "disable coloured terminal output")
	rootCmd.PersistentFlags().StringVar(&globalConfigFile, "config", "", "config file (default: ./hue.yaml or $XDG_CONFIG_HOME/hue/hue.yaml)")
	rootCmd.PersistentFlags().String("api-url", catalog.DefaultBaseURL, "catalog API base URL")
	rootCmd.PersistentFlags().String("iiif-url", catalog.DefaultIIIFURL, "IIIF image server base URL")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newFeaturedCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newBatchCmd())

	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
