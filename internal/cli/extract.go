package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/image"
)

var (
	// Extract command flags
	extractColours     int
	extractFormat      string
	extractOutput      string
	extractShowPreview bool
)

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <artwork-id | image>",
		Short: "Extract a colour palette from an artwork or image",
		Long: `Extract a colour palette from a catalog artwork or an image.

The source is either a numeric artwork id from the catalog, a local image
file, or an http(s) image URL. Colours are ordered from most to least
common; the dominant colour is reported separately.

Supported image formats: JPEG, PNG, GIF, WebP, AVIF

Examples:
  # Extract 6 colours (default) from an artwork
  hue extract 27992

  # Extract 8 colours with terminal previews
  hue extract --preview --colours 8 27992

  # Extract colours from a local image as JSON
  hue extract --format json wallpaper.jpg

  # Save to a file
  hue extract --output palette.txt 27992`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(runExtract),
	}

	cmd.Flags().IntVarP(&extractColours, "colours", "c", colour.DefaultColours,
		fmt.Sprintf("number of colours to extract (%d-%d)", colour.MinColours, colour.MaxColours))
	cmd.Flags().StringVarP(&extractFormat, "format", "f", "hex", "output format (hex, rgb, json)")
	cmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&extractShowPreview, "preview", false, "show colour previews in terminal")
	return cmd
}

// source is a resolved palette and where it came from.
type source struct {
	palette *colour.Palette
	artwork *artwork.Ref
	title   string
}

// resolveSource extracts k colours from an artwork id, image file or image URL.
func resolveSource(ctx context.Context, cmd *cobra.Command, a *app, arg string, k int) (*source, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		progressf(cmd, "Fetching artwork %d...\n", id)
		ref, err := a.catalog.ArtworkByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch artwork %d: %w", id, err)
		}
		if globalVerbose {
			progressf(cmd, "Extracting %d colours from %s\n", k, ref.Label())
		}
		p, err := a.extractor.Extract(ctx, ref, k)
		if err != nil {
			return nil, fmt.Errorf("failed to extract colours: %w", err)
		}
		return &source{palette: &p.Palette, artwork: &p.Source, title: ref.Label()}, nil
	}

	if !image.IsURL(arg) && !image.IsImageFile(arg) {
		if _, err := os.Stat(arg); err != nil {
			return nil, fmt.Errorf("%q is not an artwork id or a supported image (%s)",
				arg, strings.Join(image.SupportedImageExtensions(), ", "))
		}
	}
	if err := image.ValidateImagePath(arg); err != nil {
		return nil, fmt.Errorf("invalid image path: %w", err)
	}
	if globalVerbose {
		progressf(cmd, "Loading image: %s\n", arg)
	}
	p, err := a.extractor.ExtractImage(ctx, arg, k)
	if err != nil {
		return nil, err
	}
	return &source{palette: p, title: imageTitle(arg)}, nil
}

// imageTitle derives a palette title from an image path or URL.
func imageTitle(src string) string {
	base := src[strings.LastIndexAny(src, `/\`)+1:]
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return "Image"
	}
	return base
}

// runExtract executes the extract command.
func runExtract(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	config := colour.DefaultExtractorConfig()
	config.ColorCount = a.cfg.ColourCount
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	src, err := resolveSource(ctx, cmd, a, args[0], config.ColorCount)
	if err != nil {
		return err
	}

	if globalVerbose {
		progressf(cmd, "Successfully extracted %d colours\n", src.palette.Len())
	}

	output, err := formatPalette(src, extractFormat, extractShowPreview && colour.SupportsANSIColours(os.Stdout))
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if extractOutput != "" {
		if err := os.WriteFile(extractOutput, []byte(output), 0o644); err != nil { // #nosec G306 - palette output is not sensitive
			return fmt.Errorf("failed to write output file: %w", err)
		}
		progressf(cmd, "Wrote palette to %s\n", extractOutput)
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// formatPalette formats the palette according to the specified format.
func formatPalette(src *source, format string, showPreview bool) (string, error) {
	switch format {
	case "hex":
		return formatColours(src.palette, showPreview, colour.RGB.Hex), nil
	case "rgb":
		return formatColours(src.palette, showPreview, colour.RGB.String), nil
	case "json":
		var (
			jsonBytes []byte
			err       error
		)
		if src.artwork != nil {
			jsonBytes, err = (&artwork.Palette{Palette: *src.palette, Source: *src.artwork}).ToJSON()
		} else {
			jsonBytes, err = src.palette.ToJSON()
		}
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(jsonBytes) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, rgb, json)", format)
	}
}

// formatColours writes one colour per line, dominant first, with the share of
// the image each colour covers.
func formatColours(p *colour.Palette, showPreview bool, text func(colour.RGB) string) string {
	var sb strings.Builder
	line := func(c colour.RGB, label string) {
		if showPreview {
			sb.WriteString(colour.ColourPreview(c, 4) + " ")
		}
		fmt.Fprintf(&sb, "%-18s %s\n", text(c), label)
	}

	line(p.Dominant, "dominant, "+colour.Name(p.Dominant))
	for i, c := range p.All() {
		label := colour.Name(c)
		if i < len(p.Weights) {
			label = fmt.Sprintf("%5.1f%%  %s", p.Weights[i]*100, label)
		}
		line(c, label)
	}
	return sb.String()
}
