package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/export"
	"github.com/jmylchreest/hue/internal/security"
)

var (
	// Export command flags
	exportColours int
	exportFormat  string
	exportArchive string
	exportOutput  string
	exportTitle   string
	exportFrom    string
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [artwork-id | image]",
		Short: "Export a palette as SVG, ASE, CSS or JSON",
		Long: `Export the colour palette of an artwork or image to a file.

Formats:
  svg   swatch strip with hex labels
  ase   Adobe Swatch Exchange, for Adobe and compatible design tools
  css   custom properties on :root (--hue-1, --hue-2, ...)
  json  palette document with colour names and weights

With --bundle, every format is written into a single archive
(tar.xz, tar.gz or zip). With --from, a list of hex colours is exported
as given instead of extracting a palette.

Examples:
  # SVG swatches for an artwork, named after its title
  hue export 27992

  # Adobe swatches to a chosen file
  hue export --format ase --output seurat.ase 27992

  # Every format in one archive
  hue export --bundle tar.xz 27992

  # CSS variables for a hand-picked palette
  hue export --format css --title Dusk --from "#1d2b53,#7e2553,#ff77a8"`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(runExport),
	}

	cmd.Flags().IntVarP(&exportColours, "colours", "c", colour.DefaultColours,
		fmt.Sprintf("number of colours to extract (%d-%d)", colour.MinColours, colour.MaxColours))
	cmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatSVG), fmt.Sprintf("export format %v", export.Formats()))
	cmd.Flags().StringVar(&exportArchive, "bundle", "", fmt.Sprintf("write all formats into an archive %v", export.Archives()))
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: derived from the title)")
	cmd.Flags().StringVar(&exportTitle, "title", "", "palette title (default: artwork title or image name)")
	cmd.Flags().StringVar(&exportFrom, "from", "", "comma-separated hex colours to export instead of extracting")
	return cmd
}

func runExport(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	var (
		src *source
		err error
	)
	switch {
	case exportFrom != "" && len(args) > 0:
		return fmt.Errorf("use either a source or --from, not both")
	case exportFrom != "":
		src, err = hexSource(exportFrom)
	case len(args) == 1:
		src, err = resolveSource(ctx, cmd, a, args[0], a.cfg.ColourCount)
	default:
		return fmt.Errorf("requires an artwork id, an image or --from")
	}
	if err != nil {
		return err
	}

	in := export.Input{Title: src.title, Palette: src.palette, Artwork: src.artwork}
	if exportTitle != "" {
		in.Title = exportTitle
	}

	var (
		data []byte
		path = exportOutput
	)
	if exportArchive != "" {
		archive := export.Archive(exportArchive)
		if path == "" {
			path = security.SanitizeFilename(in.Title) + archive.Extension()
		} else if archive, err = export.ArchiveFromPath(path); err != nil {
			return err
		}
		data, err = bundle(archive, in)
		if err == nil {
			err = verifyBundle(cmd, archive, data)
		}
	} else {
		var format export.Format
		if format, err = export.ParseFormat(exportFormat); err != nil {
			return err
		}
		if path == "" {
			path = security.SanitizeFilename(in.Title) + format.Extension()
		}
		data, err = export.Render(format, in)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - output directory chosen by the user
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - palette output is not sensitive
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	progressf(cmd, "Exported %d colours to %s\n", src.palette.Len(), path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// bundle renders every format of in into an archive.
func bundle(archive export.Archive, in export.Input) ([]byte, error) {
	files, err := export.Files(in.Title, in)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.Bundle(&buf, archive, files); err != nil {
		return nil, fmt.Errorf("failed to create bundle: %w", err)
	}
	return buf.Bytes(), nil
}

// verifyBundle reads an archive back before it is written to disk.
func verifyBundle(cmd *cobra.Command, archive export.Archive, data []byte) error {
	files, err := export.ReadBundle(data, archive)
	if err != nil {
		return fmt.Errorf("bundle failed verification: %w", err)
	}
	if globalVerbose {
		for _, f := range files {
			progressf(cmd, "  %s (%d bytes)\n", f.Name, len(f.Data))
		}
	}
	return nil
}

// hexSource builds a palette from a comma-separated list of hex colours.
// The first colour is the dominant one and every colour weighs the same.
func hexSource(list string) (*source, error) {
	var p colour.Palette
	for field := range strings.SplitSeq(list, ",") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		c, err := colour.ParseHex(field)
		if err != nil {
			return nil, fmt.Errorf("invalid --from colour: %w", err)
		}
		p.Colours = append(p.Colours, c)
	}
	if len(p.Colours) == 0 {
		return nil, fmt.Errorf("--from needs at least one colour")
	}
	if len(p.Colours) > colour.MaxColours {
		return nil, fmt.Errorf("--from has %d colours, at most %d are allowed", len(p.Colours), colour.MaxColours)
	}
	p.Dominant = p.Colours[0]
	p.Weights = make([]float64, len(p.Colours))
	for i := range p.Weights {
		p.Weights[i] = 1 / float64(len(p.Colours))
	}
	return &source{palette: &p, title: "Palette"}, nil
}
