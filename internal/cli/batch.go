package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/palettecache"
)

var (
	// Batch command flags
	batchColours     int
	batchQuery       string
	batchConcurrency int
	batchFormat      string
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [artwork-id...]",
		Short: "Extract palettes for many artworks at once",
		Long: `Extract palettes for several artworks concurrently.

Artworks are given as ids, or selected with --query from the first page of
search results (--query "" uses the featured selection). Artworks that fail
are reported and skipped; the rest still complete.

Examples:
  # Palettes for three artworks
  hue batch 27992 16568 111628

  # Palettes for the first page of a search, five at a time
  hue batch --query "water lilies" --concurrency 5

  # Output as JSON
  hue batch --format json 27992 16568`,
		RunE: withApp(runBatch),
	}

	cmd.Flags().IntVarP(&batchColours, "colours", "c", colour.DefaultColours,
		fmt.Sprintf("number of colours to extract (%d-%d)", colour.MinColours, colour.MaxColours))
	cmd.Flags().StringVar(&batchQuery, "query", "", "extract palettes for the first page of this search")
	cmd.Flags().IntVar(&batchConcurrency, "concurrency", palettecache.DefaultConcurrency, "extractions to run at once")
	cmd.Flags().StringVarP(&batchFormat, "format", "f", "table", "output format (table, json)")
	return cmd
}

func runBatch(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	refs, err := batchRefs(ctx, cmd, a, args)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("no artworks to extract")
	}

	k := a.cfg.ColourCount
	results, err := a.extractor.ExtractAll(ctx, refs, k, func(done, total int) {
		progressf(cmd, "\rExtracting palettes: %d/%d", done, total)
		if done == total {
			progressf(cmd, "\n")
		}
	})
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	stats := a.cache.Stats()
	a.logger.Debug("cache stats", "hits", stats.Hits, "misses", stats.Misses,
		"extractions", stats.Extractions, "failures", stats.Failures)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if err := printBatch(cmd, results); err != nil {
		return err
	}
	if failed > 0 {
		progressf(cmd, "%d of %d artworks failed\n", failed, len(results))
	}
	if failed == len(results) {
		return fmt.Errorf("all %d extractions failed", failed)
	}
	return nil
}

// batchRefs resolves the artworks named on the command line or by --query.
func batchRefs(ctx context.Context, cmd *cobra.Command, a *app, args []string) ([]artwork.Ref, error) {
	if cmd.Flags().Changed("query") {
		if len(args) > 0 {
			return nil, fmt.Errorf("use either artwork ids or --query, not both")
		}
		ctrl := a.newSearchController()
		if err := ctrl.Search(ctx, batchQuery); err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		return ctrl.State().Results, nil
	}

	refs := make([]artwork.Ref, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid artwork id %q", arg)
		}
		ref, err := a.catalog.ArtworkByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch artwork %d: %w", id, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// batchResultJSON is one artwork in the JSON batch document.
type batchResultJSON struct {
	Artwork artwork.Ref         `json:"artwork"`
	Palette *colour.PaletteJSON `json:"palette,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func printBatch(cmd *cobra.Command, results []palettecache.Result) error {
	out := cmd.OutOrStdout()
	switch batchFormat {
	case "json":
		docs := make([]batchResultJSON, len(results))
		for i, r := range results {
			docs[i].Artwork = r.Ref
			if r.Err != nil {
				docs[i].Error = r.Err.Error()
				continue
			}
			p := r.Palette.Palette.JSON()
			docs[i].Palette = &p
		}
		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to convert to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "table", "":
		preview := colour.SupportsANSIColours(os.Stdout)
		table := NewTable([]string{"ID", "Title", "Dominant", "Colours"})
		table.SetColumnMaxWidth(1, 36)
		for _, r := range results {
			table.AddRow([]string{strconv.Itoa(r.Ref.ID), r.Ref.Title, dominantCell(r, preview), coloursCell(r)})
		}
		fmt.Fprint(out, table.Render())
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json)", batchFormat)
	}
}

func dominantCell(r palettecache.Result, preview bool) string {
	if r.Err != nil {
		return "-"
	}
	hex := r.Palette.Dominant.Hex()
	if preview {
		return colour.ColourPreviewWithText(r.Palette.Dominant, hex, 9)
	}
	return hex
}

func coloursCell(r palettecache.Result) string {
	switch {
	case errors.Is(r.Err, artwork.ErrNoImage):
		return "skipped: no image"
	case r.Err != nil:
		return "failed: " + r.Err.Error()
	}
	return strings.Join(r.Palette.ToHex(), " ")
}
