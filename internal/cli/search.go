package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hue/internal/catalog"
	"github.com/jmylchreest/hue/internal/search"
)

var (
	// Search command flags
	searchStyle    string
	searchPeriod   string
	searchPages    int
	searchPageSize int
	searchFormat   string

	// Featured command flags
	featuredPages  int
	featuredFormat string
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search public-domain artworks",
		Long: `Search the collection for public-domain artworks that have an image.

Results can be narrowed by style and art historical period. Each further page
requested with --pages is appended to the listing.

Styles:  ` + optionValues(catalog.Styles) + `
Periods: ` + optionValues(catalog.Periods) + `

Examples:
  # Search for water lilies
  hue search water lilies

  # Impressionist paintings, three pages of results
  hue search --style painting --period impressionism --pages 3

  # Output as JSON
  hue search --format json monet`,
		RunE: withApp(runSearch),
	}

	cmd.Flags().StringVar(&searchStyle, "style", catalog.All, "artwork style")
	cmd.Flags().StringVar(&searchPeriod, "period", catalog.All, "art historical period")
	cmd.Flags().IntVarP(&searchPages, "pages", "n", 1, "number of pages to load")
	cmd.Flags().IntVar(&searchPageSize, "page-size", catalog.DefaultLimit, "results per page (1-100)")
	cmd.Flags().StringVarP(&searchFormat, "format", "f", "table", "output format (table, json)")
	return cmd
}

func newFeaturedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List featured public-domain artworks",
		Long: `List the featured selection of public-domain artworks.

Examples:
  # First page of featured artworks
  hue featured

  # Two pages as JSON
  hue featured --pages 2 --format json`,
		Args: cobra.NoArgs,
		RunE: withApp(runFeatured),
	}

	cmd.Flags().IntVarP(&featuredPages, "pages", "n", 1, "number of pages to load")
	cmd.Flags().StringVarP(&featuredFormat, "format", "f", "table", "output format (table, json)")
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
	if err := catalog.ValidateStyle(searchStyle); err != nil {
		return err
	}
	if err := catalog.ValidatePeriod(searchPeriod); err != nil {
		return err
	}

	ctrl := a.newSearchController()
	unsubscribe := ctrl.Subscribe(func(s search.State) {
		a.logger.Debug("search state", "mode", s.Mode, "phase", s.Phase, "page", s.Filters.Page, "results", len(s.Results))
	})
	defer unsubscribe()

	query := strings.Join(args, " ")
	err := ctrl.UpdateFilters(ctx, search.FilterPatch{
		Query:  &query,
		Style:  &searchStyle,
		Period: &searchPeriod,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if err := loadPages(ctx, ctrl, searchPages); err != nil {
		return err
	}
	return printResults(cmd, ctrl.State(), searchFormat)
}

func runFeatured(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
	ctrl := a.newSearchController()
	if err := ctrl.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load featured artworks: %w", err)
	}
	if err := loadPages(ctx, ctrl, featuredPages); err != nil {
		return err
	}
	return printResults(cmd, ctrl.State(), featuredFormat)
}

// loadPages loads further pages until pages are loaded or the listing ends.
func loadPages(ctx context.Context, ctrl *search.Controller, pages int) error {
	for range pages - 1 {
		ok, err := ctrl.LoadMore(ctx)
		if err != nil {
			return fmt.Errorf("failed to load page %d: %w", ctrl.State().Filters.Page+1, err)
		}
		if !ok {
			break
		}
	}
	return nil
}

// resultsJSON is the JSON document for a listing.
type resultsJSON struct {
	Mode         string `json:"mode"`
	Query        string `json:"query,omitempty"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
	HasNextPage  bool   `json:"has_next_page"`
	Artworks     any    `json:"artworks"`
}

func printResults(cmd *cobra.Command, s search.State, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		doc := resultsJSON{
			Mode:         s.Mode.String(),
			Query:        s.Filters.Query,
			Page:         s.Filters.Page,
			TotalPages:   s.TotalPages,
			TotalResults: s.TotalResults,
			HasNextPage:  s.HasNextPage(),
			Artworks:     s.Results,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to convert to JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "table", "":
		writeResultsTable(out, s)
		progressf(cmd, "Showing %d of %d artworks (page %d of %d)\n",
			len(s.Results), s.TotalResults, s.Filters.Page, s.TotalPages)
		if s.HasNextPage() {
			progressf(cmd, "Use --pages to load more\n")
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json)", format)
	}
}

func writeResultsTable(w io.Writer, s search.State) {
	if len(s.Results) == 0 {
		fmt.Fprintln(w, "No artworks found")
		return
	}
	table := NewTable([]string{"ID", "Title", "Artist", "Date"})
	table.SetColumnMaxWidth(1, 40)
	table.SetColumnMaxWidth(2, 36)
	for _, r := range s.Results {
		table.AddRow([]string{strconv.Itoa(r.ID), r.Title, firstLine(r.ArtistDisplay), r.DateDisplay})
	}
	fmt.Fprint(w, table.Render())
}

// firstLine returns the text before the first newline. Artist displays carry
// nationality and dates on a second line.
func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func optionValues(options []catalog.Option) string {
	values := make([]string, len(options))
	for i, o := range options {
		values[i] = o.Value
	}
	return strings.Join(values, ", ")
}
