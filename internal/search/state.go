package search

import (
	"slices"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/catalog"
)

// Mode is the listing a controller is browsing.
type Mode int

const (
	// ModeFeatured lists the curated public-domain selection.
	ModeFeatured Mode = iota
	// ModeSearch lists results for the current filters.
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "featured"
}

// Phase is where a controller is in its fetch cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSearching
	PhaseReady
	PhaseLoadingMore
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "searching"
	case PhaseReady:
		return "ready"
	case PhaseLoadingMore:
		return "loading-more"
	default:
		return "idle"
	}
}

// State is a snapshot of a search session.
//
// Filters.Page is the last page merged into Results. Results accumulate
// across pages in fetch order; duplicates are kept.
type State struct {
	Filters      catalog.Filters
	Results      []artwork.Ref
	TotalResults int
	TotalPages   int
	Mode         Mode
	Phase        Phase
	Err          error

	// HasSearched is set once the session has left the featured listing.
	HasSearched bool
}

// IsLoading reports whether a fetch is in flight.
func (s State) IsLoading() bool {
	return s.Phase == PhaseSearching || s.Phase == PhaseLoadingMore
}

// IsError reports whether the last fetch failed.
func (s State) IsError() bool {
	return s.Err != nil
}

// HasNextPage reports whether LoadMore would fetch another page.
func (s State) HasNextPage() bool {
	return s.Filters.Page < s.TotalPages
}

func (s State) clone() State {
	s.Results = slices.Clone(s.Results)
	return s
}

// FilterPatch changes some filters. Nil fields are left unchanged.
type FilterPatch struct {
	Query  *string
	Style  *string
	Period *string
	Limit  *int
}

// touchesQuery reports whether the patch changes what is searched for,
// as opposed to only the page size.
func (p FilterPatch) touchesQuery() bool {
	return p.Query != nil || p.Style != nil || p.Period != nil
}

func defaultFilters(limit int) catalog.Filters {
	return catalog.Filters{Style: catalog.All, Period: catalog.All, Limit: limit, Page: 1}
}

// isDefault reports whether f searches for everything.
func isDefault(f catalog.Filters) bool {
	return f.Query == "" &&
		(f.Style == "" || f.Style == catalog.All) &&
		(f.Period == "" || f.Period == catalog.All)
}
