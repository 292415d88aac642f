// Package search drives an incremental artwork search session.
//
// A Controller holds the filters, the accumulated results and the paging
// counters, and decides whether a fetch replaces the results (new filters)
// or appends to them (next page).
package search

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/catalog"
)

// Fetcher fetches pages of artworks. *catalog.Client satisfies it.
type Fetcher interface {
	Search(ctx context.Context, f catalog.Filters) (*catalog.Response, error)
	Featured(ctx context.Context, page, limit int) (*catalog.Response, error)
}

// Options configures a Controller. Zero values use the catalog defaults.
type Options struct {
	PageSize         int
	FeaturedPageSize int
	Logger           hclog.Logger
}

// request is one fetch. Replace requests always ask for page 1.
type request struct {
	filters catalog.Filters
	mode    Mode
	append  bool
}

// Controller is a search session. It is safe for concurrent use; methods that
// fetch block until the fetch completes.
type Controller struct {
	fetcher          Fetcher
	pageSize         int
	featuredPageSize int
	logger           hclog.Logger

	mu        sync.Mutex
	state     State
	gen       uint64
	inFlight  bool
	failed    *request
	listeners map[int]func(State)
	nextID    int
}

// New creates a controller in the featured mode. Nothing is fetched until
// Refresh, Search or UpdateFilters is called.
func New(fetcher Fetcher, opts Options) *Controller {
	c := &Controller{
		fetcher:          fetcher,
		pageSize:         opts.PageSize,
		featuredPageSize: opts.FeaturedPageSize,
		logger:           opts.Logger,
		listeners:        make(map[int]func(State)),
	}
	if c.pageSize <= 0 {
		c.pageSize = catalog.DefaultLimit
	}
	if c.featuredPageSize <= 0 {
		c.featuredPageSize = catalog.FeaturedLimit
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	c.state = c.initialState()
	return c
}

func (c *Controller) initialState() State {
	return State{Filters: defaultFilters(c.pageSize), Mode: ModeFeatured, Phase: PhaseIdle}
}

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.listeners, id)
		})
	}
}

// Search runs a new search for query, replacing the current results.
func (c *Controller) Search(ctx context.Context, query string) error {
	q := strings.TrimSpace(query)
	return c.UpdateFilters(ctx, FilterPatch{Query: &q})
}

// UpdateFilters applies patch. Changing the query, style or period resets to
// page 1 and replaces the results. The current results stay in State until
// the new first page arrives and are replaced then, not cleared when the
// filters change. Changing only the limit applies to later fetches and does
// not fetch.
func (c *Controller) UpdateFilters(ctx context.Context, patch FilterPatch) error {
	c.mu.Lock()
	f := c.state.Filters
	if patch.Limit != nil && *patch.Limit > 0 {
		f.Limit = min(*patch.Limit, catalog.MaxLimit)
	}
	if !patch.touchesQuery() {
		c.state.Filters.Limit = f.Limit
		snap, listeners := c.snapshot()
		c.mu.Unlock()
		notify(listeners, snap)
		return nil
	}

	if patch.Query != nil {
		f.Query = strings.TrimSpace(*patch.Query)
	}
	if patch.Style != nil {
		f.Style = *patch.Style
	}
	if patch.Period != nil {
		f.Period = *patch.Period
	}

	mode := ModeSearch
	if c.state.Mode == ModeFeatured && isDefault(f) {
		mode = ModeFeatured
	}

	// The committed page stays until the new first page arrives.
	committed := c.state.Filters.Page
	c.state.Filters = f
	c.state.Filters.Page = committed
	c.state.Mode = mode
	if mode == ModeSearch {
		c.state.HasSearched = true
	}
	f.Page = 1
	c.mu.Unlock()

	return c.run(ctx, request{filters: f, mode: mode})
}

// LoadMore fetches the next page and appends it to the results.
//
// It reports false without fetching when a fetch is already in flight, when
// there is no next page, or when the last new search failed and must be
// retried first.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.inFlight || !c.state.HasNextPage() || (c.failed != nil && !c.failed.append) {
		c.logger.Trace("load more dropped", "in_flight", c.inFlight, "page", c.state.Filters.Page, "total_pages", c.state.TotalPages)
		c.mu.Unlock()
		return false, nil
	}
	f := c.state.Filters
	f.Page++
	req := request{filters: f, mode: c.state.Mode, append: true}
	c.mu.Unlock()

	return true, c.run(ctx, req)
}

// Refresh reloads page 1 of the current listing, replacing the results.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	f := c.state.Filters
	f.Page = 1
	req := request{filters: f, mode: c.state.Mode}
	c.mu.Unlock()
	return c.run(ctx, req)
}

// Retry re-issues the last failed fetch. It does nothing if the last fetch succeeded.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	req := c.failed
	c.mu.Unlock()
	if req == nil {
		return nil
	}
	return c.run(ctx, *req)
}

// Reset returns to the initial featured state. A fetch in flight is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	c.inFlight = false
	c.failed = nil
	c.state = c.initialState()
	snap, listeners := c.snapshot()
	c.mu.Unlock()
	notify(listeners, snap)
}

// run performs req and merges its result. Responses to requests superseded by
// a later fetch or a Reset are discarded.
func (c *Controller) run(ctx context.Context, req request) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.inFlight = true
	c.state.Err = nil
	if req.append {
		c.state.Phase = PhaseLoadingMore
	} else {
		c.state.Phase = PhaseSearching
	}
	snap, listeners := c.snapshot()
	c.mu.Unlock()
	notify(listeners, snap)

	resp, err := c.fetch(ctx, req)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded response", "mode", req.mode, "page", req.filters.Page)
		return nil
	}
	c.inFlight = false
	c.state.Phase = PhaseReady
	if err != nil {
		c.state.Err = err
		c.failed = &req
		c.logger.Warn("fetch failed", "mode", req.mode, "query", req.filters.Query, "page", req.filters.Page, "error", err)
	} else {
		c.merge(req, resp)
		c.failed = nil
	}
	snap, listeners = c.snapshot()
	c.mu.Unlock()
	notify(listeners, snap)
	return err
}

func (c *Controller) fetch(ctx context.Context, req request) (*catalog.Response, error) {
	if req.mode == ModeFeatured {
		return c.fetcher.Featured(ctx, req.filters.Page, c.featuredPageSize)
	}
	return c.fetcher.Search(ctx, req.filters)
}

// merge applies a successful response. Callers hold c.mu.
func (c *Controller) merge(req request, resp *catalog.Response) {
	if req.append {
		results := make([]artwork.Ref, 0, len(c.state.Results)+len(resp.Data))
		results = append(results, c.state.Results...)
		c.state.Results = append(results, resp.Data...)
	} else {
		c.state.Results = resp.Data
	}
	c.state.TotalResults = resp.Pagination.Total
	c.state.TotalPages = resp.Pagination.TotalPages
	c.state.Filters.Page = req.filters.Page

	c.logger.Debug("page merged", "mode", req.mode, "page", req.filters.Page, "append", req.append,
		"results", len(c.state.Results), "total_pages", c.state.TotalPages)
}

// snapshot copies the state and listeners. Callers hold c.mu.
func (c *Controller) snapshot() (State, []func(State)) {
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	return c.state.clone(), listeners
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
