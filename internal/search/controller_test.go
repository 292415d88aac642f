package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/catalog"
)

const perPage = 10

// fakeFetcher serves totalPages pages of perPage artworks. Artwork ids encode
// the page: page 2 holds ids 11-20.
type fakeFetcher struct {
	mu         sync.Mutex
	totalPages int
	err        error
	gates      map[string]chan struct{}
	searches   []catalog.Filters
	featured   [][2]int
}

func newFakeFetcher(totalPages int) *fakeFetcher {
	return &fakeFetcher{totalPages: totalPages, gates: make(map[string]chan struct{})}
}

func (f *fakeFetcher) Search(ctx context.Context, filters catalog.Filters) (*catalog.Response, error) {
	f.mu.Lock()
	f.searches = append(f.searches, filters)
	gate := f.gates[filters.Query]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.page(filters.Page)
}

func (f *fakeFetcher) Featured(ctx context.Context, page, limit int) (*catalog.Response, error) {
	f.mu.Lock()
	f.featured = append(f.featured, [2]int{page, limit})
	f.mu.Unlock()
	return f.page(page)
}

func (f *fakeFetcher) page(page int) (*catalog.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	data := make([]artwork.Ref, perPage)
	for i := range data {
		id := (page-1)*perPage + i + 1
		data[i] = artwork.Ref{ID: id, ImageID: "img"}
	}
	return &catalog.Response{
		Data: data,
		Pagination: catalog.Pagination{
			Total:       f.totalPages * perPage,
			Limit:       perPage,
			TotalPages:  f.totalPages,
			CurrentPage: page,
		},
	}, nil
}

func (f *fakeFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFetcher) gate(query string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[query] = ch
	return ch
}

func (f *fakeFetcher) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func strPtr(s string) *string { return &s }

func TestReplaceVersusAppend(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeFetcher(5), Options{})

	if err := c.Search(ctx, "  monet "); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	s := c.State()
	if s.Filters.Query != "monet" || s.Filters.Page != 1 || len(s.Results) != perPage {
		t.Fatalf("after Search: query=%q page=%d results=%d", s.Filters.Query, s.Filters.Page, len(s.Results))
	}

	if ok, err := c.LoadMore(ctx); !ok || err != nil {
		t.Fatalf("LoadMore() = %v, %v", ok, err)
	}
	s = c.State()
	if s.Filters.Page != 2 || len(s.Results) != 2*perPage {
		t.Fatalf("after LoadMore: page=%d results=%d", s.Filters.Page, len(s.Results))
	}
	if s.Results[0].ID != 1 || s.Results[perPage].ID != perPage+1 {
		t.Errorf("results not appended in page order: first=%d, page2 first=%d", s.Results[0].ID, s.Results[perPage].ID)
	}

	if err := c.Search(ctx, "degas"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	s = c.State()
	if s.Filters.Page != 1 || len(s.Results) != perPage || s.Results[0].ID != 1 {
		t.Errorf("new search did not replace: page=%d results=%d", s.Filters.Page, len(s.Results))
	}
	if s.Mode != ModeSearch || !s.HasSearched {
		t.Errorf("Mode = %s, HasSearched = %v", s.Mode, s.HasSearched)
	}
}

func TestStyleChangeResetsPage(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(5)
	c := New(f, Options{})

	c.Search(ctx, "landscape")
	c.LoadMore(ctx)
	c.LoadMore(ctx)
	if err := c.UpdateFilters(ctx, FilterPatch{Style: strPtr("painting"), Period: strPtr("baroque")}); err != nil {
		t.Fatalf("UpdateFilters() error = %v", err)
	}

	last := f.searches[len(f.searches)-1]
	if last.Page != 1 || last.Query != "landscape" || last.Style != "painting" || last.Period != "baroque" {
		t.Errorf("last request = %+v", last)
	}
	if s := c.State(); len(s.Results) != perPage {
		t.Errorf("results = %d, want %d", len(s.Results), perPage)
	}
}

func TestHasNextPageBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(2)
	c := New(f, Options{})

	if c.State().HasNextPage() {
		t.Error("HasNextPage() before any fetch = true")
	}
	c.Search(ctx, "water")
	if !c.State().HasNextPage() {
		t.Fatal("HasNextPage() on page 1 of 2 = false")
	}
	if ok, _ := c.LoadMore(ctx); !ok {
		t.Fatal("LoadMore() on page 1 of 2 was dropped")
	}
	if c.State().HasNextPage() {
		t.Error("HasNextPage() on page 2 of 2 = true")
	}

	before := f.searchCount()
	if ok, err := c.LoadMore(ctx); ok || err != nil {
		t.Errorf("LoadMore() on last page = %v, %v, want dropped", ok, err)
	}
	if f.searchCount() != before {
		t.Error("LoadMore() on last page issued a request")
	}
}

// partialPageFetcher reports 25 results at 20 per page: a full first page and
// a second page of 5.
type partialPageFetcher struct{}

func (partialPageFetcher) Search(ctx context.Context, filters catalog.Filters) (*catalog.Response, error) {
	n := 20
	if filters.Page == 2 {
		n = 5
	}
	data := make([]artwork.Ref, n)
	for i := range data {
		data[i] = artwork.Ref{ID: (filters.Page-1)*20 + i + 1}
	}
	return &catalog.Response{
		Data:       data,
		Pagination: catalog.Pagination{Total: 25, Limit: 20, TotalPages: 2, CurrentPage: filters.Page},
	}, nil
}

func (f partialPageFetcher) Featured(ctx context.Context, page, limit int) (*catalog.Response, error) {
	return f.Search(ctx, catalog.Filters{Page: page, Limit: limit})
}

func TestHasNextPagePartialLastPage(t *testing.T) {
	ctx := context.Background()
	c := New(partialPageFetcher{}, Options{PageSize: 20})

	if err := c.Search(ctx, "monet"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	s := c.State()
	if !s.HasNextPage() {
		t.Fatal("HasNextPage() after page 1 of 2 = false")
	}
	if s.TotalResults != 25 || len(s.Results) != 20 {
		t.Errorf("TotalResults = %d, results = %d, want 25 and 20", s.TotalResults, len(s.Results))
	}

	if ok, err := c.LoadMore(ctx); !ok || err != nil {
		t.Fatalf("LoadMore() = %v, %v", ok, err)
	}
	s = c.State()
	if s.HasNextPage() {
		t.Error("HasNextPage() after page 2 of 2 = true")
	}
	if len(s.Results) != 25 {
		t.Errorf("results = %d, want 25", len(s.Results))
	}
}

func TestLoadMoreFailureKeepsResults(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(3)
	c := New(f, Options{})
	c.Search(ctx, "monet")

	f.setErr(catalog.ErrNetwork)
	if ok, err := c.LoadMore(ctx); !ok || !errors.Is(err, catalog.ErrNetwork) {
		t.Fatalf("LoadMore() = %v, %v, want ErrNetwork", ok, err)
	}
	s := c.State()
	if !s.IsError() || s.IsLoading() {
		t.Errorf("IsError() = %v, IsLoading() = %v", s.IsError(), s.IsLoading())
	}
	if len(s.Results) != perPage || s.Filters.Page != 1 || s.Results[0].ID != 1 {
		t.Errorf("results mutated on failure: page=%d results=%d", s.Filters.Page, len(s.Results))
	}

	f.setErr(nil)
	if err := c.Retry(ctx); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	s = c.State()
	if s.IsError() || s.Filters.Page != 2 || len(s.Results) != 2*perPage {
		t.Errorf("after Retry: err=%v page=%d results=%d", s.Err, s.Filters.Page, len(s.Results))
	}
}

func TestSearchFailureKeepsResults(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(3)
	c := New(f, Options{})
	c.Search(ctx, "monet")
	c.LoadMore(ctx)

	f.setErr(catalog.ErrNetwork)
	if err := c.Search(ctx, "degas"); !errors.Is(err, catalog.ErrNetwork) {
		t.Fatalf("Search() error = %v, want ErrNetwork", err)
	}
	s := c.State()
	if len(s.Results) != 2*perPage || !s.IsError() {
		t.Errorf("results=%d IsError=%v", len(s.Results), s.IsError())
	}

	f.setErr(nil)
	before := f.searchCount()
	if ok, _ := c.LoadMore(ctx); ok {
		t.Error("LoadMore() after a failed search was not dropped")
	}
	if f.searchCount() != before {
		t.Error("dropped LoadMore() issued a request")
	}

	if err := c.Retry(ctx); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	s = c.State()
	if s.Filters.Query != "degas" || s.Filters.Page != 1 || len(s.Results) != perPage {
		t.Errorf("after Retry: query=%q page=%d results=%d", s.Filters.Query, s.Filters.Page, len(s.Results))
	}
}

func TestRetryWithoutFailure(t *testing.T) {
	f := newFakeFetcher(1)
	c := New(f, Options{})
	if err := c.Retry(context.Background()); err != nil {
		t.Errorf("Retry() error = %v", err)
	}
	if f.searchCount() != 0 {
		t.Error("Retry() without a failure issued a request")
	}
}

func TestLimitOnlyPatch(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(3)
	c := New(f, Options{})
	c.Search(ctx, "monet")

	limit := 40
	if err := c.UpdateFilters(ctx, FilterPatch{Limit: &limit}); err != nil {
		t.Fatalf("UpdateFilters() error = %v", err)
	}
	if f.searchCount() != 1 {
		t.Errorf("limit-only patch issued %d requests, want none", f.searchCount()-1)
	}
	if s := c.State(); s.Filters.Limit != 40 || s.Filters.Page != 1 {
		t.Errorf("Filters = %+v", s.Filters)
	}

	c.LoadMore(ctx)
	if last := f.searches[len(f.searches)-1]; last.Limit != 40 || last.Page != 2 {
		t.Errorf("next request = %+v, want limit 40 page 2", last)
	}
}

func TestFeaturedMode(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(3)
	c := New(f, Options{})

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(f.featured) != 1 || f.featured[0] != [2]int{1, catalog.FeaturedLimit} {
		t.Errorf("featured requests = %v", f.featured)
	}
	if s := c.State(); s.Mode != ModeFeatured || s.HasSearched || len(s.Results) != perPage {
		t.Errorf("state = mode %s searched %v results %d", s.Mode, s.HasSearched, len(s.Results))
	}

	c.LoadMore(ctx)
	if len(f.featured) != 2 || f.featured[1][0] != 2 {
		t.Errorf("featured requests = %v, want page 2", f.featured)
	}

	c.UpdateFilters(ctx, FilterPatch{Style: strPtr(catalog.All)})
	if s := c.State(); s.Mode != ModeFeatured {
		t.Errorf("default filters switched mode to %s", s.Mode)
	}
	if f.searchCount() != 0 {
		t.Errorf("featured mode issued %d searches", f.searchCount())
	}

	c.Search(ctx, "monet")
	if s := c.State(); s.Mode != ModeSearch {
		t.Errorf("Mode after Search = %s, want search", s.Mode)
	}

	c.Search(ctx, "")
	if s := c.State(); s.Mode != ModeSearch {
		t.Errorf("clearing the query reverted to %s", s.Mode)
	}
	if last := f.searches[len(f.searches)-1]; last.Query != "" {
		t.Errorf("last search query = %q", last.Query)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeFetcher(3), Options{PageSize: 15})
	c.Search(ctx, "monet")
	c.LoadMore(ctx)

	c.Reset()
	s := c.State()
	if s.Mode != ModeFeatured || s.Phase != PhaseIdle || s.HasSearched {
		t.Errorf("state = mode %s phase %s searched %v", s.Mode, s.Phase, s.HasSearched)
	}
	if len(s.Results) != 0 || s.TotalResults != 0 || s.TotalPages != 0 {
		t.Errorf("results not cleared: %d/%d/%d", len(s.Results), s.TotalResults, s.TotalPages)
	}
	want := catalog.Filters{Style: catalog.All, Period: catalog.All, Limit: 15, Page: 1}
	if s.Filters != want {
		t.Errorf("Filters = %+v, want %+v", s.Filters, want)
	}
}

func TestLoadMoreDroppedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(5)
	c := New(f, Options{})
	c.Search(ctx, "monet")

	gate := f.gate("monet")
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.LoadMore(ctx)
	}()
	waitFor(t, func() bool { return c.State().Phase == PhaseLoadingMore })

	if ok, err := c.LoadMore(ctx); ok || err != nil {
		t.Errorf("concurrent LoadMore() = %v, %v, want dropped", ok, err)
	}
	close(gate)
	<-done

	s := c.State()
	if s.Filters.Page != 2 || len(s.Results) != 2*perPage {
		t.Errorf("page=%d results=%d, want a single appended page", s.Filters.Page, len(s.Results))
	}
	if f.searchCount() != 2 {
		t.Errorf("requests = %d, want 2", f.searchCount())
	}
}

func TestSupersededResponseDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher(5)
	c := New(f, Options{})

	gate := f.gate("slow")
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Search(ctx, "slow")
	}()
	waitFor(t, func() bool { return f.searchCount() == 1 })

	if err := c.Search(ctx, "fast"); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	close(gate)
	<-done

	s := c.State()
	if s.Filters.Query != "fast" || s.IsLoading() || len(s.Results) != perPage {
		t.Errorf("state = query %q loading %v results %d", s.Filters.Query, s.IsLoading(), len(s.Results))
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeFetcher(3), Options{})

	var phases []Phase
	unsubscribe := c.Subscribe(func(s State) { phases = append(phases, s.Phase) })

	c.Search(ctx, "monet")
	c.LoadMore(ctx)
	want := []Phase{PhaseSearching, PhaseReady, PhaseLoadingMore, PhaseReady}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phases[%d] = %s, want %s", i, phases[i], want[i])
		}
	}

	unsubscribe()
	unsubscribe()
	c.Reset()
	if len(phases) != len(want) {
		t.Errorf("listener called after unsubscribe: %v", phases)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	c := New(newFakeFetcher(3), Options{})
	c.Search(ctx, "monet")

	s := c.State()
	s.Results[0] = artwork.Ref{ID: -1}
	if c.State().Results[0].ID != 1 {
		t.Error("mutating a snapshot changed controller state")
	}
}
