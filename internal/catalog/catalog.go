// Package catalog is a client for the Art Institute of Chicago public API.
// It searches public-domain artworks that have images and builds IIIF image URLs.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/hue/internal/artwork"
	httputil "github.com/jmylchreest/hue/internal/util/http"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.artic.edu/api/v1"

	// DefaultIIIFURL is the IIIF image server root.
	DefaultIIIFURL = "https://www.artic.edu/iiif/2"

	// DefaultLimit is the page size used when a request does not set one.
	DefaultLimit = 20

	// MaxLimit is the largest page size the API accepts.
	MaxLimit = 100

	// FeaturedLimit is the page size of the featured listing.
	FeaturedLimit = 24

	// featuredQuery selects the featured listing.
	featuredQuery = "is_public_domain:true"

	// fields lists the artwork fields requested from the API.
	fields = "id,title,artist_display,date_display,medium_display,style_title,classification_title,image_id,thumbnail"
)

// ErrNetwork is returned when the catalog cannot be reached or answers with an error.
var ErrNetwork = errors.New("catalog request failed")

// ImageSize selects one of the IIIF renditions.
type ImageSize string

const (
	SizeThumbnail ImageSize = "thumbnail"
	SizeMedium    ImageSize = "medium"
	SizeLarge     ImageSize = "large"
)

// imageWidths maps sizes to IIIF width-only size parameters.
var imageWidths = map[ImageSize]string{
	SizeThumbnail: "400,",
	SizeMedium:    "800,",
	SizeLarge:     "1686,",
}

// Filters describes a search request.
type Filters struct {
	Query  string
	Style  string
	Period string
	Limit  int
	Page   int
}

// Pagination is the paging block of an API response.
type Pagination struct {
	Total       int `json:"total"`
	Limit       int `json:"limit"`
	Offset      int `json:"offset"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

// Response is one page of search results.
type Response struct {
	Data       []artwork.Ref `json:"data"`
	Pagination Pagination    `json:"pagination"`
}

// Options configures a Client. Zero values use the package defaults.
type Options struct {
	BaseURL           string
	IIIFURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            hclog.Logger
}

// Client talks to the catalog API.
type Client struct {
	baseURL string
	iiifURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	logger  hclog.Logger
}

// New creates a catalog client.
func New(opts Options) *Client {
	c := &Client{
		baseURL: opts.BaseURL,
		iiifURL: opts.IIIFURL,
		timeout: opts.Timeout,
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.iiifURL == "" {
		c.iiifURL = DefaultIIIFURL
	}
	if c.logger == nil {
		c.logger = hclog.NewNullLogger()
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return c
}

// Search returns one page of artworks matching the filters.
// Only public-domain artworks with an image are returned.
func (c *Client) Search(ctx context.Context, f Filters) (*Response, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	f.Limit = min(f.Limit, MaxLimit)
	if f.Page <= 0 {
		f.Page = 1
	}

	params, err := searchParams(f)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := c.getJSON(ctx, c.baseURL+"/artworks/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	withImages := resp.Data[:0]
	for _, a := range resp.Data {
		if a.HasImage() {
			withImages = append(withImages, a)
		}
	}
	resp.Data = withImages

	c.logger.Debug("search complete", "query", f.Query, "page", f.Page, "results", len(resp.Data), "total", resp.Pagination.Total)
	return &resp, nil
}

// Featured returns a page of the curated public-domain listing.
func (c *Client) Featured(ctx context.Context, page, limit int) (*Response, error) {
	if limit <= 0 {
		limit = FeaturedLimit
	}
	return c.Search(ctx, Filters{Query: featuredQuery, Limit: limit, Page: page})
}

// ArtworkByID fetches a single artwork.
func (c *Client) ArtworkByID(ctx context.Context, id int) (artwork.Ref, error) {
	var resp struct {
		Data artwork.Ref `json:"data"`
	}
	u := fmt.Sprintf("%s/artworks/%d?fields=%s", c.baseURL, id, url.QueryEscape(fields))
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return artwork.Ref{}, err
	}
	return resp.Data, nil
}

// ImageURL returns the IIIF URL for an image at the given size.
// An empty image id yields an empty URL; unknown sizes fall back to medium.
func (c *Client) ImageURL(imageID string, size ImageSize) string {
	if imageID == "" {
		return ""
	}
	width, ok := imageWidths[size]
	if !ok {
		width = imageWidths[SizeMedium]
	}
	return fmt.Sprintf("%s/%s/full/%s/0/default.jpg", c.iiifURL, url.PathEscape(imageID), width)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrNetwork, err)
	}

	data, err := httputil.Fetch(ctx, u, httputil.FetchOptions{
		Timeout: c.timeout,
		Client:  c.client,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		c.logger.Warn("catalog request failed", "url", u, "error", err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: invalid response: %w", ErrNetwork, err)
	}
	return nil
}

// searchParams builds the query string for a search request.
func searchParams(f Filters) (url.Values, error) {
	restrict, err := json.Marshal(map[string]any{
		"bool": map[string]any{
			"must": []any{
				map[string]any{"exists": map[string]string{"field": "image_id"}},
				map[string]any{"term": map[string]bool{"is_public_domain": true}},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query restriction: %w", err)
	}

	return url.Values{
		"q":      {BuildQuery(f.Query, f.Style, f.Period)},
		"limit":  {strconv.Itoa(f.Limit)},
		"page":   {strconv.Itoa(f.Page)},
		"fields": {fields},
		"boost":  {"false"},
		"query":  {string(restrict)},
	}, nil
}
