// Package extraction turns artworks into colour palettes.
//
// It resolves an artwork's image URL through the catalog, loads and decodes
// the image, and runs the colour extractor, memoising results in a palette cache.
package extraction

import (
	"context"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/catalog"
	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/palettecache"
)

// ErrNoImage is returned for artworks the catalog has no image for.
var ErrNoImage = artwork.ErrNoImage

// ImageLoader loads and decodes an image from a path or URL.
type ImageLoader interface {
	Load(ctx context.Context, src string) (image.Image, error)
}

// ImageURLBuilder builds the URL of an artwork image.
type ImageURLBuilder interface {
	ImageURL(imageID string, size catalog.ImageSize) string
}

// Options configures a Service. URLs, Loader and Cache are required.
type Options struct {
	URLs      ImageURLBuilder
	Loader    ImageLoader
	Cache     *palettecache.Cache
	Extractor colour.Extractor

	// Size is the image rendition palettes are extracted from. Defaults to medium.
	Size   catalog.ImageSize
	Logger hclog.Logger
}

// Service extracts artwork palettes.
type Service struct {
	urls      ImageURLBuilder
	loader    ImageLoader
	cache     *palettecache.Cache
	extractor colour.Extractor
	size      catalog.ImageSize
	logger    hclog.Logger
}

// New creates an extraction service.
func New(opts Options) (*Service, error) {
	if opts.URLs == nil || opts.Loader == nil || opts.Cache == nil {
		return nil, fmt.Errorf("extraction service needs an image URL builder, a loader and a cache")
	}
	s := &Service{
		urls:      opts.URLs,
		loader:    opts.Loader,
		cache:     opts.Cache,
		extractor: opts.Extractor,
		size:      opts.Size,
		logger:    opts.Logger,
	}
	if s.extractor == nil {
		s.extractor = colour.NewMedianCutExtractor()
	}
	if s.size == "" {
		s.size = catalog.SizeMedium
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	return s, nil
}

// Extract returns the palette of k colours for an artwork, using the cache.
func (s *Service) Extract(ctx context.Context, ref artwork.Ref, k int) (*artwork.Palette, error) {
	if !ref.HasImage() {
		return nil, fmt.Errorf("%w: artwork %d", ErrNoImage, ref.ID)
	}
	return s.cache.GetOrExtract(ctx, ref, k, func(ctx context.Context) (*artwork.Palette, error) {
		return s.extract(ctx, ref, k)
	})
}

// ExtractAll extracts palettes for a batch of artworks. See palettecache.Cache.ExtractAll.
func (s *Service) ExtractAll(ctx context.Context, refs []artwork.Ref, k int, progress palettecache.ProgressFunc) ([]palettecache.Result, error) {
	return s.cache.ExtractAll(ctx, refs, k, func(ctx context.Context, ref artwork.Ref) (*artwork.Palette, error) {
		return s.extract(ctx, ref, k)
	}, progress)
}

// ExtractImage returns the palette of a local image file or image URL. Results are not cached.
func (s *Service) ExtractImage(ctx context.Context, src string, k int) (*colour.Palette, error) {
	img, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	palette, err := s.extractor.Extract(img, colour.ClampCount(k))
	if err != nil {
		return nil, fmt.Errorf("failed to extract colours: %w", err)
	}
	return palette, nil
}

func (s *Service) extract(ctx context.Context, ref artwork.Ref, k int) (*artwork.Palette, error) {
	url := s.urls.ImageURL(ref.ImageID, s.size)
	s.logger.Debug("extracting palette", "artwork", ref.ID, "url", url, "count", k)

	palette, err := s.ExtractImage(ctx, url, k)
	if err != nil {
		return nil, err
	}
	return &artwork.Palette{Palette: *palette, Source: ref}, nil
}
