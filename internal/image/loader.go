// Package image provides utilities for loading and decoding images.
package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "github.com/gen2brain/avif" // Register AVIF format
	_ "golang.org/x/image/webp"   // Register WebP format

	"github.com/jmylchreest/hue/internal/colour"
	"github.com/jmylchreest/hue/internal/security"
	httputil "github.com/jmylchreest/hue/internal/util/http"
)

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads and decodes an image from a path or URL.
	Load(ctx context.Context, src string) (image.Image, error)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode decodes an image and rejects empty ones. Failures wrap colour.ErrDecode.
func Decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image (format: %s): %v", colour.ErrDecode, format, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s image has zero dimensions", colour.ErrDecode, format)
	}
	return img, nil
}

// ValidateImagePath checks if the given path is a readable image file or an HTTP(S) URL.
// For local files, it verifies the format from the header without decoding pixels.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("image path cannot be empty")
	}

	if IsURL(path) {
		return security.ValidateImageURL(path)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("image file not found: %s", path)
		}
		return fmt.Errorf("failed to access image path: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("unsupported or invalid image format: %w", err)
	}

	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif"}
}

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}

// IsURL reports whether src is an HTTP(S) URL rather than a local path.
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	fetch      httputil.FetchOptions
}

// NewSmartLoader creates a new SmartLoader instance.
// timeout and maxBytes bound remote fetches; zero values use the http package defaults.
func NewSmartLoader(timeout time.Duration, maxBytes int64) *SmartLoader {
	return &SmartLoader{
		fileLoader: NewFileLoader(),
		fetch: httputil.FetchOptions{
			Timeout:  timeout,
			MaxBytes: maxBytes,
			Headers:  map[string]string{"Accept": "image/*"},
		},
	}
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, src string) (image.Image, error) {
	if IsURL(src) {
		return l.loadFromURL(ctx, src)
	}
	return l.fileLoader.Load(ctx, src)
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL.
// Fetch failures are reported as unreadable pixels, the same as decode failures.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	data, err := httputil.Fetch(ctx, url, l.fetch)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch image from URL: %w", colour.ErrDecode, err)
	}
	return Decode(bytes.NewReader(data))
}
