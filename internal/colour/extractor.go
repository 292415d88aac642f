// Package colour provides colour extraction and palette generation functionality.
package colour

import (
	"fmt"
	"image"
)

// Extractor defines the interface for color extraction algorithms.
type Extractor interface {
	// Extract extracts a color palette from an image.
	// The count parameter specifies the number of colors to extract.
	Extract(img image.Image, count int) (*Palette, error)
}

// Algorithm represents the color extraction algorithm type.
type Algorithm string

const (
	// AlgorithmMedianCut uses median cut bucket splitting over the RGB cube.
	AlgorithmMedianCut Algorithm = "mediancut"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{
		AlgorithmMedianCut,
	}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// NewExtractor creates a new Extractor based on the specified algorithm.
// Returns an error if the algorithm is not recognized.
func NewExtractor(alg Algorithm) (Extractor, error) {
	switch alg {
	case AlgorithmMedianCut, "":
		return NewMedianCutExtractor(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

// MedianCutExtractor samples an image and quantizes it with median cut.
type MedianCutExtractor struct {
	maxSamples int
}

// NewMedianCutExtractor creates a new MedianCutExtractor with default settings.
func NewMedianCutExtractor() *MedianCutExtractor {
	return &MedianCutExtractor{
		maxSamples: DefaultMaxSamples,
	}
}

// WithMaxSamples returns a copy of the extractor using a different sample budget.
func (e *MedianCutExtractor) WithMaxSamples(n int) *MedianCutExtractor {
	c := *e
	c.maxSamples = n
	return &c
}

// Extract samples img and returns a palette of at most count colours.
func (e *MedianCutExtractor) Extract(img image.Image, count int) (*Palette, error) {
	pixels, err := Sample(img, e.maxSamples)
	if err != nil {
		return nil, err
	}
	return Quantize(pixels, count)
}

// ExtractorConfig holds configuration for color extraction.
type ExtractorConfig struct {
	Algorithm  Algorithm
	ColorCount int
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Algorithm:  AlgorithmMedianCut,
		ColorCount: DefaultColours,
	}
}

// Validate validates the extractor configuration.
// Counts outside [MinColours, MaxColours] are accepted and clamped at extraction.
func (c ExtractorConfig) Validate() error {
	if !IsValidAlgorithm(c.Algorithm) {
		return fmt.Errorf("invalid algorithm: %s", c.Algorithm)
	}
	if c.ColorCount < 1 {
		return fmt.Errorf("color count must be at least 1, got %d", c.ColorCount)
	}
	return nil
}
