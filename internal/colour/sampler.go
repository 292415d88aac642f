// Package colour provides colour extraction and palette generation functionality.
package colour

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

const (
	// MaxWorkingDimension bounds the longer side of the buffer pixels are read
	// from. Larger images are downscaled first.
	MaxWorkingDimension = 256

	// DefaultMaxSamples is the sample budget used when none is given.
	DefaultMaxSamples = 5000
)

// Sample reads up to maxSamples colours from img in row-major grid order.
// Large images are downscaled to MaxWorkingDimension before sampling. Alpha is
// ignored, except that fully transparent pixels are skipped.
func Sample(img image.Image, maxSamples int) (PixelSample, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: image is nil", ErrDecode)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has zero dimensions (%dx%d)", ErrDecode, bounds.Dx(), bounds.Dy())
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}

	src := workingCopy(img)
	bounds = src.Bounds()
	totalPixels := bounds.Dx() * bounds.Dy()

	step := 1
	if totalPixels > maxSamples {
		step = max(int(math.Ceil(math.Sqrt(float64(totalPixels)/float64(maxSamples)))), 1)
	}

	pixels := make(PixelSample, 0, min(totalPixels, maxSamples))
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			c := src.NRGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			pixels = append(pixels, RGB{R: c.R, G: c.G, B: c.B})
			if len(pixels) >= maxSamples {
				return pixels, nil
			}
		}
	}
	return pixels, nil
}

// workingCopy draws img onto an NRGBA buffer no larger than
// MaxWorkingDimension on its longer side.
func workingCopy(img image.Image) *image.NRGBA {
	sb := img.Bounds()
	w, h := sb.Dx(), sb.Dy()
	if longest := max(w, h); longest > MaxWorkingDimension {
		scale := float64(MaxWorkingDimension) / float64(longest)
		w = max(int(math.Round(float64(w)*scale)), 1)
		h = max(int(math.Round(float64(h)*scale)), 1)
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, sb, draw.Src, nil)
		return dst
	}

	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, sb.Min, draw.Src)
	return dst
}
