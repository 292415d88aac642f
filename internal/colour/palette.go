// Package colour provides colour extraction and palette generation functionality.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strings"
)

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// RGBA implements color.Color so an RGB can be handed to image code directly.
func (rgb RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}.RGBA()
}

// ToRGB converts a color.Color to RGB, dropping alpha.
// Premultiplied colours are converted back to straight channel values first.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// ParseHex parses "#rrggbb", "rrggbb" or "#rgb".
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q", s)
	}
	var v [3]uint8
	for i := range v {
		hi, ok1 := hexNibble(s[i*2])
		lo, ok2 := hexNibble(s[i*2+1])
		if !ok1 || !ok2 {
			return RGB{}, fmt.Errorf("invalid hex colour %q", s)
		}
		v[i] = hi<<4 | lo
	}
	return RGB{R: v[0], G: v[1], B: v[2]}, nil
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// PixelSample is an ordered list of colours drawn from a decoded image.
type PixelSample []RGB

// Palette represents the colours extracted from an image.
// Colours are ordered by descending population; Weights holds the population
// share of each colour in the same order.
type Palette struct {
	Dominant RGB
	Colours  []RGB
	Weights  []float64
}

// Len returns the number of colors in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// ToHex converts the palette colors to hex strings.
// Returns a slice of hex color codes (e.g., ["#1a2b3c", "#4d5e6f"]).
func (p *Palette) ToHex() []string {
	hexColors := make([]string, len(p.Colours))
	for i, c := range p.Colours {
		hexColors[i] = c.Hex()
	}
	return hexColors
}

// ColorJSON represents a color in JSON output format.
type ColorJSON struct {
	Hex    string  `json:"hex"`
	RGB    RGB     `json:"rgb"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight,omitempty"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Dominant ColorJSON   `json:"dominant"`
	Count    int         `json:"count"`
	Colors   []ColorJSON `json:"colors"`
}

// JSON returns the JSON document model of the palette.
func (p *Palette) JSON() PaletteJSON {
	colors := make([]ColorJSON, len(p.Colours))
	for i, c := range p.Colours {
		colors[i] = ColorJSON{Hex: c.Hex(), RGB: c, Name: Name(c)}
		if i < len(p.Weights) {
			colors[i].Weight = p.Weights[i]
		}
	}
	return PaletteJSON{
		Dominant: ColorJSON{Hex: p.Dominant.Hex(), RGB: p.Dominant, Name: Name(p.Dominant)},
		Count:    len(p.Colours),
		Colors:   colors,
	}
}

// ToJSON converts the palette to JSON format.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p.JSON(), "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colours) == 0 {
		return "Empty palette"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Palette with %d colors (dominant %s):\n", len(p.Colours), p.Dominant.Hex())
	for i, c := range p.Colours {
		fmt.Fprintf(&sb, "  %2d: %s (%s)\n", i+1, c.Hex(), c.String())
	}
	return sb.String()
}

// Get returns the color at the specified index.
// Returns an error if the index is out of bounds.
func (p *Palette) Get(index int) (RGB, error) {
	if index < 0 || index >= len(p.Colours) {
		return RGB{}, fmt.Errorf("index out of bounds: %d (palette has %d colors)", index, len(p.Colours))
	}
	return p.Colours[index], nil
}

// All returns an iterator over all colors in the palette.
func (p *Palette) All() func(func(int, RGB) bool) {
	return func(yield func(int, RGB) bool) {
		for i, c := range p.Colours {
			if !yield(i, c) {
				return
			}
		}
	}
}
