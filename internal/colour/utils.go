// Package colour provides utility functions for color manipulation and analysis.
package colour

import (
	"math"
)

// Luminance calculates the relative luminance of a colour according to WCAG 2.0.
// Returns a value between 0 (darkest) and 1 (lightest).
// https://www.w3.org/TR/WCAG20/#relativeluminancedef.
func Luminance(c RGB) float64 {
	rf := gammaCorrect(float64(c.R) / 255.0)
	rg := gammaCorrect(float64(c.G) / 255.0)
	rb := gammaCorrect(float64(c.B) / 255.0)

	return 0.2126*rf + 0.7152*rg + 0.0722*rb
}

// gammaCorrect applies gamma correction to a colour component.
func gammaCorrect(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// ContrastRatio calculates the contrast ratio between two colours according to WCAG 2.0.
// Returns a value between 1 and 21, where 21 is maximum contrast (black vs white).
func ContrastRatio(c1, c2 RGB) float64 {
	l1 := Luminance(c1)
	l2 := Luminance(c2)

	if l1 < l2 {
		l1, l2 = l2, l1
	}

	return (l1 + 0.05) / (l2 + 0.05)
}

// HSL converts RGB to HSL colour space.
// Returns hue (0-360), saturation (0-1), lightness (0-1).
func HSL(rgb RGB) (h, s, l float64) {
	r := float64(rgb.R) / 255.0
	g := float64(rgb.G) / 255.0
	b := float64(rgb.B) / 255.0

	maxVal := math.Max(r, math.Max(g, b))
	minVal := math.Min(r, math.Min(g, b))
	delta := maxVal - minVal

	l = (maxVal + minVal) / 2.0

	if delta == 0 {
		return 0, 0, l
	}

	if l < 0.5 {
		s = delta / (maxVal + minVal)
	} else {
		s = delta / (2.0 - maxVal - minVal)
	}

	switch maxVal {
	case r:
		h = (g - b) / delta
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/delta + 2
	case b:
		h = (r-g)/delta + 4
	}

	h *= 60
	return h, s, l
}

// HSLToRGB converts HSL to RGB colour space.
// h is hue (0-360), s is saturation (0-1), l is luminance (0-1).
func HSLToRGB(h, s, l float64) RGB {
	if s == 0 {
		v := uint8(math.Round(l * 255))
		return RGB{R: v, G: v, B: v}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return RGB{
		R: uint8(math.Round(hueToRGB(p, q, h+120) * 255)),
		G: uint8(math.Round(hueToRGB(p, q, h) * 255)),
		B: uint8(math.Round(hueToRGB(p, q, h-120) * 255)),
	}
}

// hueToRGB is a helper for HSL to RGB conversion.
func hueToRGB(p, q, t float64) float64 {
	for t < 0 {
		t += 360
	}
	for t >= 360 {
		t -= 360
	}

	if t < 60 {
		return p + (q-p)*t/60
	}
	if t < 180 {
		return q
	}
	if t < 240 {
		return p + (q-p)*(240-t)/60
	}
	return p
}

// hueName is a named hue range in degrees, [min, max).
type hueName struct {
	min, max float64
	name     string
}

var hueNames = []hueName{
	{0, 15, "Red"},
	{15, 45, "Orange"},
	{45, 75, "Yellow"},
	{75, 150, "Green"},
	{150, 210, "Cyan"},
	{210, 270, "Blue"},
	{270, 315, "Purple"},
	{315, 360, "Pink"},
}

// Name returns an approximate human name for a colour, such as "Dark Blue"
// or "Light Gray". Hue, saturation and lightness are rounded to whole
// degrees and percentages before classification.
func Name(c RGB) string {
	h, s, l := HSL(c)
	hue := math.Round(h)
	sat := math.Round(s * 100)
	light := math.Round(l * 100)

	switch {
	case light < 15:
		return "Black"
	case light > 85:
		return "White"
	case sat < 10:
		if light > 50 {
			return "Light Gray"
		}
		return "Dark Gray"
	}

	name := "Unknown"
	for _, hn := range hueNames {
		if hue >= hn.min && hue < hn.max {
			name = hn.name
			break
		}
	}
	// 360 rounds back to red.
	if hue >= 360 {
		name = "Red"
	}

	switch {
	case light > 70:
		return "Light " + name
	case light < 30:
		return "Dark " + name
	}
	return name
}
