package colour

import (
	"math"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		rgb  RGB
		want string
	}{
		{rgb: RGB{}, want: "Black"},
		{rgb: RGB{R: 255, G: 255, B: 255}, want: "White"},
		{rgb: RGB{R: 160, G: 160, B: 160}, want: "Light Gray"},
		{rgb: RGB{R: 60, G: 60, B: 60}, want: "Dark Gray"},
		{rgb: RGB{R: 255}, want: "Red"},
		{rgb: RGB{B: 255}, want: "Blue"},
		{rgb: RGB{R: 128, G: 0, B: 0}, want: "Dark Red"},
		{rgb: RGB{R: 150, G: 200, B: 255}, want: "Light Blue"},
		{rgb: RGB{R: 255, G: 165}, want: "Orange"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Name(tt.rgb); got != tt.want {
				t.Errorf("Name(%s) = %q, want %q", tt.rgb.Hex(), got, tt.want)
			}
		})
	}
}

func TestHSLRoundTrip(t *testing.T) {
	for _, c := range []RGB{{R: 255}, {G: 128, B: 64}, {R: 12, G: 200, B: 99}, {R: 77, G: 77, B: 77}} {
		h, s, l := HSL(c)
		if got := HSLToRGB(h, s, l); got != c {
			t.Errorf("HSLToRGB(HSL(%s)) = %s", c.Hex(), got.Hex())
		}
	}
}

func TestContrastRatio(t *testing.T) {
	got := ContrastRatio(RGB{}, RGB{R: 255, G: 255, B: 255})
	if math.Abs(got-21) > 0.01 {
		t.Errorf("ContrastRatio(black, white) = %v, want 21", got)
	}
}

func TestColourPreviewWithTextContrast(t *testing.T) {
	light := ColourPreviewWithText(RGB{R: 250, G: 250, B: 250}, "x", 3)
	if !strings.Contains(light, ansiFgPrefix+"0;0;0") {
		t.Errorf("light background should use dark text: %q", light)
	}
	dark := ColourPreviewWithText(RGB{R: 5, G: 5, B: 5}, "x", 3)
	if !strings.Contains(dark, ansiFgPrefix+"255;255;255") {
		t.Errorf("dark background should use light text: %q", dark)
	}
}
