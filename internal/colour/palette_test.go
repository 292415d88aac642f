package colour

import (
	"encoding/json"
	"image/color"
	"strings"
	"testing"
)

func testPalette() *Palette {
	return &Palette{
		Dominant: RGB{R: 255, G: 0, B: 0},
		Colours: []RGB{
			{R: 255, G: 0, B: 0},
			{R: 0, G: 255, B: 0},
			{R: 0, G: 0, B: 255},
		},
		Weights: []float64{0.5, 0.3, 0.2},
	}
}

func TestPaletteLen(t *testing.T) {
	tests := []struct {
		name    string
		palette *Palette
		want    int
	}{
		{name: "empty palette", palette: &Palette{}, want: 0},
		{name: "single color", palette: &Palette{Colours: []RGB{{R: 1}}}, want: 1},
		{name: "multiple colors", palette: testPalette(), want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.palette.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToRGB(t *testing.T) {
	tests := []struct {
		name  string
		color color.Color
		want  RGB
	}{
		{name: "red", color: color.RGBA{R: 255, G: 0, B: 0, A: 255}, want: RGB{R: 255}},
		{name: "white", color: color.RGBA{R: 255, G: 255, B: 255, A: 255}, want: RGB{R: 255, G: 255, B: 255}},
		{name: "black", color: color.RGBA{A: 255}, want: RGB{}},
		{name: "non-premultiplied alpha ignored", color: color.NRGBA{R: 200, G: 100, B: 50, A: 10}, want: RGB{R: 200, G: 100, B: 50}},
		{name: "rgb round trips", color: RGB{R: 12, G: 34, B: 56}, want: RGB{R: 12, G: 34, B: 56}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToRGB(tt.color); got != tt.want {
				t.Errorf("ToRGB() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRGBHexAndString(t *testing.T) {
	rgb := RGB{R: 26, G: 43, B: 60}
	if got := rgb.Hex(); got != "#1a2b3c" {
		t.Errorf("Hex() = %q, want #1a2b3c", got)
	}
	if got := rgb.String(); got != "rgb(26, 43, 60)" {
		t.Errorf("String() = %q, want rgb(26, 43, 60)", got)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{in: "#1a2b3c", want: RGB{R: 26, G: 43, B: 60}},
		{in: "1A2B3C", want: RGB{R: 26, G: 43, B: 60}},
		{in: "#fff", want: RGB{R: 255, G: 255, B: 255}},
		{in: "#12345", wantErr: true},
		{in: "#gg0000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPaletteToHex(t *testing.T) {
	got := testPalette().ToHex()
	want := []string{"#ff0000", "#00ff00", "#0000ff"}
	if len(got) != len(want) {
		t.Fatalf("ToHex() returned %d colors, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ToHex()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPaletteToJSON(t *testing.T) {
	data, err := testPalette().ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var doc PaletteJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("ToJSON() produced invalid JSON: %v", err)
	}
	if doc.Count != 3 {
		t.Errorf("count = %d, want 3", doc.Count)
	}
	if doc.Dominant.Hex != "#ff0000" {
		t.Errorf("dominant = %s, want #ff0000", doc.Dominant.Hex)
	}
	if doc.Colors[2].Name != "Blue" {
		t.Errorf("colors[2].name = %s, want Blue", doc.Colors[2].Name)
	}
	if doc.Colors[1].Weight != 0.3 {
		t.Errorf("colors[1].weight = %v, want 0.3", doc.Colors[1].Weight)
	}
}

func TestPaletteGet(t *testing.T) {
	p := testPalette()

	got, err := p.Get(1)
	if err != nil {
		t.Fatalf("Get(1) error = %v", err)
	}
	if got != (RGB{G: 255}) {
		t.Errorf("Get(1) = %+v, want green", got)
	}

	for _, idx := range []int{-1, 3} {
		if _, err := p.Get(idx); err == nil {
			t.Errorf("Get(%d) expected error", idx)
		}
	}
}

func TestPaletteAll(t *testing.T) {
	p := testPalette()

	var seen []int
	for i, c := range p.All() {
		if c != p.Colours[i] {
			t.Errorf("All() yielded %+v at %d, want %+v", c, i, p.Colours[i])
		}
		seen = append(seen, i)
		if i == 1 {
			break
		}
	}
	if len(seen) != 2 {
		t.Errorf("All() did not stop early, yielded %d", len(seen))
	}
}

func TestPaletteString(t *testing.T) {
	if got := (&Palette{}).String(); got != "Empty palette" {
		t.Errorf("String() = %q, want Empty palette", got)
	}

	s := testPalette().String()
	for _, want := range []string{"3 colors", "dominant #ff0000", "#00ff00", "rgb(0, 0, 255)"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}
