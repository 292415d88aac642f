// Package export renders palettes as swatch files and bundles them into archives.
package export

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"text/template"
	"unicode/utf16"

	"github.com/jmylchreest/hue/internal/artwork"
	"github.com/jmylchreest/hue/internal/colour"
)

// Format is a palette file format.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatASE  Format = "ase"
	FormatCSS  Format = "css"
	FormatJSON Format = "json"
)

// DefaultTitle is used when a palette has no title.
const DefaultTitle = "Hue Palette"

// Formats returns every supported format in bundle order.
func Formats() []Format {
	return []Format{FormatSVG, FormatASE, FormatCSS, FormatJSON}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(s, ".")))
	for _, valid := range Formats() {
		if f == valid {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format: %s (valid formats: %v)", s, Formats())
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Input is a palette to export.
type Input struct {
	Title   string
	Palette *colour.Palette

	// Artwork is attached to JSON output when set.
	Artwork *artwork.Ref
}

func (in Input) title() string {
	if in.Title == "" {
		return DefaultTitle
	}
	return in.Title
}

// Render renders in as format.
func Render(format Format, in Input) ([]byte, error) {
	if in.Palette == nil || in.Palette.Len() == 0 {
		return nil, fmt.Errorf("cannot export an empty palette")
	}
	switch format {
	case FormatSVG:
		return SVG(in.Palette.Colours, in.title())
	case FormatASE:
		return ASE(in.Palette.Colours, in.title())
	case FormatCSS:
		return CSS(in.Palette.Colours, in.title()), nil
	case FormatJSON:
		return JSON(in)
	default:
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

const (
	swatchSize    = 80
	swatchSpacing = 10
	swatchTop     = 35
)

type svgSwatch struct {
	X, Y, Size     int
	LabelX, LabelY int
	Fill, Label    string
}

var svgTemplate = template.Must(template.New("svg").Parse(`<svg width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
  <defs>
    <style>
      .title { font-family: system-ui, -apple-system, sans-serif; font-size: 14px; font-weight: 600; fill: #333; }
      .color-label { font-family: system-ui, -apple-system, sans-serif; font-size: 11px; fill: #666; }
    </style>
  </defs>
  <text x="{{.CenterX}}" y="20" text-anchor="middle" class="title">{{.Title}}</text>
{{- range .Swatches}}
  <rect x="{{.X}}" y="{{.Y}}" width="{{.Size}}" height="{{.Size}}" fill="{{.Fill}}" stroke="#ddd" stroke-width="1" rx="4"/>
  <text x="{{.LabelX}}" y="{{.LabelY}}" text-anchor="middle" class="color-label">{{.Label}}</text>
{{- end}}
</svg>
`))

// SVG renders colours as a row of labelled swatches under a title.
func SVG(colours []colour.RGB, title string) ([]byte, error) {
	width := len(colours)*(swatchSize+swatchSpacing) - swatchSpacing
	data := struct {
		Width, Height, CenterX int
		Title                  string
		Swatches               []svgSwatch
	}{
		Width:   width,
		Height:  swatchSize + 60,
		CenterX: width / 2,
		Title:   html.EscapeString(title),
	}
	for i, c := range colours {
		x := i * (swatchSize + swatchSpacing)
		data.Swatches = append(data.Swatches, svgSwatch{
			X:      x,
			Y:      swatchTop,
			Size:   swatchSize,
			LabelX: x + swatchSize/2,
			LabelY: swatchTop + swatchSize + 15,
			Fill:   c.Hex(),
			Label:  strings.ToUpper(c.Hex()),
		})
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render SVG: %w", err)
	}
	return buf.Bytes(), nil
}

// ASE block types.
const (
	aseGroupStart uint16 = 0xC001
	aseGroupEnd   uint16 = 0xC002
	aseColour     uint16 = 0x0001
	aseGlobal     uint16 = 0
)

// ASE renders colours as an Adobe Swatch Exchange v1.0 file: one group named
// title holding an RGB global swatch per colour, named by its hex code.
func ASE(colours []colour.RGB, title string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("ASEF")
	write := func(v any) {
		_ = binary.Write(&buf, binary.BigEndian, v) // bytes.Buffer writes do not fail
	}
	write([2]uint16{1, 0})
	write(uint32(len(colours) + 2))

	group := aseName(title)
	write(aseGroupStart)
	write(uint32(len(group)))
	buf.Write(group)

	for _, c := range colours {
		name := aseName(strings.ToUpper(c.Hex()))
		var block bytes.Buffer
		block.Write(name)
		block.WriteString("RGB ")
		for _, v := range []uint8{c.R, c.G, c.B} {
			_ = binary.Write(&block, binary.BigEndian, float32(v)/255)
		}
		_ = binary.Write(&block, binary.BigEndian, aseGlobal)

		write(aseColour)
		write(uint32(block.Len()))
		buf.Write(block.Bytes())
	}

	write(aseGroupEnd)
	write(uint32(0))
	return buf.Bytes(), nil
}

// aseName encodes s as a length-prefixed, null-terminated UTF-16BE string.
func aseName(s string) []byte {
	units := append(utf16.Encode([]rune(s)), 0)
	out := make([]byte, 2+2*len(units))
	binary.BigEndian.PutUint16(out, uint16(len(units)))
	for i, u := range units {
		binary.BigEndian.PutUint16(out[2+2*i:], u)
	}
	return out
}

// CSS renders colours as custom properties on :root, numbered from 1.
func CSS(colours []colour.RGB, title string) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "/* %s */\n", strings.ReplaceAll(title, "*/", "* /"))
	sb.WriteString(":root {\n")
	for i, c := range colours {
		fmt.Fprintf(&sb, "  --hue-%d: %s;\n", i+1, c.Hex())
	}
	sb.WriteString("}\n")
	return []byte(sb.String())
}

// JSON renders the palette document, with the source artwork when known.
func JSON(in Input) ([]byte, error) {
	var doc any = in.Palette.JSON()
	if in.Artwork != nil {
		doc = artwork.PaletteJSON{PaletteJSON: in.Palette.JSON(), Source: *in.Artwork}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal palette: %w", err)
	}
	return append(data, '\n'), nil
}
