// Package artwork defines the catalog entities palettes are extracted from.
package artwork

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmylchreest/hue/internal/colour"
)

// ErrNoImage is returned when palette extraction is requested for an artwork without an image.
var ErrNoImage = errors.New("artwork has no image")

// Thumbnail is the low-quality placeholder the catalog ships with each artwork.
type Thumbnail struct {
	LQIP    string `json:"lqip"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	AltText string `json:"alt_text"`
}

// Ref identifies an artwork and carries its display metadata.
// An empty ImageID means the catalog has no image for it.
type Ref struct {
	ID                  int        `json:"id"`
	Title               string     `json:"title"`
	ArtistDisplay       string     `json:"artist_display"`
	DateDisplay         string     `json:"date_display"`
	MediumDisplay       string     `json:"medium_display"`
	StyleTitle          string     `json:"style_title"`
	ClassificationTitle string     `json:"classification_title"`
	ImageID             string     `json:"image_id"`
	Thumbnail           *Thumbnail `json:"thumbnail,omitempty"`
}

// HasImage reports whether the artwork has an image to extract colours from.
func (r Ref) HasImage() bool {
	return r.ImageID != ""
}

// Label returns a short "Title (Date)" label for display and export titles.
func (r Ref) Label() string {
	switch {
	case r.Title == "":
		return fmt.Sprintf("Artwork %d", r.ID)
	case r.DateDisplay == "":
		return r.Title
	}
	return fmt.Sprintf("%s (%s)", r.Title, r.DateDisplay)
}

// Palette is a colour palette extracted from an artwork's image.
type Palette struct {
	colour.Palette
	Source Ref
}

// JSON returns the palette document with the source artwork attached.
func (p *Palette) JSON() PaletteJSON {
	return PaletteJSON{PaletteJSON: p.Palette.JSON(), Source: p.Source}
}

// ToJSON converts the artwork palette to indented JSON.
func (p *Palette) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p.JSON(), "", "  ")
}

// PaletteJSON is the JSON document for an artwork palette.
type PaletteJSON struct {
	colour.PaletteJSON
	Source Ref `json:"artwork"`
}
