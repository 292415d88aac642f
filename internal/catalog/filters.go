package catalog

import (
	"fmt"
	"strings"
)

// All is the filter value that disables style or period filtering.
const All = "all"

// Option is a selectable filter value.
type Option struct {
	Value       string
	Label       string
	Description string
}

// Periods lists the art historical periods artworks can be filtered by.
var Periods = []Option{
	{Value: All, Label: "All Periods", Description: "Show artworks from all time periods"},
	{Value: "renaissance", Label: "Renaissance", Description: "European art from 1400-1600, featuring humanism and perspective"},
	{Value: "baroque", Label: "Baroque", Description: "Dramatic art from 1600-1750, known for movement and emotion"},
	{Value: "impressionism", Label: "Impressionism", Description: "Late 19th century movement focusing on light and color"},
	{Value: "modern", Label: "Modern Art", Description: "Revolutionary art from 1880-1945, breaking traditional rules"},
	{Value: "contemporary", Label: "Contemporary", Description: "Art from 1945 to present, diverse and experimental"},
}

// Styles lists the artwork styles artworks can be filtered by.
var Styles = []Option{
	{Value: All, Label: "All Styles", Description: "Show artworks in all artistic styles"},
	{Value: "painting", Label: "Paintings", Description: "Traditional and modern painted artworks"},
	{Value: "sculpture", Label: "Sculptures", Description: "Three-dimensional artistic works"},
	{Value: "photography", Label: "Photography", Description: "Photographic art and documentation"},
	{Value: "print", Label: "Prints", Description: "Woodcuts, etchings, lithographs, and screen prints"},
	{Value: "drawing", Label: "Drawings", Description: "Sketches, studies, and finished drawings"},
	{Value: "textile", Label: "Textiles", Description: "Fabric art, tapestries, and fiber works"},
}

// periodRanges maps periods to date_start range clauses.
var periodRanges = map[string]string{
	"renaissance":   "date_start:[1400 TO 1600]",
	"baroque":       "date_start:[1600 TO 1750]",
	"impressionism": "date_start:[1860 TO 1886]",
	"modern":        "date_start:[1880 TO 1945]",
	"contemporary":  "date_start:[1945 TO *]",
}

// BuildQuery combines free text, style and period into the q parameter.
// An empty query matches everything.
func BuildQuery(query, style, period string) string {
	q := strings.TrimSpace(query)
	if q == "" {
		q = "*"
	}
	if style != "" && style != All {
		q += " style:" + style
	}
	if clause, ok := periodRanges[period]; ok {
		q += " " + clause
	}
	return q
}

// ValidateStyle checks that style is one of Styles.
func ValidateStyle(style string) error {
	return validateOption("style", style, Styles)
}

// ValidatePeriod checks that period is one of Periods.
func ValidatePeriod(period string) error {
	return validateOption("period", period, Periods)
}

func validateOption(kind, value string, options []Option) error {
	values := make([]string, len(options))
	for i, o := range options {
		if o.Value == value {
			return nil
		}
		values[i] = o.Value
	}
	return fmt.Errorf("invalid %s %q (valid: %s)", kind, value, strings.Join(values, ", "))
}
