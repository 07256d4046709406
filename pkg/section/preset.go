package section

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

// Preset is a named bundle of formatting values for the generated list.
// Lengths are in points; LineSpacing is a multiple of single spacing.
type Preset struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	LeftIndent         float64 `yaml:"left_indent" json:"left_indent"`
	BulletGlyph        string  `yaml:"bullet_glyph" json:"bullet_glyph"`
	BulletColor        string  `yaml:"bullet_color" json:"bullet_color"`
	BulletFontSize     float64 `yaml:"bullet_font_size" json:"bullet_font_size"`
	TextFontSize       float64 `yaml:"text_font_size" json:"text_font_size"`
	LineSpacing        float64 `yaml:"line_spacing" json:"line_spacing"`
	InteriorSpaceAfter float64 `yaml:"interior_space_after" json:"interior_space_after"`
	LastItemSpaceAfter float64 `yaml:"last_item_space_after" json:"last_item_space_after"`
	// GlyphGap is the literal whitespace between glyph and text.
	GlyphGap string `yaml:"glyph_gap" json:"glyph_gap"`
	// TightenHeader sets the header paragraph's space-after to zero.
	TightenHeader bool `yaml:"tighten_header" json:"tighten_header"`

	Separator SeparatorStyle `yaml:"separator" json:"separator"`
}

// SeparatorStyle describes the dotted rule placed under the header.
type SeparatorStyle struct {
	Border      BorderStyle `yaml:"border" json:"border"`
	SpaceBefore float64     `yaml:"space_before" json:"space_before"`
	SpaceAfter  float64     `yaml:"space_after" json:"space_after"`
}

// BorderStyle is a paragraph border: line style, weight in points, distance
// from the text in points, and hex color.
type BorderStyle struct {
	Style  string  `yaml:"style" json:"style"`
	Weight float64 `yaml:"weight" json:"weight"`
	Space  int     `yaml:"space" json:"space"`
	Color  string  `yaml:"color" json:"color"`
}

// Size returns the border weight in eighths of a point.
func (b BorderStyle) Size() int {
	return wml.EighthPoints(b.Weight)
}

// DefaultSeparator is the dotted blue rule.
var DefaultSeparator = SeparatorStyle{
	Border: BorderStyle{
		Style:  "dotted",
		Weight: 0.48,
		Space:  1,
		Color:  "3399CC",
	},
	SpaceBefore: 1,
	SpaceAfter:  10,
}

// DefaultPresetName is used when a request names no preset.
const DefaultPresetName = "classic"

// Classic is the filled-square list with blue glyphs.
var Classic = Preset{
	Name:               "classic",
	Description:        "filled square, blue glyph, 24pt indent",
	LeftIndent:         24,
	BulletGlyph:        "■",
	BulletColor:        "3C7AB2",
	BulletFontSize:     8,
	TextFontSize:       11,
	LineSpacing:        1,
	InteriorSpaceAfter: 2,
	LastItemSpaceAfter: 9,
	GlyphGap:           "      ",
	TightenHeader:      true,
	Separator:          DefaultSeparator,
}

// builtinPresets returns fresh copies of the presets shipped with the package.
func builtinPresets() []Preset {
	compact := Classic
	compact.Name = "compact"
	compact.Description = "classic glyph with tight spacing"
	compact.InteriorSpaceAfter = 4
	compact.LastItemSpaceAfter = 3
	compact.GlyphGap = "    "

	airy := Classic
	airy.Name = "airy"
	airy.Description = "wide indent and generous spacing"
	airy.LeftIndent = 36
	airy.BulletFontSize = 10
	airy.InteriorSpaceAfter = 12
	airy.LastItemSpaceAfter = 9

	corporate := Classic
	corporate.Name = "corporate"
	corporate.Description = "round bullet, corporate blue, 36pt indent"
	corporate.LeftIndent = 36
	corporate.BulletGlyph = "•"
	corporate.BulletColor = "0066CC"
	corporate.BulletFontSize = 11
	corporate.InteriorSpaceAfter = 12
	corporate.LastItemSpaceAfter = 3
	corporate.GlyphGap = "   "

	return []Preset{Classic, compact, airy, corporate}
}

// BuiltinPresetNames returns the names of the shipped presets, sorted.
func BuiltinPresetNames() []string {
	var names []string
	for _, p := range builtinPresets() {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

var hexColor = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

var borderStyles = map[string]bool{
	"single": true, "thick": true, "double": true, "dotted": true,
	"dashed": true, "dotDash": true, "dotDotDash": true, "triple": true,
	"wave": true, "dashSmallGap": true,
}

// Word limits, in points.
const (
	maxSpacing  = 1584
	maxFontSize = 1638
	maxIndent   = 1584
)

// Validate checks the preset values against what Word can render.
func (p Preset) Validate() error {
	var issues []ValidationIssue
	add := func(field, format string, args ...interface{}) {
		issues = append(issues, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if p.Name == "" {
		add("name", "must not be empty")
	}
	if p.LeftIndent < 0 || p.LeftIndent > maxIndent {
		add("left_indent", "must be between 0 and %d, got %g", maxIndent, p.LeftIndent)
	}
	if p.BulletGlyph == "" {
		add("bullet_glyph", "must not be empty")
	}
	if !hexColor.MatchString(p.BulletColor) {
		add("bullet_color", "must be a six digit hex color, got %q", p.BulletColor)
	}
	if p.BulletFontSize <= 0 || p.BulletFontSize > maxFontSize {
		add("bullet_font_size", "must be between 0 and %d, got %g", maxFontSize, p.BulletFontSize)
	}
	if p.TextFontSize <= 0 || p.TextFontSize > maxFontSize {
		add("text_font_size", "must be between 0 and %d, got %g", maxFontSize, p.TextFontSize)
	}
	if p.GlyphGap == "" || strings.TrimSpace(p.GlyphGap) != "" {
		add("glyph_gap", "must be non-empty whitespace, got %q", p.GlyphGap)
	}
	if p.LineSpacing <= 0 {
		add("line_spacing", "must be positive, got %g", p.LineSpacing)
	}
	if p.InteriorSpaceAfter < 0 || p.InteriorSpaceAfter > maxSpacing {
		add("interior_space_after", "must be between 0 and %d, got %g", maxSpacing, p.InteriorSpaceAfter)
	}
	if p.LastItemSpaceAfter < 0 || p.LastItemSpaceAfter > maxSpacing {
		add("last_item_space_after", "must be between 0 and %d, got %g", maxSpacing, p.LastItemSpaceAfter)
	}

	sep := p.Separator
	if !borderStyles[sep.Border.Style] {
		add("separator.border.style", "unsupported border style %q", sep.Border.Style)
	}
	if sep.Border.Weight <= 0 {
		add("separator.border.weight", "must be positive, got %g", sep.Border.Weight)
	}
	if sep.Border.Space < 0 || sep.Border.Space > 31 {
		add("separator.border.space", "must be between 0 and 31, got %d", sep.Border.Space)
	}
	if !hexColor.MatchString(sep.Border.Color) {
		add("separator.border.color", "must be a six digit hex color, got %q", sep.Border.Color)
	}
	if sep.SpaceBefore < 0 || sep.SpaceBefore > maxSpacing {
		add("separator.space_before", "must be between 0 and %d, got %g", maxSpacing, sep.SpaceBefore)
	}
	if sep.SpaceAfter < 0 || sep.SpaceAfter > maxSpacing {
		add("separator.space_after", "must be between 0 and %d, got %g", maxSpacing, sep.SpaceAfter)
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
