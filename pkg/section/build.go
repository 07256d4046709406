package section

import (
	"github.com/benjaminschreck/go-docsection/pkg/docx"
	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

// Every visual property is set directly on the paragraph and its runs.
// The host document's style catalog is unknown, so no named styles are used.

// SeparatorProperties returns the paragraph properties of a separator: a
// bottom border and nothing else.
func SeparatorProperties(style SeparatorStyle) wml.ParagraphProperties {
	return wml.ParagraphProperties{
		Borders: &wml.ParagraphBorders{
			Bottom: &wml.Border{
				Val:   style.Border.Style,
				Size:  style.Border.Size(),
				Space: style.Border.Space,
				Color: style.Border.Color,
			},
		},
		Spacing: &wml.Spacing{
			Before: wml.Int(wml.Twips(style.SpaceBefore)),
			After:  wml.Int(wml.Twips(style.SpaceAfter)),
		},
	}
}

// BulletProperties returns the paragraph properties of an interior bullet.
func BulletProperties(preset Preset) wml.ParagraphProperties {
	return wml.ParagraphProperties{
		Spacing: &wml.Spacing{
			After:    wml.Int(wml.Twips(preset.InteriorSpaceAfter)),
			Line:     wml.LineSpacing(preset.LineSpacing),
			LineRule: "auto",
		},
		Indentation: &wml.Indentation{Left: wml.Twips(preset.LeftIndent)},
	}
}

// BulletRuns returns the glyph run, the spacing run and the text run of a
// bullet carrying text.
func BulletRuns(text string, preset Preset) []wml.Run {
	glyphSize := wml.HalfPoints(preset.BulletFontSize)
	textSize := wml.HalfPoints(preset.TextFontSize)
	return []wml.Run{
		wml.TextRun(preset.BulletGlyph, &wml.RunProperties{
			Color:  &wml.Color{Val: preset.BulletColor},
			Size:   &wml.Size{Val: glyphSize},
			SizeCs: &wml.Size{Val: glyphSize},
		}),
		wml.TextRun(preset.GlyphGap, nil),
		wml.TextRun(text, &wml.RunProperties{
			Size:   &wml.Size{Val: textSize},
			SizeCs: &wml.Size{Val: textSize},
		}),
	}
}

// BuildSeparator formats p as a separator. p must have no runs.
func BuildSeparator(p *docx.Paragraph, style SeparatorStyle) error {
	return p.SetProperties(SeparatorProperties(style))
}

// BuildBullet formats p as a bullet carrying text verbatim.
func BuildBullet(p *docx.Paragraph, text string, preset Preset) error {
	if err := p.SetProperties(BulletProperties(preset)); err != nil {
		return err
	}
	for _, run := range BulletRuns(text, preset) {
		if err := p.AppendRun(run); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeLast overrides the space-after of the last bullet.
func FinalizeLast(p *docx.Paragraph, preset Preset) {
	p.SetSpacingAfter(wml.Twips(preset.LastItemSpaceAfter))
}

// TightenHeader removes the space after the header so the separator sits
// directly under it.
func TightenHeader(p *docx.Paragraph) {
	p.SetSpacingAfter(0)
}
