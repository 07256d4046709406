package wml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalElements(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		want string
	}{
		{
			name: "spacing with explicit zero",
			v:    Spacing{Before: Int(0), After: Int(200)},
			want: `<w:spacing w:before="0" w:after="200"></w:spacing>`,
		},
		{
			name: "spacing with line rule",
			v:    Spacing{After: Int(40), Line: SingleLine, LineRule: "auto"},
			want: `<w:spacing w:after="40" w:line="240" w:lineRule="auto"></w:spacing>`,
		},
		{
			name: "empty spacing",
			v:    Spacing{},
			want: `<w:spacing></w:spacing>`,
		},
		{
			name: "indentation left only",
			v:    Indentation{Left: 480},
			want: `<w:ind w:left="480"></w:ind>`,
		},
		{
			name: "color is normalized",
			v:    Color{Val: "#3c7ab2"},
			want: `<w:color w:val="3C7AB2"></w:color>`,
		},
		{
			name: "text preserves surrounding whitespace",
			v:    *NewText("      "),
			want: `<w:t xml:space="preserve">      </w:t>`,
		},
		{
			name: "text without surrounding whitespace",
			v:    *NewText("SQL Server"),
			want: `<w:t>SQL Server</w:t>`,
		},
		{
			name: "text is escaped",
			v:    *NewText("R&D <lead>"),
			want: `<w:t>R&amp;D &lt;lead&gt;</w:t>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Marshal(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestParagraphBorders(t *testing.T) {
	out, err := Marshal(ParagraphBorders{
		Bottom: &Border{Val: "dotted", Size: 4, Space: 1, Color: "3399cc"},
	})
	require.NoError(t, err)
	assert.Equal(t, `<w:pBdr><w:bottom w:val="dotted" w:sz="4" w:space="1" w:color="3399CC"></w:bottom></w:pBdr>`, string(out))
}

func TestParagraphPropertiesOrder(t *testing.T) {
	props := ParagraphProperties{
		Indentation: &Indentation{Left: 480},
		Spacing:     &Spacing{After: Int(40)},
		Borders:     &ParagraphBorders{Bottom: &Border{Val: "single", Size: 4}},
	}
	out, err := Marshal(props)
	require.NoError(t, err)

	xml := string(out)
	order := []string{"<w:pBdr", "<w:spacing", "<w:ind"}
	last := -1
	for _, tag := range order {
		idx := strings.Index(xml, tag)
		require.NotEqual(t, -1, idx, "missing %s in %s", tag, xml)
		assert.Greater(t, idx, last, "%s out of order in %s", tag, xml)
		last = idx
	}
}

func TestRunPropertiesOrder(t *testing.T) {
	out, err := Marshal(RunProperties{
		SizeCs: &Size{Val: 16},
		Size:   &Size{Val: 16},
		Color:  &Color{Val: "0066CC"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<w:rPr><w:color w:val="0066CC"></w:color><w:sz w:val="16"></w:sz><w:szCs w:val="16"></w:szCs></w:rPr>`,
		string(out))
}

func TestRunMarshal(t *testing.T) {
	runs := []Run{
		TextRun("■", &RunProperties{Color: &Color{Val: "3C7AB2"}, Size: &Size{Val: HalfPoints(8)}}),
		TextRun("      ", nil),
		TextRun("SQL", &RunProperties{Size: &Size{Val: HalfPoints(11)}}),
	}
	var out strings.Builder
	for _, r := range runs {
		data, err := Marshal(r)
		require.NoError(t, err)
		out.Write(data)
	}
	assert.Equal(t,
		`<w:r><w:rPr><w:color w:val="3C7AB2"></w:color><w:sz w:val="16"></w:sz></w:rPr><w:t>■</w:t></w:r>`+
			`<w:r><w:t xml:space="preserve">      </w:t></w:r>`+
			`<w:r><w:rPr><w:sz w:val="22"></w:sz></w:rPr><w:t>SQL</w:t></w:r>`,
		out.String())
}

func TestUnits(t *testing.T) {
	assert.Equal(t, 480, Twips(24))
	assert.Equal(t, 20, Twips(1))
	assert.Equal(t, 22, HalfPoints(11))
	assert.Equal(t, 4, EighthPoints(0.48))
	assert.Equal(t, 2, EighthPoints(0))
	assert.Equal(t, 96, EighthPoints(40))
	assert.Equal(t, 240, LineSpacing(1))
	assert.Equal(t, 360, LineSpacing(1.5))
}
