package wml

import "math"

// SingleLine is the w:line value for single line spacing with lineRule auto.
const SingleLine = 240

// Twips converts points to twentieths of a point, the unit of indentation
// and paragraph spacing.
func Twips(pt float64) int {
	return int(math.Round(pt * 20))
}

// HalfPoints converts points to half points, the unit of w:sz.
func HalfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// EighthPoints converts points to eighths of a point, the unit of border
// widths. Word accepts 2..96; values are clamped to that range.
func EighthPoints(pt float64) int {
	v := int(math.Round(pt * 8))
	if v < 2 {
		return 2
	}
	if v > 96 {
		return 96
	}
	return v
}

// LineSpacing converts a line multiple (1 = single) to a w:line value for
// lineRule auto.
func LineSpacing(multiple float64) int {
	return int(math.Round(multiple * SingleLine))
}
