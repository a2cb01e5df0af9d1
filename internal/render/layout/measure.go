package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Measurer supplies text metrics. Layout works with whatever metrics are
// available; a later pass corrects them once the real font is loaded.
type Measurer interface {
	TextWidth(text string, f Font) float64
	LineHeight(f Font) float64
}

const lineHeightFactor = 1.16

// ApproxMeasurer estimates metrics from the font size alone.
type ApproxMeasurer struct{}

func (ApproxMeasurer) TextWidth(text string, f Font) float64 {
	advance := 0.6
	if f.Weight >= 700 {
		advance = 0.64
	}
	return float64(len([]rune(text))) * f.Size * advance
}

func (ApproxMeasurer) LineHeight(f Font) float64 { return f.Size * lineHeightFactor }

// Wrap breaks text into lines no wider than width. Breaks fall between
// normalization segments, so a combining mark always stays on the line of its
// base character. Explicit newlines are kept. Text comes back in NFC.
func Wrap(m Measurer, text string, f Font, width float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var line strings.Builder
		var it norm.Iter
		it.InitString(norm.NFC, paragraph)
		for !it.Done() {
			seg := string(it.Next())
			if line.Len() > 0 && width > 0 && m.TextWidth(line.String()+seg, f) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			line.WriteString(seg)
		}
		lines = append(lines, line.String())
	}
	return lines
}

// widest returns the width of the longest line.
func widest(m Measurer, lines []string, f Font) float64 {
	w := 0.0
	for _, line := range lines {
		if lw := m.TextWidth(line, f); lw > w {
			w = lw
		}
	}
	return w
}
