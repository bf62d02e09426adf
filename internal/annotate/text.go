package annotate

import (
	"math"
	"strings"
)

const (
	// TextPadding is the inset between a text box edge and its glyphs.
	TextPadding = 8.0
	// LineHeightFactor multiplies the font size to give line spacing.
	LineHeightFactor = 1.3
)

// MeasureFunc returns the rendered width of s.
type MeasureFunc func(s string) float64

// LineHeight is the baseline-to-baseline distance for fontSize.
func LineHeight(fontSize float64) float64 {
	return fontSize * LineHeightFactor
}

// WrapWidth is the usable text width inside a box of the given width.
func WrapWidth(boxWidth float64) float64 {
	return boxWidth - 2*TextPadding
}

// Wrap splits text into paragraphs on newlines and greedily packs words into
// lines no wider than maxWidth. Blank paragraphs give an empty line. A single
// word wider than maxWidth occupies its own line.
func Wrap(text string, maxWidth float64, measure MeasureFunc) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		if strings.TrimSpace(para) == "" {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range strings.Fields(para) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if current != "" && measure(candidate) > maxWidth {
				lines = append(lines, current)
				current = word
				continue
			}
			current = candidate
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// RequiredHeight is the box height needed to show n lines at fontSize.
func RequiredHeight(n int, fontSize float64) float64 {
	return float64(n)*LineHeight(fontSize) + 2*TextPadding
}

// FitHeight grows drawn so that n lines fit.
func FitHeight(drawn float64, n int, fontSize float64) float64 {
	return math.Max(drawn, RequiredHeight(n, fontSize))
}
