package render

import "strings"

// Text fitting limits.
const (
	shrinkStep     = 0.9
	minTextSizePt  = 4.0
	overflowSlack  = 1.05
	verticalFactor = 0.9
)

// textPlan is the result of fitting a run into a box.
type textPlan struct {
	SizePt float64
	Lines  []string
	Clip   bool
}

// fitter measures text at a given point size. Width returns the advance of
// s and LineHeight the distance between baselines, both in pixels.
type fitter interface {
	Width(s string, sizePt float64) float64
	LineHeight(sizePt float64) float64
}

// planText fits text into b. Single lines shrink in steps of 0.9 down to
// 4 pt. A line still too wide is wrapped per character at its original size
// when wrap is set and the wrapped block fits the box height; otherwise it is
// kept at the smallest size and clipped.
func planText(f fitter, text string, sizePt float64, b Box, wrap bool) textPlan {
	lines := strings.Split(text, "\n")
	widest := func(size float64) float64 {
		w := 0.0
		for _, l := range lines {
			w = max(w, f.Width(l, size))
		}
		return w
	}
	fits := func(size float64) bool {
		return widest(size) <= b.W*overflowSlack &&
			(len(lines) == 1 || float64(len(lines))*f.LineHeight(size) <= b.H*overflowSlack)
	}
	if fits(sizePt) {
		return textPlan{SizePt: sizePt, Lines: lines}
	}

	size := sizePt
	for !fits(size) && size > minTextSizePt {
		size = max(minTextSizePt, size*shrinkStep)
	}
	if fits(size) {
		return textPlan{SizePt: size, Lines: lines}
	}

	if wrap && len(lines) == 1 {
		wrapped := WrapRunes(func(s string) float64 { return f.Width(s, sizePt) }, text, b.W)
		if float64(len(wrapped))*f.LineHeight(sizePt) <= b.H*overflowSlack {
			return textPlan{SizePt: sizePt, Lines: wrapped}
		}
	}
	return textPlan{SizePt: size, Lines: lines, Clip: true}
}

// WrapRunes breaks text into lines no wider than maxW, splitting between
// any two characters. Explicit newlines always break. A single character
// wider than maxW gets a line of its own.
func WrapRunes(measure func(string) float64, text string, maxW float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		var cur []rune
		for _, r := range para {
			next := append(cur, r)
			if len(cur) > 0 && measure(string(next)) > maxW {
				out = append(out, string(cur))
				cur = []rune{r}
				continue
			}
			cur = next
		}
		out = append(out, string(cur))
	}
	return out
}

// verticalGlyphSize returns the point size of one glyph in a vertical run of
// n characters in a box h pixels tall.
func verticalGlyphSize(sizePt, h float64, n, dpi int) float64 {
	if n <= 0 {
		return sizePt
	}
	charH := h / float64(n)
	return min(sizePt, charH*72/float64(dpi)*verticalFactor)
}
