package claimdoc

import "strings"

// layout is the explicit drawing context for a single page: a vertical
// write cursor plus fixed page bounds. Drawing helpers take a layout
// and return the advanced one; nothing holds cursor state in closures.
type layout struct {
	y      float64 // current baseline
	left   float64
	right  float64
	bottom float64
}

// usableWidth returns the horizontal space available for text.
func (l layout) usableWidth() float64 {
	return l.right - l.left
}

// advance moves the cursor down by dy.
func (l layout) advance(dy float64) layout {
	l.y += dy
	return l
}

// wrapWords greedily wraps text into lines no wider than maxWidth
// under the given measurement function. Words are accumulated into a
// line buffer; a word that would push the buffered line past maxWidth
// flushes the buffer first. Breaking happens only at word boundaries:
// a single word wider than maxWidth still occupies its own line,
// unbroken. The final non-empty buffer is always flushed.
func wrapWords(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var buf string
	for _, word := range words {
		candidate := word
		if buf != "" {
			candidate = buf + " " + word
		}
		if buf != "" && measure(candidate) > maxWidth {
			lines = append(lines, buf)
			buf = word
			continue
		}
		buf = candidate
	}
	if buf != "" {
		lines = append(lines, buf)
	}
	return lines
}
