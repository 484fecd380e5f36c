// Package sanitize normalizes caller-supplied text before it is
// measured and drawn into generated documents.
package sanitize

import (
	"strings"
	"unicode"
)

// MaxFieldLength bounds any single sanitized field.
const MaxFieldLength = 1000

// Clean strips control characters and markup delimiters, collapses
// whitespace runs to single spaces, trims, and truncates to
// MaxFieldLength. Applied independently to every field, never to an
// assembled document. Clean is idempotent.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := false
	for _, r := range s {
		switch {
		case r == '<' || r == '>' || r == '{' || r == '}':
			// Markup/structural delimiters are dropped entirely.
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			// Non-printable control characters are dropped.
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}

	out := strings.TrimSpace(b.String())
	if len(out) > MaxFieldLength {
		out = strings.ToValidUTF8(out[:MaxFieldLength], "")
		out = strings.TrimSpace(out)
	}
	return out
}
