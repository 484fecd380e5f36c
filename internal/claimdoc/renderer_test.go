package claimdoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// charWidth measures one unit per rune, making wrap widths readable.
func charWidth(s string) float64 { return float64(len([]rune(s))) }

func TestWrapWordsNeverSplitsWords(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	lines := wrapWords(text, 15, charWidth)

	require.NotEmpty(t, lines)
	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
	for _, line := range lines {
		for _, word := range strings.Fields(line) {
			assert.Contains(t, strings.Fields(text), word)
		}
	}
}

func TestWrapWordsRespectsWidth(t *testing.T) {
	text := "alpha beta gamma delta epsilon zeta eta theta"
	lines := wrapWords(text, 12, charWidth)

	for _, line := range lines {
		words := strings.Fields(line)
		// A single word may exceed the width; multi-word lines may not.
		if len(words) > 1 {
			assert.LessOrEqual(t, charWidth(line), 12.0, "line %q too wide", line)
		}
	}
}

func TestWrapWordsOversizedWordAloneOnLine(t *testing.T) {
	lines := wrapWords("short supercalifragilistic word", 10, charWidth)

	require.Equal(t, []string{"short", "supercalifragilistic", "word"}, lines)
}

func TestWrapWordsFlushesFinalBuffer(t *testing.T) {
	lines := wrapWords("one two", 100, charWidth)
	assert.Equal(t, []string{"one two"}, lines)
}

func TestWrapWordsEmpty(t *testing.T) {
	assert.Nil(t, wrapWords("", 10, charWidth))
	assert.Nil(t, wrapWords("   \t\n ", 10, charWidth))
}

func TestLayoutAdvance(t *testing.T) {
	l := layout{y: 70, left: 50, right: 545, bottom: 770}
	moved := l.advance(16)

	assert.Equal(t, 86.0, moved.y)
	// Value semantics: the original context is untouched.
	assert.Equal(t, 70.0, l.y)
	assert.Equal(t, 495.0, l.usableWidth())
}

func sampleRequest() ClaimRequest {
	return ClaimRequest{
		Product: Product{
			ID:           "prod-7731",
			Name:         "UltraBlend 3000",
			Brand:        "BlendCo",
			SerialNumber: "SN-0042-XK",
			PurchaseDate: "2024-03-02",
			OrderNumber:  "A-1001",
			Retailer:     "Kitchen World",
			Price:        89.99,
			Currency:     "USD",
			Category:     "Appliances",
		},
		Problem:   "The blender motor stopped working after two weeks of normal use. It makes a grinding noise and then shuts off completely.",
		Requester: Requester{Name: "Jane Doe", Email: "jane@home.example"},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	r := NewRenderer("Coverly")
	out, err := r.Render(sampleRequest())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"), "output must be a PDF document")
}

func TestRenderFreshPerRequest(t *testing.T) {
	r := NewRenderer("Coverly")

	first, err := r.Render(sampleRequest())
	require.NoError(t, err)
	second, err := r.Render(sampleRequest())
	require.NoError(t, err)

	// No shared layout state: both renders fully succeed independently.
	assert.True(t, strings.HasPrefix(string(first), "%PDF"))
	assert.True(t, strings.HasPrefix(string(second), "%PDF"))
}

func TestRenderSurvivesHostileInput(t *testing.T) {
	req := sampleRequest()
	req.Problem = "Broken <script>{alert}</script> \x00\x01 unit " + strings.Repeat("overflow ", 500)
	req.Product.Name = "Name\twith\ncontrol{}chars"

	r := NewRenderer("Coverly")
	out, err := r.Render(req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "", formatPrice(0, "USD"))
	assert.Equal(t, "89.99", formatPrice(89.99, ""))
	assert.Equal(t, "89.99 USD", formatPrice(89.99, "USD"))
}
