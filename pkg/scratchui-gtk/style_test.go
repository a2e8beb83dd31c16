package scratchuigtk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phroun/kscratch/pkg/highlight"
	"github.com/phroun/kscratch/pkg/output"
	"github.com/phroun/kscratch/pkg/scratchui"
)

func TestTagRanges(t *testing.T) {
	text := "val s = \"ä\" // x"
	got := tagRanges(highlight.Classify(text), 16)
	assert.Equal(t, []tagRange{
		{tag: "kscratch-keyword", start: 0, end: 3},
		{tag: "kscratch-string", start: 8, end: 11},
		{tag: "kscratch-comment", start: 12, end: 16},
	}, got)
	assert.Empty(t, tagRanges(highlight.Classify("plain words"), 11))

	clipped := tagRanges(highlight.Classify(text), 10)
	assert.Equal(t, []tagRange{
		{tag: "kscratch-keyword", start: 0, end: 3},
		{tag: "kscratch-string", start: 8, end: 10},
	}, clipped, "stale spans are clipped to the buffer")
}

func TestTagPropertiesCoverHighlightedKinds(t *testing.T) {
	props := tagProperties(scratchui.PaletteFor(true))
	for _, r := range tagRanges(highlight.Classify("val s = \"a\" // c"), 17) {
		assert.Contains(t, props, r.tag)
	}
}

func TestGutterText(t *testing.T) {
	assert.Equal(t, " 1 ", gutterText(0))
	assert.Equal(t, " 1 \n 2 \n 3 ", gutterText(3))
	lines := gutterText(10)
	assert.Contains(t, lines, "  9 \n 10 ")
}

func TestEntryMarkup(t *testing.T) {
	p := scratchui.PaletteFor(false)
	log := output.NewLog()
	log.AppendPlain("a < b & c")
	log.AppendDiagnostic("script.kts:1:1: error: <boom>", func() {})

	assert.Equal(t, "a &lt; b &amp; c", entryMarkup(log.At(0), p))
	diag := entryMarkup(log.At(1), p)
	assert.Contains(t, diag, `foreground="`+scratchui.Hex(p.Diagnostic)+`"`)
	assert.Contains(t, diag, "error: &lt;boom&gt;")
}

func TestStylesheet(t *testing.T) {
	cfg := scratchui.DefaultConfig()
	cfg.UI.FontFamily = "Fira Code, Menlo"
	cfg.UI.FontSize = 13
	css := stylesheet(cfg, scratchui.PaletteFor(true))
	assert.Contains(t, css, `font-family: "Fira Code", "Menlo", monospace;`)
	assert.Contains(t, css, "font-size: 13pt;")
	assert.Contains(t, css, scratchui.Hex(scratchui.PaletteFor(true).Background))
}
