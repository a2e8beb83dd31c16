package scratchuigtk

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/phroun/kscratch/pkg/highlight"
	"github.com/phroun/kscratch/pkg/output"
	"github.com/phroun/kscratch/pkg/scratchui"
)

// tagRange is a highlighted region in code points.
type tagRange struct {
	tag        string
	start, end int
}

// tagRanges returns the tag applications for spans over a buffer of n
// code points. Plain spans carry no tag and spans are clipped to the
// buffer.
func tagRanges(spans []highlight.Span, n int) []tagRange {
	var out []tagRange
	for _, sp := range spans {
		start, end := max(sp.Start, 0), min(sp.End, n)
		if sp.Kind == highlight.Plain || start >= end {
			continue
		}
		out = append(out, tagRange{tag: scratchui.TagName(sp.Kind), start: start, end: end})
	}
	return out
}

// tagProperties are the TextTag properties for each highlight kind.
func tagProperties(p scratchui.Palette) map[string]map[string]interface{} {
	return map[string]map[string]interface{}{
		scratchui.TagName(highlight.Keyword): {"foreground": scratchui.Hex(p.Keyword), "weight": 700},
		scratchui.TagName(highlight.String):  {"foreground": scratchui.Hex(p.String)},
		scratchui.TagName(highlight.Comment): {"foreground": scratchui.Hex(p.Comment)},
	}
}

// gutterText numbers lines 1..n, right aligned.
func gutterText(n int) string {
	if n < 1 {
		n = 1
	}
	width := len(strconv.Itoa(n))
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, " %*d ", width, i)
	}
	return b.String()
}

// entryMarkup renders an output entry as Pango markup.
func entryMarkup(e output.Entry, p scratchui.Palette) string {
	text := html.EscapeString(e.Text)
	if e.Kind != output.Diagnostic {
		return text
	}
	return fmt.Sprintf(`<span foreground="%s" background="%s" underline="single">%s</span>`,
		scratchui.Hex(p.Diagnostic), scratchui.Hex(p.DiagnosticBg), text)
}

// stylesheet is the CSS applied to the editor, gutter and output list.
func stylesheet(cfg scratchui.Config, p scratchui.Palette) string {
	families := strings.Split(cfg.UI.FontFamily, ",")
	quoted := make([]string, 0, len(families)+1)
	for _, f := range families {
		if f = strings.TrimSpace(f); f != "" {
			quoted = append(quoted, strconv.Quote(f))
		}
	}
	quoted = append(quoted, "monospace")
	font := strings.Join(quoted, ", ")
	return fmt.Sprintf(`
.kscratch-editor, .kscratch-editor text {
	font-family: %[1]s;
	font-size: %[2]dpt;
	background-color: %[3]s;
	color: %[4]s;
	caret-color: %[5]s;
}
.kscratch-gutter, .kscratch-gutter text {
	font-family: %[1]s;
	font-size: %[2]dpt;
	background-color: %[6]s;
	color: %[7]s;
}
.kscratch-output label {
	font-family: %[1]s;
	font-size: %[2]dpt;
}
`, font, cfg.UI.FontSize, scratchui.Hex(p.Background), scratchui.Hex(p.Foreground),
		scratchui.Hex(p.Caret), scratchui.Hex(p.Gutter), scratchui.Hex(p.GutterText))
}
