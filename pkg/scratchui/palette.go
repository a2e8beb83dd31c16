package scratchui

import (
	"fmt"
	"image/color"

	"github.com/phroun/kscratch/pkg/highlight"
)

// Palette holds the editor and output colours for one theme.
type Palette struct {
	Background   color.NRGBA
	Foreground   color.NRGBA
	Keyword      color.NRGBA
	String       color.NRGBA
	Comment      color.NRGBA
	Gutter       color.NRGBA
	GutterText   color.NRGBA
	Caret        color.NRGBA
	Diagnostic   color.NRGBA
	DiagnosticBg color.NRGBA
}

var darkPalette = Palette{
	Background:   rgb(30, 31, 34),
	Foreground:   rgb(188, 190, 196),
	Keyword:      rgb(207, 142, 109),
	String:       rgb(106, 171, 115),
	Comment:      rgb(122, 126, 133),
	Gutter:       rgb(43, 45, 48),
	GutterText:   rgb(110, 114, 121),
	Caret:        rgb(206, 208, 214),
	Diagnostic:   rgb(247, 84, 100),
	DiagnosticBg: rgb(64, 38, 42),
}

var lightPalette = Palette{
	Background:   rgb(255, 255, 255),
	Foreground:   rgb(8, 8, 8),
	Keyword:      rgb(0, 51, 179),
	String:       rgb(6, 125, 23),
	Comment:      rgb(140, 140, 140),
	Gutter:       rgb(247, 248, 250),
	GutterText:   rgb(174, 179, 194),
	Caret:        rgb(0, 0, 0),
	Diagnostic:   rgb(200, 30, 30),
	DiagnosticBg: rgb(252, 232, 232),
}

func rgb(r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// PaletteFor returns the dark or light palette.
func PaletteFor(dark bool) Palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}

// Style returns the text colour for a highlight kind.
func (p Palette) Style(kind highlight.Kind) color.NRGBA {
	switch kind {
	case highlight.Keyword:
		return p.Keyword
	case highlight.String:
		return p.String
	case highlight.Comment:
		return p.Comment
	default:
		return p.Foreground
	}
}

// Hex formats c as #rrggbb, the form GTK tags accept.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// TagName is the text tag a toolkit uses for a highlight kind.
func TagName(kind highlight.Kind) string {
	return "kscratch-" + kind.String()
}
