package scratchuifyne

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"github.com/phroun/kscratch/pkg/scratchui"
)

// scratchTheme pins the default theme to one variant and text size and
// optionally swaps in a monospace font file.
type scratchTheme struct {
	fyne.Theme
	variant  fyne.ThemeVariant
	textSize float32
	mono     fyne.Resource
}

func (t *scratchTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, t.variant)
}

func (t *scratchTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText {
		return t.textSize
	}
	return t.Theme.Size(name)
}

func (t *scratchTheme) Font(style fyne.TextStyle) fyne.Resource {
	if style.Monospace && t.mono != nil {
		return t.mono
	}
	return t.Theme.Font(style)
}

// ApplyTheme installs the configured theme on a and reports whether it is
// dark.
func ApplyTheme(a fyne.App, cfg scratchui.Config) bool {
	dark := cfg.Theme().IsDark(a.Settings().ThemeVariant() == theme.VariantDark)
	variant := theme.VariantLight
	if dark {
		variant = theme.VariantDark
	}
	a.Settings().SetTheme(&scratchTheme{
		Theme:    theme.DefaultTheme(),
		variant:  variant,
		textSize: float32(cfg.UI.FontSize),
		mono:     loadMonoFont(cfg.UI.FontFamily),
	})
	return dark
}

// loadMonoFont returns the first entry of a comma separated font list
// that names a readable TrueType or OpenType file. Fyne cannot look up
// installed fonts by family name, so names are skipped.
func loadMonoFont(families string) fyne.Resource {
	for _, f := range strings.Split(families, ",") {
		f = strings.TrimSpace(f)
		switch strings.ToLower(filepath.Ext(f)) {
		case ".ttf", ".otf":
		default:
			continue
		}
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if res, err := fyne.LoadResourceFromPath(f); err == nil {
			return res
		}
	}
	return nil
}
