package scratchuigtk

import (
	"context"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"pkt.systems/pslog"

	"github.com/phroun/kscratch/pkg/scratchui"
	"github.com/phroun/kscratch/pkg/session"
)

// Options configures a Window.
type Options struct {
	Config scratchui.Config
	Text   string // initial editor contents
	Title  string // default: scratchui.WindowTitle

	Launcher session.Launcher // overrides the launcher built from Config
	Observer session.Observer
	Context  context.Context
}

// Window is the scratchpad: editor on the left, output on the right and a
// Run/Stop bar with the status underneath.
type Window struct {
	win     *gtk.Window
	editor  *CodeEditor
	output  *OutputList
	runBtn  *gtk.Button
	stopBtn *gtk.Button
	status  *gtk.Label
	session *session.Session
	log     pslog.Logger
}

// GUISync posts closures to the GTK main loop.
var GUISync = session.SyncFunc(func(fn func()) {
	glib.IdleAdd(fn)
})

// NewWindow builds the window and its session. gtk.Init must have been
// called.
func NewWindow(opts Options) (*Window, error) {
	cfg := opts.Config
	if opts.Title == "" {
		opts.Title = scratchui.WindowTitle
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	dark, err := applyTheme(cfg)
	if err != nil {
		return nil, err
	}
	palette := scratchui.PaletteFor(dark)

	w := &Window{log: pslog.Ctx(opts.Context)}
	w.win, err = gtk.WindowNew(gtk.WINDOW_TOPLEVEL)
	if err != nil {
		return nil, err
	}
	w.win.SetTitle(opts.Title)
	w.win.SetDefaultSize(cfg.UI.Width, cfg.UI.Height)

	if w.editor, err = NewCodeEditor(palette, cfg.UI.TabWidth); err != nil {
		return nil, err
	}
	if w.output, err = NewOutputList(palette); err != nil {
		return nil, err
	}
	if w.runBtn, err = gtk.ButtonNewWithLabel(scratchui.RunLabel); err != nil {
		return nil, err
	}
	if w.stopBtn, err = gtk.ButtonNewWithLabel(scratchui.StopLabel); err != nil {
		return nil, err
	}
	if w.status, err = gtk.LabelNew(""); err != nil {
		return nil, err
	}
	w.status.SetXAlign(0)

	sopts, err := cfg.SessionOptions()
	if err != nil {
		return nil, err
	}
	if opts.Launcher != nil {
		sopts.Launcher = opts.Launcher
	}
	sopts.Editor = w.editor
	sopts.Output = w.output
	sopts.View = w
	sopts.GUISync = GUISync
	sopts.Observer = opts.Observer
	sopts.Context = opts.Context
	if w.session, err = session.New(sopts); err != nil {
		return nil, err
	}
	w.editor.SetText(opts.Text)
	session.BindHighlighting(w.editor)

	paned, err := gtk.PanedNew(gtk.ORIENTATION_HORIZONTAL)
	if err != nil {
		return nil, err
	}
	paned.Pack1(w.editor.Widget(), true, false)
	paned.Pack2(w.output.Widget(), true, false)
	paned.SetPosition(int(float64(cfg.UI.Width) * cfg.UI.SplitOffset))

	bar, err := gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 6)
	if err != nil {
		return nil, err
	}
	bar.SetMarginStart(6)
	bar.SetMarginEnd(6)
	bar.SetMarginTop(4)
	bar.SetMarginBottom(4)
	bar.PackStart(w.runBtn, false, false, 0)
	bar.PackStart(w.stopBtn, false, false, 0)
	bar.PackStart(w.status, true, true, 0)

	root, err := gtk.BoxNew(gtk.ORIENTATION_VERTICAL, 0)
	if err != nil {
		return nil, err
	}
	root.PackStart(paned, true, true, 0)
	root.PackStart(bar, false, false, 0)
	w.win.Add(root)

	w.runBtn.Connect("clicked", func() { w.Run() })
	w.stopBtn.Connect("clicked", func() { w.Stop() })
	// Connected on the window so the keys work whichever widget has focus.
	w.win.Connect("key-press-event", w.onKeyPress)
	w.win.Connect("destroy", func() { w.session.Close() })
	return w, nil
}

func (w *Window) onKeyPress(win *gtk.Window, ev *gdk.Event) bool {
	key := gdk.EventKeyNewFromEvent(ev)
	keyval := key.KeyVal()
	hasCtrl := key.State()&uint(gdk.CONTROL_MASK) != 0
	switch {
	case hasCtrl && (keyval == gdk.KEY_Return || keyval == gdk.KEY_KP_Enter):
		w.Run()
		return true
	case keyval == gdk.KEY_Escape:
		w.Stop()
		return true
	}
	return false
}

// Run saves the editor text and starts the interpreter. It does nothing
// while a run is active.
func (w *Window) Run() {
	if err := w.session.Run(); err != nil {
		w.log.Debug("run ignored", "err", err)
	}
}

// Stop cancels the active run.
func (w *Window) Stop() {
	w.session.Stop()
}

// SetStatus implements session.View.
func (w *Window) SetStatus(status string) {
	w.status.SetText(status)
}

// SetRunning implements session.View.
func (w *Window) SetRunning(running bool) {
	w.runBtn.SetSensitive(!running)
	w.stopBtn.SetSensitive(running)
}

// ShowAll shows the window and focuses the editor.
func (w *Window) ShowAll() {
	w.win.ShowAll()
	w.editor.Focus()
}

func (w *Window) Window() *gtk.Window       { return w.win }
func (w *Window) Session() *session.Session { return w.session }

// applyTheme selects the GTK dark variant when the configuration asks for
// it and installs the stylesheet. It reports whether the result is dark.
func applyTheme(cfg scratchui.Config) (bool, error) {
	settings, err := gtk.SettingsGetDefault()
	if err != nil {
		return false, err
	}
	systemDark := false
	if v, err := settings.GetProperty("gtk-application-prefer-dark-theme"); err == nil {
		systemDark, _ = v.(bool)
	}
	dark := cfg.Theme().IsDark(systemDark)
	if err := settings.SetProperty("gtk-application-prefer-dark-theme", dark); err != nil {
		return false, err
	}

	provider, err := gtk.CssProviderNew()
	if err != nil {
		return false, err
	}
	if err := provider.LoadFromData(stylesheet(cfg, scratchui.PaletteFor(dark))); err != nil {
		return false, err
	}
	screen, err := gdk.ScreenGetDefault()
	if err != nil {
		return false, err
	}
	gtk.AddProviderForScreen(screen, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	return dark, nil
}
