package scratchuifyne

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
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
	GUISync  session.GUISync  // default: fyne.Do
	Observer session.Observer
	Context  context.Context
}

// Window is the scratchpad: editor on the left, output on the right and a
// Run/Stop bar with the status underneath.
type Window struct {
	win     fyne.Window
	editor  *CodeEditor
	output  *OutputList
	runBtn  *widget.Button
	stopBtn *widget.Button
	status  *widget.Label
	session *session.Session
	log     pslog.Logger
}

// NewWindow builds the window and its session. The window is not shown.
func NewWindow(a fyne.App, opts Options) (*Window, error) {
	cfg := opts.Config
	if opts.Title == "" {
		opts.Title = scratchui.WindowTitle
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.GUISync == nil {
		opts.GUISync = session.SyncFunc(fyne.Do)
	}

	dark := ApplyTheme(a, cfg)
	w := &Window{
		win:    a.NewWindow(opts.Title),
		editor: NewCodeEditor(scratchui.PaletteFor(dark), cfg.UI.TabWidth),
		output: NewOutputList(),
		status: widget.NewLabel(""),
		log:    pslog.Ctx(opts.Context),
	}
	w.runBtn = widget.NewButton(scratchui.RunLabel, w.Run)
	w.stopBtn = widget.NewButton(scratchui.StopLabel, w.Stop)
	w.runBtn.Importance = widget.HighImportance

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
	sopts.GUISync = opts.GUISync
	sopts.Observer = opts.Observer
	sopts.Context = opts.Context
	w.session, err = session.New(sopts)
	if err != nil {
		return nil, err
	}

	w.editor.SetText(opts.Text)
	session.BindHighlighting(w.editor)
	w.editor.OnRun = w.Run
	w.editor.OnStop = w.Stop

	split := container.NewHSplit(w.editor, w.output)
	split.SetOffset(cfg.UI.SplitOffset)
	bar := container.NewHBox(w.runBtn, w.stopBtn, w.status)
	w.win.SetContent(container.NewBorder(nil, bar, nil, nil, split))
	w.win.Resize(fyne.NewSize(float32(cfg.UI.Width), float32(cfg.UI.Height)))

	// The editor handles these itself while it has focus.
	w.win.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyReturn, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		w.Run()
	})
	w.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyEscape {
			w.Stop()
		}
	})
	w.win.SetOnClosed(w.session.Close)
	return w, nil
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
	if running {
		w.runBtn.Disable()
		w.stopBtn.Enable()
		return
	}
	w.runBtn.Enable()
	w.stopBtn.Disable()
}

// Show displays the window and focuses the editor.
func (w *Window) Show() {
	w.win.Show()
	w.editor.Focus()
}

// ShowAndRun shows the window and runs the application's event loop.
func (w *Window) ShowAndRun() {
	w.editor.Focus()
	w.win.ShowAndRun()
}

func (w *Window) Editor() *CodeEditor       { return w.editor }
func (w *Window) Output() *OutputList       { return w.output }
func (w *Window) Session() *session.Session { return w.session }
func (w *Window) Window() fyne.Window       { return w.win }

// Status returns the status line text.
func (w *Window) Status() string {
	return w.status.Text
}

// Running reports whether the Run button is disabled.
func (w *Window) Running() bool {
	return w.runBtn.Disabled()
}
