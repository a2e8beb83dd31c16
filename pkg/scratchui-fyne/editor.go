// Package scratchuifyne is the Fyne host: a highlighting code editor with
// a line-number gutter, a clickable output list and the window that
// binds them to a session.
package scratchuifyne

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/phroun/kscratch/pkg/editor"
	"github.com/phroun/kscratch/pkg/highlight"
	"github.com/phroun/kscratch/pkg/scratchui"
)

// pageLines is how far PageUp and PageDown move the caret.
const pageLines = 20

// CodeEditor is a monospace, syntax highlighted script editor. It keeps
// its text in an editor.Buffer and redraws the whole document on every
// change.
type CodeEditor struct {
	widget.BaseWidget

	buf      *editor.Buffer
	palette  scratchui.Palette
	tabWidth int

	view   *codeView
	scroll *container.Scroll

	spans    []highlight.Span
	onChange func(text string)

	// OnRun and OnStop are bound to Ctrl+Enter and Escape.
	OnRun  func()
	OnStop func()
}

// NewCodeEditor creates an empty editor.
func NewCodeEditor(palette scratchui.Palette, tabWidth int) *CodeEditor {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	e := &CodeEditor{
		buf:      editor.NewBuffer(""),
		palette:  palette,
		tabWidth: tabWidth,
	}
	e.view = &codeView{editor: e}
	e.view.ExtendBaseWidget(e.view)
	e.scroll = container.NewScroll(e.view)
	e.ExtendBaseWidget(e)
	return e
}

func (e *CodeEditor) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(e.scroll)
}

// Text returns the document.
func (e *CodeEditor) Text() string {
	return e.buf.Text()
}

// SetText replaces the document and moves the caret to the start.
func (e *CodeEditor) SetText(text string) {
	if e.buf.SetText(text) {
		e.buf.SetCaret(0)
		e.changed()
		return
	}
	e.view.Refresh()
}

// ApplyStyles replaces the highlight spans. Text and caret are left
// alone and the change callback is not called.
func (e *CodeEditor) ApplyStyles(spans []highlight.Span) {
	e.spans = append(e.spans[:0], spans...)
	e.view.Refresh()
}

// OnChange sets the callback run with the new text after each edit.
func (e *CodeEditor) OnChange(fn func(text string)) {
	e.onChange = fn
}

// CaretLineCol returns the 1-based caret position.
func (e *CodeEditor) CaretLineCol() (line, col int) {
	return e.buf.LineCol()
}

// MoveCaretTo places the caret at a 1-based (line, col), scrolls it into
// view and focuses the editor.
func (e *CodeEditor) MoveCaretTo(line, col int) {
	e.buf.MoveCaretTo(line, col)
	e.caretMoved()
	e.Focus()
}

// Focus gives the editor keyboard focus when it is on a canvas.
func (e *CodeEditor) Focus() {
	if c := fyne.CurrentApp().Driver().CanvasForObject(e.view); c != nil {
		c.Focus(e.view)
	}
}

func (e *CodeEditor) changed() {
	e.view.Refresh()
	e.scrollToCaret()
	if e.onChange != nil {
		e.onChange(e.buf.Text())
	}
}

func (e *CodeEditor) caretMoved() {
	e.view.Refresh()
	e.scrollToCaret()
}

func (e *CodeEditor) scrollToCaret() {
	cell := e.view.cellSize()
	line, col := e.buf.LineCol()
	x := e.view.gutterWidth() + float32(col-1)*cell.Width
	y := float32(line-1) * cell.Height

	off := e.scroll.Offset
	vis := e.scroll.Size()
	if vis.Width <= 0 || vis.Height <= 0 {
		return
	}
	switch {
	case y < off.Y:
		off.Y = y
	case y+cell.Height > off.Y+vis.Height:
		off.Y = y + cell.Height - vis.Height
	}
	switch {
	case x < off.X+e.view.gutterWidth():
		off.X = max(0, x-e.view.gutterWidth())
	case x+cell.Width > off.X+vis.Width:
		off.X = x + cell.Width - vis.Width
	}
	if off != e.scroll.Offset {
		e.scroll.Offset = off
		e.scroll.Refresh()
	}
}

func (e *CodeEditor) indent() string {
	_, col := e.buf.LineCol()
	n := e.tabWidth - (col-1)%e.tabWidth
	return strings.Repeat(" ", n)
}

// codeView is the scrolled document. Tap positions arrive in document
// coordinates because the view is the scroll container's content.
type codeView struct {
	widget.BaseWidget
	editor  *CodeEditor
	focused bool
}

var (
	_ fyne.Focusable    = (*codeView)(nil)
	_ fyne.Tappable     = (*codeView)(nil)
	_ fyne.Shortcutable = (*codeView)(nil)
)

func (v *codeView) cellSize() fyne.Size {
	return fyne.MeasureText("M", theme.TextSize(), fyne.TextStyle{Monospace: true})
}

func (v *codeView) gutterCols() int {
	return len(fmt.Sprint(v.lineCount())) + 2
}

func (v *codeView) gutterWidth() float32 {
	return float32(v.gutterCols()) * v.cellSize().Width
}

func (v *codeView) lineCount() int {
	return strings.Count(v.editor.buf.Text(), "\n") + 1
}

// positionToLineCol maps a point in document coordinates to a 1-based
// (line, col). Points in the gutter select column 1.
func (v *codeView) positionToLineCol(p fyne.Position) (line, col int) {
	cell := v.cellSize()
	line = int(p.Y/cell.Height) + 1
	x := p.X - v.gutterWidth()
	if x < 0 {
		x = 0
	}
	col = int(x/cell.Width+0.5) + 1
	return line, col
}

func (v *codeView) Tapped(ev *fyne.PointEvent) {
	line, col := v.positionToLineCol(ev.Position)
	v.editor.buf.MoveCaretTo(line, col)
	v.editor.caretMoved()
	v.editor.Focus()
}

func (v *codeView) FocusGained() {
	v.focused = true
	v.Refresh()
}

func (v *codeView) FocusLost() {
	v.focused = false
	v.Refresh()
}

func (v *codeView) TypedRune(r rune) {
	if v.editor.buf.Insert(string(r)) {
		v.editor.changed()
	}
}

func (v *codeView) TypedKey(ev *fyne.KeyEvent) {
	e := v.editor
	b := e.buf
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		b.Newline()
		e.changed()
	case fyne.KeyTab:
		b.Insert(e.indent())
		e.changed()
	case fyne.KeyBackspace:
		if b.Backspace() {
			e.changed()
		}
	case fyne.KeyDelete:
		if b.Delete() {
			e.changed()
		}
	case fyne.KeyLeft:
		b.Left()
		e.caretMoved()
	case fyne.KeyRight:
		b.Right()
		e.caretMoved()
	case fyne.KeyUp:
		b.Up()
		e.caretMoved()
	case fyne.KeyDown:
		b.Down()
		e.caretMoved()
	case fyne.KeyPageUp:
		for i := 0; i < pageLines; i++ {
			b.Up()
		}
		e.caretMoved()
	case fyne.KeyPageDown:
		for i := 0; i < pageLines; i++ {
			b.Down()
		}
		e.caretMoved()
	case fyne.KeyHome:
		b.Home()
		e.caretMoved()
	case fyne.KeyEnd:
		b.End()
		e.caretMoved()
	case fyne.KeyEscape:
		if e.OnStop != nil {
			e.OnStop()
		}
	}
}

func (v *codeView) TypedShortcut(s fyne.Shortcut) {
	e := v.editor
	switch sc := s.(type) {
	case *fyne.ShortcutPaste:
		text := fyne.CurrentApp().Clipboard().Content()
		if e.buf.Insert(text) {
			e.changed()
		}
	case *fyne.ShortcutCopy:
		// No selection model: copy the caret's line.
		line, _ := e.buf.LineCol()
		fyne.CurrentApp().Clipboard().SetContent(e.buf.Lines()[line-1])
	case *desktop.CustomShortcut:
		if (sc.KeyName == fyne.KeyReturn || sc.KeyName == fyne.KeyEnter) && e.OnRun != nil {
			e.OnRun()
		}
	}
}

func (v *codeView) CreateRenderer() fyne.WidgetRenderer {
	r := &codeRenderer{
		view:     v,
		bg:       canvas.NewRectangle(v.editor.palette.Background),
		gutter:   canvas.NewRectangle(v.editor.palette.Gutter),
		caretRow: canvas.NewRectangle(v.editor.palette.Gutter),
		caret:    canvas.NewRectangle(v.editor.palette.Caret),
	}
	r.Refresh()
	return r
}

// run is a stretch of one line drawn in one colour.
type run struct {
	col  int
	text string
	kind highlight.Kind
}

// lineRuns splits text into per-line runs of one style. Spans that
// reach past the text are clipped and uncovered text is plain, so stale
// spans from before an edit are harmless. Tabs are drawn as a single
// blank cell so columns match the interpreter's.
func lineRuns(text string, spans []highlight.Span) [][]run {
	rs := []rune(text)
	kinds := make([]highlight.Kind, len(rs))
	for _, sp := range spans {
		for i := max(sp.Start, 0); i < sp.End && i < len(rs); i++ {
			kinds[i] = sp.Kind
		}
	}

	lines := [][]run{nil}
	lineStart, start := 0, 0
	flush := func(end int) {
		if end > start {
			seg := strings.ReplaceAll(string(rs[start:end]), "\t", " ")
			last := len(lines) - 1
			lines[last] = append(lines[last], run{col: start - lineStart, text: seg, kind: kinds[start]})
		}
	}
	for i, r := range rs {
		switch {
		case r == '\n':
			flush(i)
			lines = append(lines, nil)
			lineStart, start = i+1, i+1
		case i > start && kinds[i] != kinds[start]:
			flush(i)
			start = i
		}
	}
	flush(len(rs))
	return lines
}

type codeRenderer struct {
	view     *codeView
	bg       *canvas.Rectangle
	gutter   *canvas.Rectangle
	caretRow *canvas.Rectangle
	caret    *canvas.Rectangle
	texts    []fyne.CanvasObject
	minSize  fyne.Size
}

func (r *codeRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.gutter.Resize(fyne.NewSize(r.view.gutterWidth(), size.Height))
	cell := r.view.cellSize()
	line, _ := r.view.editor.buf.LineCol()
	r.caretRow.Move(fyne.NewPos(r.view.gutterWidth(), float32(line-1)*cell.Height))
	r.caretRow.Resize(fyne.NewSize(size.Width-r.view.gutterWidth(), cell.Height))
}

func (r *codeRenderer) MinSize() fyne.Size {
	return r.minSize
}

func (r *codeRenderer) Refresh() {
	e := r.view.editor
	p := e.palette
	cell := r.view.cellSize()
	size := theme.TextSize()
	gutterW := r.view.gutterWidth()
	digits := r.view.gutterCols() - 2

	r.bg.FillColor = p.Background
	r.gutter.FillColor = p.Gutter
	r.caretRow.FillColor = p.Gutter
	r.caret.FillColor = p.Caret
	r.caret.Hidden = !r.view.focused

	lines := lineRuns(e.buf.Text(), e.spans)
	widest := 0
	texts := make([]fyne.CanvasObject, 0, len(lines)*4)
	for i, runs := range lines {
		y := float32(i) * cell.Height
		num := canvas.NewText(fmt.Sprintf("%*d", digits, i+1), p.GutterText)
		num.TextSize = size
		num.TextStyle = fyne.TextStyle{Monospace: true}
		num.Move(fyne.NewPos(cell.Width, y))
		texts = append(texts, num)
		for _, rn := range runs {
			t := canvas.NewText(rn.text, p.Style(rn.kind))
			t.TextSize = size
			t.TextStyle = fyne.TextStyle{Monospace: true}
			t.Move(fyne.NewPos(gutterW+float32(rn.col)*cell.Width, y))
			texts = append(texts, t)
			if end := rn.col + len([]rune(rn.text)); end > widest {
				widest = end
			}
		}
	}
	r.texts = texts

	line, col := e.buf.LineCol()
	r.caret.Move(fyne.NewPos(gutterW+float32(col-1)*cell.Width, float32(line-1)*cell.Height))
	r.caret.Resize(fyne.NewSize(2, cell.Height))

	r.minSize = fyne.NewSize(gutterW+float32(widest+1)*cell.Width, float32(len(lines))*cell.Height)
	r.Layout(r.view.Size().Max(r.minSize))
	canvas.Refresh(r.view)
}

func (r *codeRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(r.texts)+4)
	objs = append(objs, r.bg, r.gutter, r.caretRow)
	objs = append(objs, r.texts...)
	return append(objs, r.caret)
}

func (r *codeRenderer) Destroy() {}
