// Package scratchuigtk is the GTK 3 host for the scratchpad, built on
// gotk3. All methods must be called on the GTK main thread.
package scratchuigtk

import (
	"strings"

	"github.com/gotk3/gotk3/gdk"
	"github.com/gotk3/gotk3/gtk"

	"github.com/phroun/kscratch/pkg/editor"
	"github.com/phroun/kscratch/pkg/highlight"
	"github.com/phroun/kscratch/pkg/scratchui"
)

// CodeEditor is a TextView with Kotlin highlighting and a line number
// gutter that scrolls with it.
type CodeEditor struct {
	box    *gtk.Box
	view   *gtk.TextView
	buffer *gtk.TextBuffer
	gutter *gtk.TextView
	scroll *gtk.ScrolledWindow

	tabWidth int
	lines    int
	onChange func(text string)
}

// NewCodeEditor creates an empty editor.
func NewCodeEditor(palette scratchui.Palette, tabWidth int) (*CodeEditor, error) {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	e := &CodeEditor{tabWidth: tabWidth}

	var err error
	e.box, err = gtk.BoxNew(gtk.ORIENTATION_HORIZONTAL, 0)
	if err != nil {
		return nil, err
	}

	e.view, err = gtk.TextViewNew()
	if err != nil {
		return nil, err
	}
	e.view.SetMonospace(true)
	e.view.SetWrapMode(gtk.WRAP_NONE)
	e.view.SetLeftMargin(4)
	if ctx, err := e.view.GetStyleContext(); err == nil {
		ctx.AddClass("kscratch-editor")
	}
	e.buffer, err = e.view.GetBuffer()
	if err != nil {
		return nil, err
	}
	for name, props := range tagProperties(palette) {
		if _, err := e.buffer.CreateTag(name, props); err != nil {
			return nil, err
		}
	}

	e.scroll, err = gtk.ScrolledWindowNew(nil, nil)
	if err != nil {
		return nil, err
	}
	e.scroll.SetPolicy(gtk.POLICY_AUTOMATIC, gtk.POLICY_AUTOMATIC)
	e.scroll.SetHExpand(true)
	e.scroll.SetVExpand(true)
	e.scroll.Add(e.view)

	// The gutter shares the editor's vertical adjustment.
	e.gutter, err = gtk.TextViewNew()
	if err != nil {
		return nil, err
	}
	e.gutter.SetMonospace(true)
	e.gutter.SetEditable(false)
	e.gutter.SetCursorVisible(false)
	e.gutter.SetCanFocus(false)
	e.gutter.SetJustification(gtk.JUSTIFY_RIGHT)
	if ctx, err := e.gutter.GetStyleContext(); err == nil {
		ctx.AddClass("kscratch-gutter")
	}
	gutterScroll, err := gtk.ScrolledWindowNew(nil, e.scroll.GetVAdjustment())
	if err != nil {
		return nil, err
	}
	gutterScroll.SetPolicy(gtk.POLICY_NEVER, gtk.POLICY_AUTOMATIC)
	gutterScroll.Add(e.gutter)

	e.box.PackStart(gutterScroll, false, false, 0)
	e.box.PackStart(e.scroll, true, true, 0)

	e.buffer.Connect("changed", func(buf *gtk.TextBuffer) {
		e.onChanged()
	})
	e.view.Connect("key-press-event", e.onKeyPress)
	e.updateGutter()
	return e, nil
}

// Widget returns the container to pack into a window.
func (e *CodeEditor) Widget() gtk.IWidget {
	return e.box
}

// Text returns the document.
func (e *CodeEditor) Text() string {
	start, end := e.buffer.GetBounds()
	text, err := e.buffer.GetText(start, end, true)
	if err != nil {
		return ""
	}
	return text
}

// SetText replaces the document and moves the caret to the start.
func (e *CodeEditor) SetText(text string) {
	e.buffer.SetText(text)
	e.buffer.PlaceCursor(e.buffer.GetStartIter())
}

// MoveCaretTo places the caret at a 1-based (line, col), scrolls it into
// view and focuses the editor.
func (e *CodeEditor) MoveCaretTo(line, col int) {
	offset := editor.OffsetForLineCol(e.Text(), line, col)
	e.buffer.PlaceCursor(e.buffer.GetIterAtOffset(offset))
	e.view.ScrollToMark(e.buffer.GetInsert(), 0.1, false, 0, 0)
	e.view.GrabFocus()
}

// CaretLineCol returns the 1-based caret position.
func (e *CodeEditor) CaretLineCol() (line, col int) {
	iter := e.buffer.GetIterAtMark(e.buffer.GetInsert())
	return iter.GetLine() + 1, iter.GetLineOffset() + 1
}

// Focus gives the editor keyboard focus.
func (e *CodeEditor) Focus() {
	e.view.GrabFocus()
}

// ApplyStyles replaces the highlight tags. Tag changes do not emit the
// buffer's "changed" signal, so this never re-enters the change callback.
func (e *CodeEditor) ApplyStyles(spans []highlight.Span) {
	start, end := e.buffer.GetBounds()
	e.buffer.RemoveAllTags(start, end)
	for _, r := range tagRanges(spans, e.buffer.GetCharCount()) {
		e.buffer.ApplyTagByName(r.tag, e.buffer.GetIterAtOffset(r.start), e.buffer.GetIterAtOffset(r.end))
	}
}

// OnChange sets the callback run with the new text after each edit.
func (e *CodeEditor) OnChange(fn func(text string)) {
	e.onChange = fn
}

func (e *CodeEditor) onChanged() {
	e.updateGutter()
	if e.onChange != nil {
		e.onChange(e.Text())
	}
}

func (e *CodeEditor) updateGutter() {
	n := e.buffer.GetLineCount()
	if n == e.lines {
		return
	}
	e.lines = n
	if gb, err := e.gutter.GetBuffer(); err == nil {
		gb.SetText(gutterText(n))
	}
}

// onKeyPress turns Tab into spaces up to the next tab stop and keeps the
// current line's indentation on Enter.
func (e *CodeEditor) onKeyPress(tv *gtk.TextView, ev *gdk.Event) bool {
	key := gdk.EventKeyNewFromEvent(ev)
	state := key.State()
	if state&uint(gdk.CONTROL_MASK|gdk.MOD1_MASK|gdk.SUPER_MASK) != 0 {
		return false
	}
	switch key.KeyVal() {
	case gdk.KEY_Tab:
		_, col := e.CaretLineCol()
		e.buffer.InsertAtCursor(strings.Repeat(" ", e.tabWidth-(col-1)%e.tabWidth))
		return true
	case gdk.KEY_Return, gdk.KEY_KP_Enter:
		iter := e.buffer.GetIterAtMark(e.buffer.GetInsert())
		line := iter.GetLine()
		lineStart := e.buffer.GetIterAtLine(line)
		prefix, err := e.buffer.GetText(lineStart, iter, false)
		if err != nil {
			return false
		}
		indent := prefix[:len(prefix)-len(strings.TrimLeft(prefix, " \t"))]
		e.buffer.InsertAtCursor("\n" + indent)
		e.view.ScrollToMark(e.buffer.GetInsert(), 0, false, 0, 0)
		return true
	}
	return false
}
