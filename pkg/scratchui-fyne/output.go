package scratchuifyne

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/phroun/kscratch/pkg/output"
)

// OutputList shows the run's output lines. Diagnostic lines are drawn in
// the danger colour and jump to their location when selected.
type OutputList struct {
	widget.BaseWidget

	log  *output.Log
	list *widget.List
}

// NewOutputList creates an empty output pane.
func NewOutputList() *OutputList {
	o := &OutputList{log: output.NewLog()}
	o.list = widget.NewList(
		func() int { return o.log.Len() },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.TextStyle = fyne.TextStyle{Monospace: true}
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= o.log.Len() {
				return
			}
			e := o.log.At(id)
			l := obj.(*widget.Label)
			l.Text = e.Text
			l.Importance = widget.MediumImportance
			if e.Kind == output.Diagnostic {
				l.Importance = widget.DangerImportance
			}
			l.Refresh()
		},
	)
	o.list.OnSelected = func(id widget.ListItemID) {
		o.list.Unselect(id)
		o.log.Activate(id)
	}
	o.log.OnAppend = func(int) {
		o.list.Refresh()
		o.list.ScrollToBottom()
	}
	o.log.OnClear = func() {
		o.list.UnselectAll()
		o.list.ScrollToTop()
		o.list.Refresh()
	}
	o.ExtendBaseWidget(o)
	return o
}

func (o *OutputList) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(o.list)
}

// Clear removes all lines.
func (o *OutputList) Clear() {
	o.log.Clear()
}

// AppendPlain adds an inert line.
func (o *OutputList) AppendPlain(text string) {
	o.log.AppendPlain(text)
}

// AppendDiagnostic adds a line that calls onActivate when selected.
func (o *OutputList) AppendDiagnostic(text string, onActivate func()) {
	o.log.AppendDiagnostic(text, onActivate)
}

// Activate behaves as if line i had been selected.
func (o *OutputList) Activate(i int) bool {
	return o.log.Activate(i)
}

// Log exposes the underlying entries.
func (o *OutputList) Log() *output.Log {
	return o.log
}
