package scratchuigtk

import (
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"

	"github.com/phroun/kscratch/pkg/output"
	"github.com/phroun/kscratch/pkg/scratchui"
)

// OutputList shows the run's output, one ListBox row per line. Activating
// a diagnostic row jumps to its location.
type OutputList struct {
	log     *output.Log
	list    *gtk.ListBox
	scroll  *gtk.ScrolledWindow
	rows    []*gtk.ListBoxRow
	palette scratchui.Palette
}

// NewOutputList creates an empty output pane.
func NewOutputList(palette scratchui.Palette) (*OutputList, error) {
	o := &OutputList{log: output.NewLog(), palette: palette}

	var err error
	o.list, err = gtk.ListBoxNew()
	if err != nil {
		return nil, err
	}
	o.list.SetSelectionMode(gtk.SELECTION_NONE)
	o.list.SetActivateOnSingleClick(true)
	if ctx, err := o.list.GetStyleContext(); err == nil {
		ctx.AddClass("kscratch-output")
	}
	o.list.Connect("row-activated", func(lb *gtk.ListBox, row *gtk.ListBoxRow) {
		o.log.Activate(row.GetIndex())
	})

	o.scroll, err = gtk.ScrolledWindowNew(nil, nil)
	if err != nil {
		return nil, err
	}
	o.scroll.SetPolicy(gtk.POLICY_AUTOMATIC, gtk.POLICY_AUTOMATIC)
	o.scroll.SetHExpand(true)
	o.scroll.SetVExpand(true)
	o.scroll.Add(o.list)

	o.log.OnAppend = o.addRow
	o.log.OnClear = o.removeRows
	return o, nil
}

// Widget returns the container to pack into a window.
func (o *OutputList) Widget() gtk.IWidget {
	return o.scroll
}

// Clear removes all lines.
func (o *OutputList) Clear() {
	o.log.Clear()
}

// AppendPlain adds an inert line.
func (o *OutputList) AppendPlain(text string) {
	o.log.AppendPlain(text)
}

// AppendDiagnostic adds a line that calls onActivate when activated.
func (o *OutputList) AppendDiagnostic(text string, onActivate func()) {
	o.log.AppendDiagnostic(text, onActivate)
}

// Log exposes the underlying entries.
func (o *OutputList) Log() *output.Log {
	return o.log
}

func (o *OutputList) addRow(index int) {
	e := o.log.At(index)
	label, err := gtk.LabelNew("")
	if err != nil {
		return
	}
	label.SetXAlign(0)
	label.SetSelectable(false)
	label.SetMarkup(entryMarkup(e, o.palette))

	row, err := gtk.ListBoxRowNew()
	if err != nil {
		return
	}
	row.SetActivatable(e.Activatable())
	row.Add(label)
	o.list.Add(row)
	row.ShowAll()
	o.rows = append(o.rows, row)

	// The adjustment's upper bound grows after the next layout pass.
	glib.IdleAdd(func() {
		adj := o.scroll.GetVAdjustment()
		adj.SetValue(adj.GetUpper() - adj.GetPageSize())
	})
}

func (o *OutputList) removeRows() {
	for _, row := range o.rows {
		o.list.Remove(row)
	}
	o.rows = nil
}
