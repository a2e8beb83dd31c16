// Package output is the toolkit-independent model behind the output
// pane: an append-only list of plain and activatable diagnostic entries.
package output

// Kind discriminates an Entry.
type Kind int

const (
	Plain Kind = iota
	Diagnostic
)

// Entry is one rendered output line. Entries never change after they
// are appended.
type Entry struct {
	Kind       Kind
	Text       string
	onActivate func()
}

// Activatable reports whether the entry reacts to activation.
func (e Entry) Activatable() bool {
	return e.Kind == Diagnostic && e.onActivate != nil
}

// Log holds the entries of the current run. It belongs to the UI thread.
type Log struct {
	entries []Entry
	// OnAppend, if set, is called after each append with the new entry's
	// index. OnClear is called after Clear.
	OnAppend func(index int)
	OnClear  func()
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.entries = nil
	if l.OnClear != nil {
		l.OnClear()
	}
}

// AppendPlain appends a plain text entry.
func (l *Log) AppendPlain(text string) {
	l.append(Entry{Kind: Plain, Text: text})
}

// AppendDiagnostic appends an entry that calls onActivate when
// activated.
func (l *Log) AppendDiagnostic(text string, onActivate func()) {
	l.append(Entry{Kind: Diagnostic, Text: text, onActivate: onActivate})
}

func (l *Log) append(e Entry) {
	l.entries = append(l.entries, e)
	if l.OnAppend != nil {
		l.OnAppend(len(l.entries) - 1)
	}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// At returns entry i. It panics if i is out of range, like a slice.
func (l *Log) At(i int) Entry {
	return l.entries[i]
}

// Entries returns a copy of all entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Activate runs the activation callback of entry i and reports whether
// there was one. Out-of-range indexes are ignored.
func (l *Log) Activate(i int) bool {
	if i < 0 || i >= len(l.entries) {
		return false
	}
	e := l.entries[i]
	if !e.Activatable() {
		return false
	}
	e.onActivate()
	return true
}

// Text joins all entries with newlines, for copying the pane.
func (l *Log) Text() string {
	n := 0
	for _, e := range l.entries {
		n += len(e.Text) + 1
	}
	buf := make([]byte, 0, n)
	for i, e := range l.entries {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, e.Text...)
	}
	return string(buf)
}
