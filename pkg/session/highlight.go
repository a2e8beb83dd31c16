package session

import "github.com/phroun/kscratch/pkg/highlight"

// StyledEditor is an editor surface that takes highlight spans from
// outside and reports user edits.
type StyledEditor interface {
	Editor
	// ApplyStyles replaces the style spans without touching text or
	// caret. It is safe to call from the OnChange callback.
	ApplyStyles(spans []highlight.Span)
	// OnChange registers the callback run with the new text after each
	// edit that changed the content.
	OnChange(fn func(text string))
}

// BindHighlighting restyles ed after every edit and once immediately.
func BindHighlighting(ed StyledEditor) {
	ed.OnChange(func(text string) {
		ed.ApplyStyles(highlight.Classify(text))
	})
	ed.ApplyStyles(highlight.Classify(ed.Text()))
}
