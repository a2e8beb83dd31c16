// Package kscratch is a scratchpad for Kotlin scripts: an editor with
// syntax highlighting, an interpreter run with streamed output, and
// compiler diagnostics that jump back into the editor.
//
// This package re-exports the host-independent API from pkg/. The GUI
// hosts live in pkg/scratchui-fyne and pkg/scratchui-gtk.
//
// Basic headless usage:
//
//	cfg, _ := kscratch.LoadConfig("")
//	opts, _ := cfg.SessionOptions()
//	queue := kscratch.NewQueue()
//	opts.Editor, opts.Output, opts.View = ed, out, view
//	opts.GUISync = queue
//	s, _ := kscratch.NewSession(opts)
//	s.Run()
//	idle := func() bool { return s.State() == kscratch.Idle }
//	queue.RunUntil(ctx, idle)
//
// The goroutine calling RunUntil plays the UI thread: every session
// event runs there, so State is read without racing the run.
package kscratch

import (
	"github.com/phroun/kscratch/pkg/diagnostic"
	"github.com/phroun/kscratch/pkg/highlight"
	"github.com/phroun/kscratch/pkg/runner"
	"github.com/phroun/kscratch/pkg/scratchui"
	"github.com/phroun/kscratch/pkg/session"
)

// =============================================================================
// SESSION
// =============================================================================

// Session couples the editor, the output pane and one interpreter run.
type Session = session.Session

// SessionOptions configures a Session.
type SessionOptions = session.Options

// Editor, Output and View are the surfaces a host provides.
type (
	Editor       = session.Editor
	StyledEditor = session.StyledEditor
	Output       = session.Output
	View         = session.View
	Observer     = session.Observer
)

// GUISync marshals session events onto the host's UI thread.
type GUISync = session.GUISync

// Queue is a GUISync drained by the goroutine that calls RunUntil.
type Queue = session.Queue

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return session.NewQueue()
}

// Session states.
const (
	Idle    = session.Idle
	Running = session.Running
)

// NewSession validates opts and returns an idle session.
func NewSession(opts SessionOptions) (*Session, error) {
	return session.New(opts)
}

// BindHighlighting restyles ed on every text change.
func BindHighlighting(ed StyledEditor) {
	session.BindHighlighting(ed)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config is the on-disk configuration.
type Config = scratchui.Config

// LoadConfig reads path, or the default location when path is empty.
func LoadConfig(path string) (Config, error) {
	return scratchui.Load(path)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return scratchui.DefaultConfig()
}

// =============================================================================
// INTERPRETER AND DIAGNOSTICS
// =============================================================================

// Runner starts interpreter processes.
type Runner = runner.Runner

// RunnerOptions configures a Runner.
type RunnerOptions = runner.Options

// RunResult is the terminal event of a run.
type RunResult = runner.Result

// NewRunner returns a Runner for opts.
func NewRunner(opts RunnerOptions) *Runner {
	return runner.New(opts)
}

// Diagnostic is one classified output line.
type Diagnostic = diagnostic.Entry

// ParseDiagnostic classifies a line using the default script suffix.
func ParseDiagnostic(line string) Diagnostic {
	return diagnostic.Parse(line)
}

// =============================================================================
// HIGHLIGHTING
// =============================================================================

// Span is a styled code-point range of editor text.
type Span = highlight.Span

// Classify splits text into highlight spans.
func Classify(text string) []Span {
	return highlight.Classify(text)
}
