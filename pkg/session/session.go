// Package session ties the editor, the runner and the output pane into
// one edit-run-display cycle.
//
// A Session is confined to the GUI thread: Run, Stop, Close and every
// query must be called there. Each run gets one background goroutine
// that drains the interpreter's lines and posts them, followed by the
// terminal result, through the session's GUISync.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"pkt.systems/pslog"

	"github.com/phroun/kscratch/pkg/diagnostic"
	"github.com/phroun/kscratch/pkg/runner"
)

// Status strings shown by hosts.
const (
	StatusReady     = "Ready"
	StatusRunning   = "Running..."
	StatusStopped   = "Process stopped"
	StatusError     = "Error detected in script"
	statusFinished  = "Finished with exit code: %d"
	statusUnable    = "Unable to run: %s"
	DefaultFilename = "script.kts"
)

var (
	ErrRunning = errors.New("session: a script is already running")
	ErrClosed  = errors.New("session: closed")

	// ErrDirectSync is returned by New for a DirectSync: session events
	// are posted from a background goroutine and must be run elsewhere.
	ErrDirectSync = errors.New("session: DirectSync cannot run session events; use a Queue or the toolkit's post function")
)

// FinishedStatus renders the status for a run that exited with code.
func FinishedStatus(code int) string {
	return fmt.Sprintf(statusFinished, code)
}

// UnableStatus renders the status for a run that could not start.
func UnableStatus(message string) string {
	return fmt.Sprintf(statusUnable, message)
}

// Editor is the part of the editor pane the session needs.
type Editor interface {
	Text() string
	MoveCaretTo(line, col int)
}

// Output is the output pane. output.Log implements it.
type Output interface {
	Clear()
	AppendPlain(text string)
	AppendDiagnostic(text string, onActivate func())
}

// View receives status and button state changes. SetRunning(true)
// disables Run and enables Stop; SetRunning(false) does the opposite.
type View interface {
	SetStatus(status string)
	SetRunning(running bool)
}

// Observer is told about each run's lifecycle on the GUI thread.
type Observer interface {
	RunStarted()
	LineObserved(entry diagnostic.Entry)
	RunFinished(result runner.Result)
}

// State is the session's run state.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Options configures a Session. Editor, Output, View and GUISync are
// required.
type Options struct {
	Editor  Editor
	Output  Output
	View    View
	GUISync GUISync

	Launcher     Launcher // default: RunnerLauncher with default options
	ScriptPath   string   // default: "script.kts" in the working directory
	DeleteOnExit bool     // remove the script file once the child has exited
	Observer     Observer // optional
	// Context scopes every run and carries the logger. Close cancels a
	// context derived from it.
	Context context.Context
}

// Session owns the script file and at most one running process.
type Session struct {
	opts   Options
	parser *diagnostic.Parser
	log    pslog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state         State
	current       Process
	stopRequested bool
	closed        bool
	last          runner.Result
	hasLast       bool
}

// New creates an idle session and shows the ready status.
func New(opts Options) (*Session, error) {
	if opts.Editor == nil || opts.Output == nil || opts.View == nil {
		return nil, errors.New("session: editor, output and view are required")
	}
	switch opts.GUISync.(type) {
	case nil:
		return nil, errors.New("session: GUISync is required")
	case DirectSync, *DirectSync:
		return nil, ErrDirectSync
	}
	if opts.Launcher == nil {
		opts.Launcher = RunnerLauncher{}
	}
	if opts.ScriptPath == "" {
		opts.ScriptPath = DefaultFilename
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	ctx, cancel := context.WithCancel(opts.Context)
	s := &Session{
		opts:   opts,
		parser: diagnostic.NewParser(filepath.Ext(opts.ScriptPath)),
		log:    pslog.Ctx(opts.Context).With("script", opts.ScriptPath),
		ctx:    ctx,
		cancel: cancel,
	}
	opts.View.SetStatus(StatusReady)
	opts.View.SetRunning(false)
	return s, nil
}

// State returns Idle or Running.
func (s *Session) State() State {
	return s.state
}

// ScriptPath returns the script file path as configured.
func (s *Session) ScriptPath() string {
	return s.opts.ScriptPath
}

// LastResult returns the terminal result of the most recent run, if any
// run has finished.
func (s *Session) LastResult() (runner.Result, bool) {
	return s.last, s.hasLast
}

// Run writes the editor text to the script file and starts the
// interpreter. It is only permitted while Idle. A script file that
// cannot be written is reported like any other start failure and leaves
// the session Idle.
func (s *Session) Run() error {
	if s.closed {
		return ErrClosed
	}
	if s.state != Idle {
		return ErrRunning
	}

	text := s.opts.Editor.Text()
	if err := os.WriteFile(s.opts.ScriptPath, []byte(text), 0o644); err != nil {
		s.log.Warn("write script failed", "err", err)
		res := runner.Result{
			Outcome:  runner.StartFailed,
			ExitCode: -1,
			Message:  writeFailureMessage(err),
			Err:      err,
		}
		s.opts.Output.Clear()
		if s.opts.Observer != nil {
			s.opts.Observer.RunStarted()
		}
		s.complete(res)
		return nil
	}

	proc := s.opts.Launcher.Launch(s.ctx, s.opts.ScriptPath)
	s.current = proc
	s.state = Running
	s.stopRequested = false
	s.opts.Output.Clear()
	s.opts.View.SetStatus(StatusRunning)
	s.opts.View.SetRunning(true)
	if s.opts.Observer != nil {
		s.opts.Observer.RunStarted()
	}
	s.log.Info("run started", "run", proc.ID(), "bytes", len(text))

	go s.pump(proc)
	return nil
}

// Stop asks the running interpreter to terminate. Only the first call
// during a run has any effect; it reports whether this call did. The
// session stays Running until the terminal result arrives.
func (s *Session) Stop() bool {
	if s.state != Running || s.stopRequested {
		return false
	}
	s.stopRequested = true
	s.current.Cancel()
	s.opts.View.SetStatus(StatusStopped)
	s.log.Info("stop requested", "run", s.current.ID())
	return true
}

// Close cancels a running interpreter and releases the session. Events
// still in flight are dropped. Close is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	proc := s.current
	s.current = nil
	if proc != nil {
		proc.Cancel()
	}
	s.cancel()
	if !s.opts.DeleteOnExit {
		return
	}
	if proc == nil {
		s.removeScript()
		return
	}
	go func() {
		<-proc.Done()
		s.removeScript()
	}()
}

// pump forwards one process's lines and result to the GUI thread. It
// waits for each post to run so the process cannot outpace the GUI.
func (s *Session) pump(proc Process) {
	for line := range proc.Lines() {
		line := line
		if !s.post(func() { s.handleLine(proc, line) }) {
			return
		}
	}
	select {
	case <-proc.Done():
	case <-s.ctx.Done():
		return
	}
	res := proc.Result()
	s.post(func() { s.handleResult(proc, res) })
}

func (s *Session) post(fn func()) bool {
	done := s.opts.GUISync.RunOnGUIThread(fn)
	select {
	case <-done:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Session) handleLine(proc Process, line string) {
	if proc != s.current {
		return
	}
	entry := s.parser.Parse(line)
	if entry.IsDiagnostic() {
		row, col := entry.Line, entry.Column
		s.opts.Output.AppendDiagnostic(line, func() {
			s.opts.Editor.MoveCaretTo(row, col)
		})
	} else {
		s.opts.Output.AppendPlain(line)
	}
	if diagnostic.ContainsErrorMarker(line) {
		s.opts.View.SetStatus(StatusError)
	}
	if s.opts.Observer != nil {
		s.opts.Observer.LineObserved(entry)
	}
}

func (s *Session) handleResult(proc Process, res runner.Result) {
	if proc != s.current {
		return
	}
	s.current = nil
	log := s.log.With("run", proc.ID())
	switch res.Outcome {
	case runner.StartFailed:
		log.Warn("run could not start", "err", res.Err)
	case runner.ReadAborted:
		log.Warn("run output aborted", "exit_code", res.ExitCode, "err", res.Err)
	default:
		log.Info("run finished", "exit_code", res.ExitCode, "cancelled", res.Cancelled, "duration", res.Duration)
	}
	s.complete(res)
	if s.opts.DeleteOnExit {
		s.removeScript()
	}
}

// complete applies a terminal result and returns to Idle.
func (s *Session) complete(res runner.Result) {
	if res.Outcome == runner.StartFailed {
		status := UnableStatus(res.Message)
		s.opts.Output.AppendPlain(status)
		s.opts.View.SetStatus(status)
	} else {
		s.opts.View.SetStatus(FinishedStatus(res.ExitCode))
	}
	s.state = Idle
	s.stopRequested = false
	s.last = res
	s.hasLast = true
	s.opts.View.SetRunning(false)
	if s.opts.Observer != nil {
		s.opts.Observer.RunFinished(res)
	}
}

func (s *Session) removeScript() {
	err := os.Remove(s.opts.ScriptPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("remove script failed", "err", err)
	}
}

func writeFailureMessage(err error) string {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Sprintf("cannot write %s: %s", pathErr.Path, pathErr.Err)
	}
	return err.Error()
}
