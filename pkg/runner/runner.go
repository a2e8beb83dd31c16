// Package runner launches the script interpreter as a child process and
// streams its merged stdout and stderr back as whole lines.
//
// A Run moves through Spawning, Streaming, Draining and Terminated. Lines
// arrive on a bounded channel; a slow consumer blocks the reader, which in
// turn blocks the child's writes. Exactly one terminal Result closes every
// run, including runs that never managed to start.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pkt.systems/pslog"
)

const (
	DefaultCommand      = "kotlin"
	DefaultLineBuffer   = 64
	DefaultMaxLineBytes = 1 << 20
)

// Options configures a Runner.
type Options struct {
	Command      string   // Interpreter executable (default: "kotlin")
	Args         []string // Arguments placed before the script path
	Dir          string   // Working directory for the child (default: current dir)
	Env          []string // KEY=VALUE pairs appended to the inherited environment
	LineBuffer   int      // Capacity of the line channel (default: 64)
	MaxLineBytes int      // Longer lines are delivered in pieces (default: 1 MiB)
}

// Runner starts interpreter processes. It holds no per-run state and may
// be shared.
type Runner struct {
	options Options
}

// New creates a Runner, applying defaults to unset options.
func New(opts Options) *Runner {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	if opts.LineBuffer <= 0 {
		opts.LineBuffer = DefaultLineBuffer
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = DefaultMaxLineBytes
	}
	return &Runner{options: opts}
}

// Options returns the effective options.
func (r *Runner) Options() Options {
	return r.options
}

// State is the lifecycle phase of a Run.
type State int

const (
	Spawning State = iota
	Streaming
	Draining
	Terminated
)

func (s State) String() string {
	switch s {
	case Spawning:
		return "spawning"
	case Streaming:
		return "streaming"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome discriminates a terminal Result.
type Outcome int

const (
	ExitedNormally Outcome = iota
	StartFailed
	ReadAborted
)

func (o Outcome) String() string {
	switch o {
	case ExitedNormally:
		return "exited"
	case StartFailed:
		return "start_failed"
	case ReadAborted:
		return "read_aborted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the terminal event of a run.
//
// ExitCode is valid for ExitedNormally and ReadAborted. Message is a
// single user-presentable line for StartFailed. Err holds the underlying
// cause for StartFailed and ReadAborted.
type Result struct {
	Outcome   Outcome
	ExitCode  int
	Message   string
	Err       error
	Cancelled bool
	Duration  time.Duration
}

// Run is one child process. Lines must be drained by a single consumer
// for the run to make progress.
type Run struct {
	id     string
	script string

	lines chan string
	done  chan struct{}

	mu        sync.Mutex
	state     State
	cmd       *exec.Cmd
	cancelled bool
	result    Result
}

var runSeq struct {
	sync.Mutex
	n uint64
}

func nextRunID() string {
	runSeq.Lock()
	defer runSeq.Unlock()
	runSeq.n++
	return fmt.Sprintf("run-%d", runSeq.n)
}

// Start launches the interpreter on scriptPath. It never returns nil: a
// process that cannot be spawned yields a Run whose line channel is
// already closed and whose Result is StartFailed. Cancelling ctx kills
// the child and stops line delivery.
func (r *Runner) Start(ctx context.Context, scriptPath string) *Run {
	run := &Run{
		id:     nextRunID(),
		script: scriptPath,
		lines:  make(chan string, r.options.LineBuffer),
		done:   make(chan struct{}),
	}
	log := pslog.Ctx(ctx).With("run", run.id, "script", scriptPath)
	started := time.Now()

	abs, err := filepath.Abs(scriptPath)
	if err != nil {
		run.fail(log, started, fmt.Errorf("resolve script path: %w", err))
		return run
	}
	run.script = abs

	pr, pw, err := os.Pipe()
	if err != nil {
		run.fail(log, started, fmt.Errorf("create output pipe: %w", err))
		return run
	}

	args := append(append([]string{}, r.options.Args...), abs)
	cmd := exec.CommandContext(ctx, r.options.Command, args...)
	cmd.Dir = r.options.Dir
	if len(r.options.Env) > 0 {
		cmd.Env = append(os.Environ(), r.options.Env...)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	prepareCommand(cmd)

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		run.fail(log, started, err)
		return run
	}
	// The child holds its own copy of the write end; ours must go so the
	// reader sees EOF when the child exits.
	pw.Close()

	run.mu.Lock()
	run.cmd = cmd
	run.state = Streaming
	run.mu.Unlock()
	log.Debug("interpreter started", "command", r.options.Command, "pid", cmd.Process.Pid)

	go run.pump(ctx, log, pr, r.options.MaxLineBytes, started)
	return run
}

func (run *Run) fail(log pslog.Logger, started time.Time, err error) {
	log.Warn("interpreter start failed", "err", err)
	run.mu.Lock()
	run.state = Terminated
	run.result = Result{
		Outcome:  StartFailed,
		ExitCode: -1,
		Message:  startFailureMessage(err),
		Err:      err,
		Duration: time.Since(started),
	}
	run.mu.Unlock()
	close(run.lines)
	close(run.done)
}

// pump is the run's background worker. It reads lines until EOF or a
// read error, then reaps the child and publishes the Result.
//
// EOF needs every holder of the write end gone, so a background
// process the script left behind delays the Result until it exits or
// closes its output, even when the interpreter itself is done. Its
// lines are delivered like the interpreter's. Cancel reaches it through
// the process group.
func (run *Run) pump(ctx context.Context, log pslog.Logger, pr *os.File, maxLine int, started time.Time) {
	readErr := run.readLines(ctx, pr, maxLine)
	close(run.lines)

	run.mu.Lock()
	run.state = Draining
	cmd := run.cmd
	run.mu.Unlock()

	waitErr := cmd.Wait()
	pr.Close()

	res := Result{
		Outcome:  ExitedNormally,
		ExitCode: exitCode(cmd.ProcessState),
		Duration: time.Since(started),
	}
	if readErr != nil {
		res.Outcome = ReadAborted
		res.Err = readErr
		log.Warn("interpreter output aborted", "err", readErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		log.Warn("interpreter wait failed", "err", waitErr)
	}

	run.mu.Lock()
	res.Cancelled = run.cancelled
	run.result = res
	run.state = Terminated
	run.mu.Unlock()
	log.Debug("interpreter finished", "exit_code", res.ExitCode, "outcome", res.Outcome.String(), "cancelled", res.Cancelled)
	close(run.done)
}

func (run *Run) readLines(ctx context.Context, pr *os.File, maxLine int) error {
	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 0, 4096), maxLine+2)
	sc.Split(splitLines(maxLine))
	for sc.Scan() {
		select {
		case run.lines <- sc.Text():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return sc.Err()
}

// ID identifies the run in logs.
func (run *Run) ID() string {
	return run.id
}

// ScriptPath is the absolute path handed to the interpreter.
func (run *Run) ScriptPath() string {
	return run.script
}

// Lines delivers output lines in the order the child wrote them. The
// channel is closed before Done is.
func (run *Run) Lines() <-chan string {
	return run.lines
}

// Done is closed once the Result is available.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Result returns the terminal event. It is the zero Result until Done is
// closed.
func (run *Run) Result() Result {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.result
}

// Wait blocks until the child has been reaped and returns the Result.
// The caller must keep Lines drained, or Wait may never return.
func (run *Run) Wait() Result {
	<-run.done
	return run.Result()
}

// State returns the current lifecycle phase.
func (run *Run) State() State {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.state
}

// IsRunning reports whether the child may still produce output.
func (run *Run) IsRunning() bool {
	s := run.State()
	return s == Streaming || s == Draining
}

// Cancel asks the child to terminate and returns immediately. Only the
// first call on a live child sends a signal; it reports whether this
// call did so.
func (run *Run) Cancel() bool {
	run.mu.Lock()
	defer run.mu.Unlock()
	if run.cancelled || run.cmd == nil || run.state == Terminated {
		return false
	}
	run.cancelled = true
	if err := terminate(run.cmd); err != nil {
		return false
	}
	return true
}

// startFailureMessage renders a spawn error as one line without Go
// package prefixes.
func startFailureMessage(err error) string {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return fmt.Sprintf("interpreter %q not found on PATH", execErr.Name)
		}
		return fmt.Sprintf("cannot execute %q: %s", execErr.Name, oneLine(execErr.Err.Error()))
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fmt.Sprintf("%s: %s", pathErr.Path, oneLine(pathErr.Err.Error()))
	}
	return oneLine(err.Error())
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
