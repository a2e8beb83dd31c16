// Package sessiontest provides a scripted Launcher for testing session
// hosts without an interpreter.
package sessiontest

import (
	"context"
	"fmt"
	"sync"

	"github.com/phroun/kscratch/pkg/runner"
	"github.com/phroun/kscratch/pkg/session"
)

// Transcript is the canned behaviour of one launch.
type Transcript struct {
	Lines  []string
	Result runner.Result
	// Hold keeps the process alive after its lines until it is cancelled.
	Hold bool
}

// Launcher replays transcripts, one per launch. Once they run out the
// last transcript repeats.
type Launcher struct {
	mu          sync.Mutex
	transcripts []Transcript
	launches    []string
}

// NewLauncher returns a Launcher that replays ts in order.
func NewLauncher(ts ...Transcript) *Launcher {
	if len(ts) == 0 {
		ts = []Transcript{{}}
	}
	return &Launcher{transcripts: ts}
}

// Launches returns the script paths passed to Launch so far.
func (l *Launcher) Launches() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.launches...)
}

func (l *Launcher) Launch(ctx context.Context, scriptPath string) session.Process {
	l.mu.Lock()
	n := len(l.launches)
	l.launches = append(l.launches, scriptPath)
	t := l.transcripts[min(n, len(l.transcripts)-1)]
	l.mu.Unlock()

	p := &process{
		id:     fmt.Sprintf("test-%d", n+1),
		lines:  make(chan string),
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}
	go p.play(ctx, t)
	return p
}

type process struct {
	id     string
	lines  chan string
	done   chan struct{}
	cancel chan struct{}
	once   sync.Once

	mu     sync.Mutex
	result runner.Result
}

func (p *process) play(ctx context.Context, t Transcript) {
	res := t.Result
	defer func() {
		p.mu.Lock()
		p.result = res
		p.mu.Unlock()
		close(p.done)
	}()
	defer close(p.lines)

	cancelled := func() {
		res = runner.Result{Outcome: runner.ExitedNormally, ExitCode: 143, Cancelled: true}
	}
	for _, line := range t.Lines {
		select {
		case p.lines <- line:
		case <-p.cancel:
			cancelled()
			return
		case <-ctx.Done():
			cancelled()
			return
		}
	}
	if t.Hold {
		select {
		case <-p.cancel:
		case <-ctx.Done():
		}
		cancelled()
	}
}

func (p *process) ID() string            { return p.id }
func (p *process) Lines() <-chan string  { return p.lines }
func (p *process) Done() <-chan struct{} { return p.done }

func (p *process) Result() runner.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

func (p *process) Cancel() bool {
	first := false
	p.once.Do(func() {
		first = true
		close(p.cancel)
	})
	return first
}
