package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phroun/kscratch/pkg/diagnostic"
	"github.com/phroun/kscratch/pkg/runner"
)

type fakeEditor struct {
	text      string
	line, col int
}

func (e *fakeEditor) Text() string { return e.text }

func (e *fakeEditor) MoveCaretTo(line, col int) {
	e.line, e.col = line, col
}

type recordingView struct {
	statuses []string
	running  []bool
}

func (v *recordingView) SetStatus(status string) {
	v.statuses = append(v.statuses, status)
}

func (v *recordingView) SetRunning(running bool) {
	v.running = append(v.running, running)
}

func (v *recordingView) status() string {
	return v.statuses[len(v.statuses)-1]
}

func (v *recordingView) isRunning() bool {
	return v.running[len(v.running)-1]
}

type fakeProc struct {
	id       string
	lines    chan string
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	result   runner.Result
	cancels  atomic.Int32
	onFinish func()
}

func newFakeProc(id string, buffer int) *fakeProc {
	return &fakeProc{
		id:    id,
		lines: make(chan string, buffer),
		done:  make(chan struct{}),
	}
}

func (p *fakeProc) ID() string            { return p.id }
func (p *fakeProc) Lines() <-chan string  { return p.lines }
func (p *fakeProc) Done() <-chan struct{} { return p.done }
func (p *fakeProc) Cancel() bool          { return p.cancels.Add(1) == 1 }
func (p *fakeProc) exited(code int)       { p.finish(runner.Result{ExitCode: code}) }
func (p *fakeProc) cancelCount() int      { return int(p.cancels.Load()) }

func (p *fakeProc) Result() runner.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// finish closes the line stream and publishes res. Later calls are
// ignored.
func (p *fakeProc) finish(res runner.Result) {
	p.once.Do(func() {
		p.mu.Lock()
		p.result = res
		p.mu.Unlock()
		close(p.lines)
		if p.onFinish != nil {
			p.onFinish()
		}
		close(p.done)
	})
}

// scriptedLauncher replays a fixed transcript for every launch.
type scriptedLauncher struct {
	lines    []string
	result   runner.Result
	launches []string
}

func (l *scriptedLauncher) Launch(ctx context.Context, scriptPath string) Process {
	l.launches = append(l.launches, scriptPath)
	p := newFakeProc(fmt.Sprintf("fake-%d", len(l.launches)), len(l.lines))
	for _, line := range l.lines {
		p.lines <- line
	}
	p.finish(l.result)
	return p
}

// manualLauncher hands out processes the test drives by hand and tracks
// how many are alive at once.
type manualLauncher struct {
	procs   []*fakeProc
	alive   int
	maxLive int
}

func (l *manualLauncher) Launch(ctx context.Context, scriptPath string) Process {
	p := newFakeProc(fmt.Sprintf("manual-%d", len(l.procs)+1), 16)
	l.alive++
	if l.alive > l.maxLive {
		l.maxLive = l.alive
	}
	p.onFinish = func() { l.alive-- }
	l.procs = append(l.procs, p)
	return p
}

func (l *manualLauncher) last() *fakeProc {
	if len(l.procs) == 0 {
		return nil
	}
	return l.procs[len(l.procs)-1]
}

// recordingObserver flattens observed events into strings.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) RunStarted() {
	o.events = append(o.events, "start")
}

func (o *recordingObserver) LineObserved(e diagnostic.Entry) {
	o.events = append(o.events, e.Kind.String()+":"+e.Text)
}

func (o *recordingObserver) RunFinished(res runner.Result) {
	o.events = append(o.events, fmt.Sprintf("end:%s:%d", res.Outcome, res.ExitCode))
}

func runUntilIdle(t *testing.T, q *Queue, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, q.RunUntil(ctx, func() bool { return s.State() == Idle }))
}

type logEntry struct {
	Level   string
	Message string
	Fields  map[string]any
}

type logCapture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *logCapture) Entries() []logEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var entries []logEntry
	for _, line := range bytes.Split(c.buf.Bytes(), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		payload := map[string]any{}
		if err := json.Unmarshal(line, &payload); err != nil {
			continue
		}
		entry := logEntry{Fields: payload}
		if v, ok := payload["level"].(string); ok {
			entry.Level = v
		} else if v, ok := payload["lvl"].(string); ok {
			entry.Level = v
		}
		if v, ok := payload["message"].(string); ok {
			entry.Message = v
		} else if v, ok := payload["msg"].(string); ok {
			entry.Message = v
		}
		entries = append(entries, entry)
	}
	return entries
}
