package scratchuifyne

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/kscratch/pkg/output"
	"github.com/phroun/kscratch/pkg/runner"
	"github.com/phroun/kscratch/pkg/scratchui"
	"github.com/phroun/kscratch/pkg/session"
	"github.com/phroun/kscratch/pkg/session/sessiontest"
)

type windowHarness struct {
	w      *Window
	queue  *session.Queue
	script string
}

func newWindowHarness(t *testing.T, launcher session.Launcher, text string) *windowHarness {
	t.Helper()
	test.NewTempApp(t)
	cfg := scratchui.DefaultConfig()
	cfg.Script.Filename = filepath.Join(t.TempDir(), "script.kts")
	q := session.NewQueue()
	w, err := NewWindow(fyne.CurrentApp(), Options{
		Config:   cfg,
		Text:     text,
		Launcher: launcher,
		GUISync:  q,
	})
	require.NoError(t, err)
	t.Cleanup(w.Session().Close)
	return &windowHarness{w: w, queue: q, script: cfg.Script.Filename}
}

func (h *windowHarness) waitIdle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.queue.RunUntil(ctx, func() bool { return !h.w.Running() }))
}

func TestWindowStartsReady(t *testing.T) {
	h := newWindowHarness(t, sessiontest.NewLauncher(), "")
	assert.Equal(t, session.StatusReady, h.w.Status())
	assert.False(t, h.w.Running())
	assert.True(t, h.w.stopBtn.Disabled())
	assert.Equal(t, scratchui.WindowTitle, h.w.Window().Title())
}

func TestWindowRunShowsOutputAndJumps(t *testing.T) {
	launcher := sessiontest.NewLauncher(sessiontest.Transcript{
		Lines: []string{
			"compiling",
			"script.kts:2:5: error: unresolved reference: nope",
		},
		Result: runner.Result{Outcome: runner.ExitedNormally, ExitCode: 1},
	})
	h := newWindowHarness(t, launcher, "println(1)\nval xyz = nope")

	h.w.Run()
	assert.True(t, h.w.Running())
	assert.False(t, h.w.stopBtn.Disabled())
	h.waitIdle(t)

	assert.Equal(t, session.FinishedStatus(1), h.w.Status())
	data, err := os.ReadFile(h.script)
	require.NoError(t, err)
	assert.Equal(t, "println(1)\nval xyz = nope", string(data))

	entries := h.w.Output().Log().Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, output.Plain, entries[0].Kind)
	assert.Equal(t, output.Diagnostic, entries[1].Kind)

	assert.False(t, h.w.Output().Activate(0))
	require.True(t, h.w.Output().Activate(1))
	line, col := h.w.Editor().CaretLineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 5, col)
}

func TestWindowStopFromEditor(t *testing.T) {
	launcher := sessiontest.NewLauncher(sessiontest.Transcript{Lines: []string{"tick"}, Hold: true})
	h := newWindowHarness(t, launcher, "while (true) {}")

	h.w.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.queue.RunUntil(ctx, func() bool { return h.w.Output().Log().Len() == 1 }))

	h.w.Editor().view.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEscape})
	assert.Equal(t, session.StatusStopped, h.w.Status())
	h.waitIdle(t)
	assert.Equal(t, session.FinishedStatus(143), h.w.Status())
	assert.Len(t, launcher.Launches(), 1)
}

func TestWindowRunIgnoredWhileRunning(t *testing.T) {
	launcher := sessiontest.NewLauncher(sessiontest.Transcript{Hold: true})
	h := newWindowHarness(t, launcher, "")

	h.w.Run()
	h.w.Run()
	assert.Len(t, launcher.Launches(), 1)
	h.w.Stop()
	h.waitIdle(t)
}
