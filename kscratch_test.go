package kscratch_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/kscratch"
	"github.com/phroun/kscratch/pkg/output"
	"github.com/phroun/kscratch/pkg/session/sessiontest"
)

func TestFacade(t *testing.T) {
	d := kscratch.ParseDiagnostic("script.kts:3:9: error: expecting ')'")
	assert.True(t, d.IsDiagnostic())
	assert.Equal(t, 3, d.Line)
	assert.Equal(t, 9, d.Column)

	assert.NotEmpty(t, kscratch.Classify("val x = 1"))
	assert.Equal(t, kscratch.DefaultConfig(), kscratch.DefaultConfig())
}

type textEditor string

func (e textEditor) Text() string         { return string(e) }
func (e textEditor) MoveCaretTo(int, int) {}

type statusView struct {
	status string
}

func (v *statusView) SetStatus(status string) { v.status = status }
func (v *statusView) SetRunning(bool)         {}

func TestHeadlessSessionOnQueue(t *testing.T) {
	lines := []string{"1", "2", "3", "4", "5", "6", "7"}
	queue := kscratch.NewQueue()
	out := output.NewLog()
	view := &statusView{}
	s, err := kscratch.NewSession(kscratch.SessionOptions{
		Editor:     textEditor(`println("x")`),
		Output:     out,
		View:       view,
		GUISync:    queue,
		Launcher:   sessiontest.NewLauncher(sessiontest.Transcript{Lines: lines}),
		ScriptPath: filepath.Join(t.TempDir(), "script.kts"),
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Run())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, queue.RunUntil(ctx, func() bool { return s.State() == kscratch.Idle }))

	assert.Equal(t, len(lines), out.Len())
	assert.Equal(t, "Finished with exit code: 0", view.status)
}
