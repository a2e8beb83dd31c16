//go:build !windows
// +build !windows

package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript stores a POSIX shell script that /bin/sh will run in place
// of the Kotlin interpreter.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.kts")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func shRunner(opts Options) *Runner {
	opts.Command = "/bin/sh"
	return New(opts)
}

func collect(t *testing.T, run *Run) ([]string, Result) {
	t.Helper()
	var lines []string
	deadline := time.After(10 * time.Second)
	for {
		select {
		case line, ok := <-run.Lines():
			if !ok {
				select {
				case <-run.Done():
					return lines, run.Result()
				case <-deadline:
					t.Fatal("run did not terminate")
				}
			}
			lines = append(lines, line)
		case <-deadline:
			t.Fatal("timed out waiting for output")
		}
	}
}

func TestRunnerDefaults(t *testing.T) {
	r := New(Options{})
	opts := r.Options()
	assert.Equal(t, DefaultCommand, opts.Command)
	assert.Equal(t, DefaultLineBuffer, opts.LineBuffer)
	assert.Equal(t, DefaultMaxLineBytes, opts.MaxLineBytes)
}

func TestRunHello(t *testing.T) {
	path := writeScript(t, "echo hello\n")
	run := shRunner(Options{}).Start(context.Background(), path)

	lines, res := collect(t, run)
	assert.Equal(t, []string{"hello"}, lines)
	assert.Equal(t, ExitedNormally, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Cancelled)
	assert.Equal(t, Terminated, run.State())
	assert.False(t, run.IsRunning())
	assert.True(t, filepath.IsAbs(run.ScriptPath()))
}

func TestRunMergesStderrInOrder(t *testing.T) {
	path := writeScript(t, "echo one\necho two >&2\necho three\nexit 3\n")
	lines, res := collect(t, shRunner(Options{}).Start(context.Background(), path))
	assert.Equal(t, []string{"one", "two", "three"}, lines)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, ExitedNormally, res.Outcome)
}

func TestRunSplitsOnAnyTerminator(t *testing.T) {
	path := writeScript(t, `printf 'a\rb\r\nc\nd\n\ne'`+"\n")
	lines, _ := collect(t, shRunner(Options{}).Start(context.Background(), path))
	assert.Equal(t, []string{"a", "b", "c", "d", "", "e"}, lines)
}

func TestRunPassesArgsEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, `echo "$KSCRATCH_TEST" && pwd`+"\n")
	r := New(Options{
		Command: "/bin/sh",
		Args:    []string{"-e"},
		Env:     []string{"KSCRATCH_TEST=from-env"},
		Dir:     dir,
	})
	lines, res := collect(t, r.Start(context.Background(), path))
	require.Len(t, lines, 2)
	assert.Equal(t, "from-env", lines[0])
	wantDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotDir, err := filepath.EvalSymlinks(lines[1])
	require.NoError(t, err)
	assert.Equal(t, wantDir, gotDir)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunStartFailed(t *testing.T) {
	r := New(Options{Command: "kscratch-no-such-interpreter"})
	run := r.Start(context.Background(), writeScript(t, ""))

	lines, res := collect(t, run)
	assert.Empty(t, lines)
	assert.Equal(t, StartFailed, res.Outcome)
	assert.Contains(t, res.Message, "not found on PATH")
	assert.NotContains(t, res.Message, "\n")
	assert.Error(t, res.Err)
	assert.False(t, run.Cancel(), "nothing to cancel after a failed start")
}

func TestRunCancel(t *testing.T) {
	path := writeScript(t, "while true; do echo tick; sleep 0.05; done\n")
	run := shRunner(Options{}).Start(context.Background(), path)

	for i := 0; i < 3; i++ {
		select {
		case line := <-run.Lines():
			require.Equal(t, "tick", line)
		case <-time.After(5 * time.Second):
			t.Fatal("no tick")
		}
	}
	assert.True(t, run.Cancel())
	assert.False(t, run.Cancel(), "second cancel must not signal again")

	_, res := collect(t, run)
	assert.True(t, res.Cancelled)
	assert.NotEqual(t, 0, res.ExitCode)
	assert.False(t, run.Cancel())
}

func TestRunContextCancelStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	path := writeScript(t, "while true; do echo tick; done\n")
	run := shRunner(Options{LineBuffer: 1}).Start(ctx, path)

	<-run.Lines()
	cancel()

	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		// The reader may be parked on a full channel; drain to let it
		// notice the cancellation.
		for range run.Lines() {
		}
		<-run.Done()
	}
	assert.Equal(t, Terminated, run.State())
}

func TestRunReadAbortedWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := writeScript(t, "while true; do echo tick; done\n")
	run := shRunner(Options{LineBuffer: 1}).Start(ctx, path)

	// Nothing reads: once the buffer is full the reader is stuck on the
	// next send.
	require.Eventually(t, func() bool { return len(run.Lines()) == 1 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, Streaming, run.State())
	cancel()

	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not terminate after its context ended")
	}
	res := run.Result()
	assert.Equal(t, ReadAborted, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, Terminated, run.State())
	assert.False(t, run.IsRunning())

	// Only what was buffered before the abort is left, then the stream
	// is closed.
	var rest []string
	for line := range run.Lines() {
		rest = append(rest, line)
	}
	assert.Equal(t, []string{"tick"}, rest)
}

func TestRunWaitsForBackgroundOutput(t *testing.T) {
	path := writeScript(t, "(sleep 0.3; echo late) &\necho hi\nexit 3\n")
	lines, res := collect(t, shRunner(Options{}).Start(context.Background(), path))
	assert.Equal(t, []string{"hi", "late"}, lines, "the pipe stays open while the background job holds it")
	assert.Equal(t, ExitedNormally, res.Outcome)
	assert.Equal(t, 3, res.ExitCode)
	assert.GreaterOrEqual(t, res.Duration, 300*time.Millisecond)
}

func TestRunBackpressure(t *testing.T) {
	path := writeScript(t, "i=0; while [ $i -lt 200 ]; do echo line$i; i=$((i+1)); done\n")
	run := shRunner(Options{LineBuffer: 2}).Start(context.Background(), path)

	// Without a consumer the run cannot reach its terminal event.
	select {
	case <-run.Done():
		t.Fatal("run finished while its output was not being read")
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, Streaming, run.State())

	lines, res := collect(t, run)
	require.Len(t, lines, 200)
	assert.Equal(t, "line0", lines[0])
	assert.Equal(t, "line199", lines[199])
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunLongLinesArrivePieceByPiece(t *testing.T) {
	path := writeScript(t, "printf '%0100d\\n' 0\n")
	lines, res := collect(t, shRunner(Options{MaxLineBytes: 30}).Start(context.Background(), path))
	assert.Equal(t, ExitedNormally, res.Outcome)
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Repeat("0", 100), strings.Join(lines, ""))
}

func TestSplitLinesCRLFAcrossReads(t *testing.T) {
	split := splitLines(0)
	adv, tok, err := split([]byte("abc\r"), false)
	require.NoError(t, err)
	assert.Equal(t, 0, adv, "a trailing CR must wait for the next byte")
	assert.Nil(t, tok)

	adv, tok, err = split([]byte("abc\r\nx"), false)
	require.NoError(t, err)
	assert.Equal(t, 5, adv)
	assert.Equal(t, "abc", string(tok))

	adv, tok, err = split([]byte("abc\r"), true)
	require.NoError(t, err)
	assert.Equal(t, 4, adv)
	assert.Equal(t, "abc", string(tok))
}

func TestStateAndOutcomeNames(t *testing.T) {
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "start_failed", StartFailed.String())
	assert.Equal(t, "read_aborted", ReadAborted.String())
}
