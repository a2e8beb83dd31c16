package session

import (
	"context"

	"github.com/phroun/kscratch/pkg/runner"
)

// Process is one launched interpreter as the session sees it.
// *runner.Run implements it.
type Process interface {
	ID() string
	Lines() <-chan string
	Done() <-chan struct{}
	Result() runner.Result
	Cancel() bool
}

// Launcher starts the interpreter on a script file. Launch must not
// return nil; failures are reported through the Process result.
type Launcher interface {
	Launch(ctx context.Context, scriptPath string) Process
}

// RunnerLauncher launches processes through a runner.Runner.
type RunnerLauncher struct {
	Runner *runner.Runner
}

func (l RunnerLauncher) Launch(ctx context.Context, scriptPath string) Process {
	r := l.Runner
	if r == nil {
		r = runner.New(runner.Options{})
	}
	return r.Start(ctx, scriptPath)
}
