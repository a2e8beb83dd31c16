package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/pslog"

	"github.com/phroun/kscratch/pkg/diagnostic"
	"github.com/phroun/kscratch/pkg/runner"
	"github.com/phroun/kscratch/pkg/runstats"
	"github.com/phroun/kscratch/pkg/scratchui"
	"github.com/phroun/kscratch/pkg/session"
)

const (
	formatText  = "text"
	formatJSONL = "jsonl"

	// exitStartFailed follows the shell's "command not found".
	exitStartFailed = 127
)

type runOptions struct {
	format      string
	metricsFile string
	timeout     time.Duration
	color       string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Run a script without the window and stream its output",
		Long: "Run a script through the same session the window uses. Without an argument the\n" +
			"configured script file is run as it is; '-' reads the script from stdin.\n" +
			"The exit code is the interpreter's.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := scratchui.Load(root.configPath)
			if err != nil {
				return err
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			code, err := runHeadless(cmd.Context(), cfg, source, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
			if err != nil {
				return err
			}
			if code != 0 {
				return exitCodeError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", formatText, "output format: text or jsonl")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus run statistics to this file")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "stop the script after this long (0 = no limit)")
	cmd.Flags().StringVar(&opts.color, "color", "auto", "colour diagnostics: auto, always or never")
	return cmd
}

// readSource returns the script text for a run argument.
func readSource(source, fallback string, stdin io.Reader) (string, error) {
	if source == "" {
		source = fallback
	}
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

// runHeadless drives one session run on the calling goroutine and
// returns the interpreter's exit code.
func runHeadless(ctx context.Context, cfg scratchui.Config, source string, stdin io.Reader, stdout io.Writer, opts *runOptions) (int, error) {
	logger := pslog.Ctx(ctx)
	text, err := readSource(source, cfg.Script.Filename, stdin)
	if err != nil {
		return 0, err
	}

	var (
		out      session.Output = discardOutput{}
		observer session.Observers
	)
	switch opts.format {
	case formatText, "":
		color, err := useColor(opts.color, stdout)
		if err != nil {
			return 0, err
		}
		out = &textOutput{w: stdout, color: color}
	case formatJSONL:
		observer = append(observer, &jsonlObserver{enc: json.NewEncoder(stdout)})
	default:
		return 0, fmt.Errorf("unknown --format %q; use text or jsonl", opts.format)
	}
	var stats *runstats.Stats
	if opts.metricsFile != "" {
		stats = runstats.New()
		observer = append(observer, stats)
	}

	sopts, err := cfg.SessionOptions()
	if err != nil {
		return 0, err
	}
	queue := session.NewQueue()
	view := &statusView{}
	sopts.Editor = staticEditor(text)
	sopts.Output = out
	sopts.View = view
	sopts.GUISync = queue
	sopts.Observer = observer
	// Interrupts stop the child through Stop below; the session must
	// keep delivering events until the run is over.
	sopts.Context = context.WithoutCancel(ctx)
	s, err := session.New(sopts)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	if err := s.Run(); err != nil {
		return 0, err
	}
	idle := func() bool { return s.State() == session.Idle }

	waitCtx := ctx
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	if err := queue.RunUntil(waitCtx, idle); err != nil {
		reason := "interrupted"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		logger.Info("stopping script", "reason", reason)
		s.Stop()
		if err := queue.RunUntil(context.Background(), idle); err != nil {
			return 0, err
		}
	}

	res, _ := s.LastResult()
	if opts.format != formatJSONL {
		logger.Info("run complete", "status", view.status, "script", s.ScriptPath())
	}
	if stats != nil {
		if err := stats.WriteTextfile(opts.metricsFile); err != nil {
			return 0, err
		}
	}
	return exitCode(res), nil
}

func exitCode(res runner.Result) int {
	switch {
	case res.Outcome == runner.StartFailed:
		return exitStartFailed
	case res.ExitCode < 0:
		return 1
	default:
		return res.ExitCode
	}
}

func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("unknown --color %q; use auto, always or never", mode)
	}
}

type staticEditor string

func (e staticEditor) Text() string         { return string(e) }
func (e staticEditor) MoveCaretTo(int, int) {}

type statusView struct {
	status string
}

func (v *statusView) SetStatus(status string) { v.status = status }
func (v *statusView) SetRunning(bool)         {}

type discardOutput struct{}

func (discardOutput) Clear()                          {}
func (discardOutput) AppendPlain(string)              {}
func (discardOutput) AppendDiagnostic(string, func()) {}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// textOutput prints each line as it arrives, diagnostics in red when
// colour is on.
type textOutput struct {
	w     io.Writer
	color bool
}

func (o *textOutput) Clear() {}

func (o *textOutput) AppendPlain(text string) {
	fmt.Fprintln(o.w, text)
}

func (o *textOutput) AppendDiagnostic(text string, _ func()) {
	if o.color {
		fmt.Fprintln(o.w, ansiRed+text+ansiReset)
		return
	}
	fmt.Fprintln(o.w, text)
}

// runEvent is one line of --format jsonl output.
type runEvent struct {
	Type       string  `json:"type"`
	Kind       string  `json:"kind,omitempty"`
	Text       string  `json:"text,omitempty"`
	Line       int     `json:"line,omitempty"`
	Column     int     `json:"column,omitempty"`
	Message    string  `json:"message,omitempty"`
	Outcome    string  `json:"outcome,omitempty"`
	ExitCode   *int    `json:"exit_code,omitempty"`
	Cancelled  bool    `json:"cancelled,omitempty"`
	DurationMS float64 `json:"duration_ms,omitempty"`
}

type jsonlObserver struct {
	enc *json.Encoder
}

func (o *jsonlObserver) RunStarted() {
	_ = o.enc.Encode(runEvent{Type: "start"})
}

func (o *jsonlObserver) LineObserved(e diagnostic.Entry) {
	ev := runEvent{Type: "line", Kind: e.Kind.String(), Text: e.Text}
	if e.IsDiagnostic() {
		ev.Line, ev.Column, ev.Message = e.Line, e.Column, e.Message
	}
	_ = o.enc.Encode(ev)
}

func (o *jsonlObserver) RunFinished(res runner.Result) {
	code := res.ExitCode
	_ = o.enc.Encode(runEvent{
		Type:       "result",
		Outcome:    res.Outcome.String(),
		ExitCode:   &code,
		Message:    res.Message,
		Cancelled:  res.Cancelled,
		DurationMS: float64(res.Duration) / float64(time.Millisecond),
	})
}
