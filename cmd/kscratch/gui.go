package main

import (
	"context"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/sqweek/dialog"

	"pkt.systems/pslog"

	"github.com/phroun/kscratch/pkg/runstats"
	"github.com/phroun/kscratch/pkg/scratchui"
	scratchuifyne "github.com/phroun/kscratch/pkg/scratchui-fyne"
	"github.com/phroun/kscratch/pkg/session"
)

const appID = "io.github.phroun.kscratch"

func newGUICmd(opts *rootOptions) *cobra.Command {
	var metricsFile string
	cmd := &cobra.Command{
		Use:   "gui [file]",
		Short: "Open the scratchpad window (default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runGUI(cmd.Context(), opts.configPath, metricsFile, args); err != nil {
				// There may be no terminal to read the log.
				dialog.Message("%s", err.Error()).Title(scratchui.WindowTitle).Error()
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus run statistics to this file on exit")
	return cmd
}

func runGUI(ctx context.Context, configPath, metricsFile string, args []string) error {
	logger := pslog.Ctx(ctx)
	cfg, err := scratchui.Load(configPath)
	if err != nil {
		return err
	}
	text := ""
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		text = string(data)
	}

	var stats *runstats.Stats
	var observer session.Observer
	if metricsFile != "" {
		stats = runstats.New()
		observer = stats
	}

	a := app.NewWithID(appID)
	w, err := scratchuifyne.NewWindow(a, scratchuifyne.Options{
		Config:   cfg,
		Text:     text,
		Observer: observer,
		Context:  ctx,
	})
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		fyne.Do(a.Quit)
	}()

	logger.Info("window open", "script", cfg.Script.Filename, "interpreter", cfg.Interpreter.Command)
	w.ShowAndRun()
	w.Session().Close()

	if stats != nil {
		if err := stats.WriteTextfile(metricsFile); err != nil {
			return err
		}
		logger.Info("metrics written", "path", metricsFile)
	}
	return nil
}
