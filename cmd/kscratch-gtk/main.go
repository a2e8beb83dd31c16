// kscratch-gtk - the Kotlin script scratchpad on GTK 3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	"github.com/sqweek/dialog"

	"pkt.systems/psi"
	"pkt.systems/pslog"

	"github.com/phroun/kscratch/pkg/scratchui"
	scratchuigtk "github.com/phroun/kscratch/pkg/scratchui-gtk"
)

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	configPath := flag.String("config", "", "config file (default $XDG_CONFIG_HOME/kscratch/config.yaml)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kscratch-gtk [-config file] [script.kts]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		return 2
	}

	if err := run(ctx, *configPath, flag.Arg(0)); err != nil {
		logger.With("err", err).Error("kscratch-gtk failed")
		dialog.Message("%s", err.Error()).Title(scratchui.WindowTitle).Error()
		return 1
	}
	return 0
}

func run(ctx context.Context, configPath, scriptPath string) error {
	cfg, err := scratchui.Load(configPath)
	if err != nil {
		return err
	}
	text := ""
	if scriptPath != "" {
		data, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		text = string(data)
	}

	gtk.Init(nil)
	w, err := scratchuigtk.NewWindow(scratchuigtk.Options{Config: cfg, Text: text, Context: ctx})
	if err != nil {
		return err
	}
	w.Window().Connect("destroy", gtk.MainQuit)
	go func() {
		<-ctx.Done()
		glib.IdleAdd(gtk.MainQuit)
	}()

	pslog.Ctx(ctx).Info("window open", "script", cfg.Script.Filename, "interpreter", cfg.Interpreter.Command)
	w.ShowAll()
	gtk.Main()
	return nil
}
