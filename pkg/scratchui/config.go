// Package scratchui provides shared functionality for the kscratch GUI
// hosts: configuration, theme selection, fonts and the highlight
// palette. It contains no toolkit code; the Fyne and GTK hosts build on
// it.
package scratchui

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/phroun/kscratch/pkg/runner"
	"github.com/phroun/kscratch/pkg/session"
)

// Window and control labels.
const (
	WindowTitle = "Kotlin Script Runner"
	RunLabel    = "Run"
	StopLabel   = "Stop"
)

// Default font settings
const DefaultFontSize = 14

// ThemeMode represents the GUI theme setting
type ThemeMode string

const (
	ThemeAuto  ThemeMode = "auto"  // Follow OS preference
	ThemeDark  ThemeMode = "dark"  // Force dark theme
	ThemeLight ThemeMode = "light" // Force light theme
)

// IsDark resolves the mode against the desktop's preference.
func (m ThemeMode) IsDark(systemDark bool) bool {
	switch m {
	case ThemeDark:
		return true
	case ThemeLight:
		return false
	default:
		return systemDark
	}
}

// GetDefaultFont returns the best monospace font for the current platform.
// Includes cross-platform fallbacks so config files can be shared between OS.
func GetDefaultFont() string {
	switch runtime.GOOS {
	case "darwin":
		return "Menlo, JetBrains Mono, SF Mono, Monaco, Courier New"
	case "windows":
		return "Cascadia Mono, Consolas, JetBrains Mono, Courier New"
	default:
		return "JetBrains Mono, DejaVu Sans Mono, Liberation Mono, monospace"
	}
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int               `mapstructure:"config_version" yaml:"config_version"`
	Interpreter   InterpreterConfig `mapstructure:"interpreter" yaml:"interpreter"`
	Script        ScriptConfig      `mapstructure:"script" yaml:"script"`
	Runner        RunnerConfig      `mapstructure:"runner" yaml:"runner"`
	UI            UIConfig          `mapstructure:"ui" yaml:"ui"`
}

// InterpreterConfig describes the external command that runs scripts.
type InterpreterConfig struct {
	Command string   `mapstructure:"command" yaml:"command"`
	Args    []string `mapstructure:"args" yaml:"args"`
	Env     []string `mapstructure:"env" yaml:"env"` // KEY=VALUE
	EnvFile string   `mapstructure:"env_file" yaml:"env_file"`
	Dir     string   `mapstructure:"dir" yaml:"dir"`
}

// ScriptConfig controls the scratch script file.
type ScriptConfig struct {
	Filename     string `mapstructure:"filename" yaml:"filename"`
	DeleteOnExit bool   `mapstructure:"delete_on_exit" yaml:"delete_on_exit"`
}

// RunnerConfig tunes output streaming.
type RunnerConfig struct {
	LineBuffer   int `mapstructure:"line_buffer" yaml:"line_buffer"`
	MaxLineBytes int `mapstructure:"max_line_bytes" yaml:"max_line_bytes"`
}

// UIConfig controls the window.
type UIConfig struct {
	Theme       string  `mapstructure:"theme" yaml:"theme"`
	FontFamily  string  `mapstructure:"font_family" yaml:"font_family"`
	FontSize    int     `mapstructure:"font_size" yaml:"font_size"`
	Width       int     `mapstructure:"width" yaml:"width"`
	Height      int     `mapstructure:"height" yaml:"height"`
	SplitOffset float64 `mapstructure:"split_offset" yaml:"split_offset"`
	TabWidth    int     `mapstructure:"tab_width" yaml:"tab_width"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Interpreter: InterpreterConfig{
			Command: runner.DefaultCommand,
			Args:    []string{},
			Env:     []string{},
		},
		Script: ScriptConfig{
			Filename: session.DefaultFilename,
		},
		Runner: RunnerConfig{
			LineBuffer:   runner.DefaultLineBuffer,
			MaxLineBytes: runner.DefaultMaxLineBytes,
		},
		UI: UIConfig{
			Theme:       string(ThemeAuto),
			FontFamily:  GetDefaultFont(),
			FontSize:    DefaultFontSize,
			Width:       800,
			Height:      600,
			SplitOffset: 0.5,
			TabWidth:    4,
		},
	}
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "kscratch"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kscratch"), nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Theme returns the configured GUI theme mode.
func (c Config) Theme() ThemeMode {
	switch ThemeMode(c.UI.Theme) {
	case ThemeDark:
		return ThemeDark
	case ThemeLight:
		return ThemeLight
	}
	return ThemeAuto
}

// RunnerOptions builds the runner options. Variables from env_file are
// applied first; interpreter.env entries override them.
func (c Config) RunnerOptions() (runner.Options, error) {
	env := map[string]string{}
	if c.Interpreter.EnvFile != "" {
		fileEnv, err := godotenv.Read(c.Interpreter.EnvFile)
		if err != nil {
			return runner.Options{}, fmt.Errorf("read interpreter.env_file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for _, pair := range c.Interpreter.Env {
		k, v, _ := strings.Cut(pair, "=")
		env[k] = v
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+env[k])
	}
	return runner.Options{
		Command:      c.Interpreter.Command,
		Args:         append([]string(nil), c.Interpreter.Args...),
		Dir:          c.Interpreter.Dir,
		Env:          pairs,
		LineBuffer:   c.Runner.LineBuffer,
		MaxLineBytes: c.Runner.MaxLineBytes,
	}, nil
}

// SessionOptions fills the configuration-derived part of a session's
// options. The caller supplies the surfaces and the GUISync.
func (c Config) SessionOptions() (session.Options, error) {
	ropts, err := c.RunnerOptions()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Launcher:     session.RunnerLauncher{Runner: runner.New(ropts)},
		ScriptPath:   c.Script.Filename,
		DeleteOnExit: c.Script.DeleteOnExit,
	}, nil
}
