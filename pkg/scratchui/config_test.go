package scratchui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/kscratch/pkg/highlight"
	"github.com/phroun/kscratch/pkg/runner"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600))
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "kotlin", cfg.Interpreter.Command)
	assert.Equal(t, "script.kts", cfg.Script.Filename)
	assert.False(t, cfg.Script.DeleteOnExit)
	assert.Equal(t, ThemeAuto, cfg.Theme())
	assert.Equal(t, DefaultConfig().UI, cfg.UI)
	assert.Equal(t, DefaultConfig().Runner, cfg.Runner)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KSCRATCH_TEST_HOME", "/opt/kotlinc")
	path := writeConfig(t, `
config_version: 1
interpreter:
  command: ${KSCRATCH_TEST_HOME}/bin/kotlin
  args: ["-J-Xmx512m"]
  env: ["JAVA_OPTS=-Xss4m", "MixedCase=kept"]
script:
  filename: scratch.main.kts
  delete_on_exit: true
ui:
  theme: dark
  font_size: 16
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/kotlinc/bin/kotlin", cfg.Interpreter.Command)
	assert.Equal(t, []string{"-J-Xmx512m"}, cfg.Interpreter.Args)
	assert.Equal(t, []string{"JAVA_OPTS=-Xss4m", "MixedCase=kept"}, cfg.Interpreter.Env)
	assert.Equal(t, "scratch.main.kts", cfg.Script.Filename)
	assert.True(t, cfg.Script.DeleteOnExit)
	assert.Equal(t, ThemeDark, cfg.Theme())
	assert.Equal(t, 16, cfg.UI.FontSize)
	assert.Equal(t, 600, cfg.UI.Height, "unset keys keep their defaults")
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("KSCRATCH_INTERPRETER_COMMAND", "/bin/sh")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", cfg.Interpreter.Command)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"config_version is required":   "ui:\n  theme: dark",
		"unsupported config_version":   "config_version: 9",
		"unsupported ui.theme":         "config_version: 1\nui:\n  theme: sepia",
		"ui.split_offset":              "config_version: 1\nui:\n  split_offset: 1.5",
		"needs a suffix":               "config_version: 1\nscript:\n  filename: scratch",
		"must look like KEY=VALUE":     "config_version: 1\ninterpreter:\n  env: [\"NOPE\"]",
		"interpreter.command must not": "config_version: 1\ninterpreter:\n  command: \"\"",
	}
	for want, content := range cases {
		t.Run(want, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	written, err := WriteDefault(path, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	_, err = WriteDefault(path, false)
	assert.Error(t, err, "existing config is not replaced")
	_, err = WriteDefault(path, true)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().UI, cfg.UI, "written defaults load back unchanged")
	assert.Equal(t, DefaultConfig().Script, cfg.Script)
}

func TestRunnerOptionsMergesEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "kotlin.env")
	require.NoError(t, os.WriteFile(envFile, []byte("A=from-file\nB=from-file\n"), 0o600))

	cfg := DefaultConfig()
	cfg.Interpreter.EnvFile = envFile
	cfg.Interpreter.Env = []string{"B=from-config", "C=x=y"}
	cfg.Interpreter.Args = []string{"-nowarn"}
	opts, err := cfg.RunnerOptions()
	require.NoError(t, err)
	assert.Equal(t, []string{"A=from-file", "B=from-config", "C=x=y"}, opts.Env)
	assert.Equal(t, []string{"-nowarn"}, opts.Args)
	assert.Equal(t, runner.DefaultLineBuffer, opts.LineBuffer)

	cfg.Interpreter.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	_, err = cfg.RunnerOptions()
	assert.Error(t, err)
}

func TestSessionOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Script.DeleteOnExit = true
	opts, err := cfg.SessionOptions()
	require.NoError(t, err)
	assert.Equal(t, "script.kts", opts.ScriptPath)
	assert.True(t, opts.DeleteOnExit)
	assert.NotNil(t, opts.Launcher)
}

func TestThemeAndPalette(t *testing.T) {
	assert.True(t, ThemeAuto.IsDark(true))
	assert.False(t, ThemeAuto.IsDark(false))
	assert.True(t, ThemeDark.IsDark(false))
	assert.False(t, ThemeLight.IsDark(true))

	p := PaletteFor(true)
	assert.Equal(t, p.Keyword, p.Style(highlight.Keyword))
	assert.Equal(t, p.Foreground, p.Style(highlight.Plain))
	assert.NotEqual(t, PaletteFor(true).Background, PaletteFor(false).Background)
	assert.Equal(t, "#ffffff", Hex(PaletteFor(false).Background))
	assert.Equal(t, "kscratch-comment", TagName(highlight.Comment))
}
