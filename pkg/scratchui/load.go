package scratchui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. KSCRATCH_INTERPRETER_COMMAND.
const EnvPrefix = "KSCRATCH"

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	if explicit {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("interpreter.command", cfg.Interpreter.Command)
	v.SetDefault("interpreter.args", cfg.Interpreter.Args)
	v.SetDefault("interpreter.env", cfg.Interpreter.Env)
	v.SetDefault("interpreter.env_file", cfg.Interpreter.EnvFile)
	v.SetDefault("interpreter.dir", cfg.Interpreter.Dir)
	v.SetDefault("script.filename", cfg.Script.Filename)
	v.SetDefault("script.delete_on_exit", cfg.Script.DeleteOnExit)
	v.SetDefault("runner.line_buffer", cfg.Runner.LineBuffer)
	v.SetDefault("runner.max_line_bytes", cfg.Runner.MaxLineBytes)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("ui.font_family", cfg.UI.FontFamily)
	v.SetDefault("ui.font_size", cfg.UI.FontSize)
	v.SetDefault("ui.width", cfg.UI.Width)
	v.SetDefault("ui.height", cfg.UI.Height)
	v.SetDefault("ui.split_offset", cfg.UI.SplitOffset)
	v.SetDefault("ui.tab_width", cfg.UI.TabWidth)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Interpreter.Command) == "" {
		return fmt.Errorf("interpreter.command must not be empty")
	}
	if strings.TrimSpace(cfg.Script.Filename) == "" {
		return fmt.Errorf("script.filename must not be empty")
	}
	if filepath.Ext(cfg.Script.Filename) == "" {
		return fmt.Errorf("script.filename %q needs a suffix such as .kts", cfg.Script.Filename)
	}
	switch ThemeMode(cfg.UI.Theme) {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("unsupported ui.theme %q; use auto, dark or light", cfg.UI.Theme)
	}
	if cfg.UI.FontSize <= 0 {
		return fmt.Errorf("ui.font_size must be positive")
	}
	if cfg.UI.Width <= 0 || cfg.UI.Height <= 0 {
		return fmt.Errorf("ui.width and ui.height must be positive")
	}
	if cfg.UI.SplitOffset <= 0 || cfg.UI.SplitOffset >= 1 {
		return fmt.Errorf("ui.split_offset must be between 0 and 1")
	}
	if cfg.UI.TabWidth <= 0 {
		return fmt.Errorf("ui.tab_width must be positive")
	}
	for _, pair := range cfg.Interpreter.Env {
		if k, _, ok := strings.Cut(pair, "="); !ok || k == "" {
			return fmt.Errorf("interpreter.env entry %q must look like KEY=VALUE", pair)
		}
	}
	if cfg.Runner.LineBuffer < 0 || cfg.Runner.MaxLineBytes < 0 {
		return fmt.Errorf("runner.line_buffer and runner.max_line_bytes must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Interpreter.Command = expandEnv(cfg.Interpreter.Command)
	cfg.Interpreter.EnvFile = expandEnv(cfg.Interpreter.EnvFile)
	cfg.Interpreter.Dir = expandEnv(cfg.Interpreter.Dir)
	cfg.Script.Filename = expandEnv(cfg.Script.Filename)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		if key == "HOME" {
			if home, err := os.UserHomeDir(); err == nil {
				return home
			}
		}
		return "$" + key
	})
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	data, err := Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
