package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"

	"github.com/dshills/panekit/internal/logging"
)

// Config holds panekit settings.
type Config struct {
	// Shell is the program started in a pane.
	Shell string `toml:"shell"`
	// Args are passed to Shell.
	Args []string `toml:"args"`
	// Env is added to the child environment last.
	Env map[string]string `toml:"env"`
	// EnvFile is a dotenv file merged into the child environment.
	EnvFile string `toml:"env_file"`
	// WorkDir is the initial working directory. Empty inherits ours.
	WorkDir string `toml:"workdir"`

	Rows       int `toml:"rows"`
	Cols       int `toml:"cols"`
	Scrollback int `toml:"scrollback"`

	Log LogConfig `toml:"log"`

	// Clipboard names the OSC 52 destination: "osc52", "system" or "memory".
	Clipboard string `toml:"clipboard"`
	// Term is exported to the child as TERM.
	Term string `toml:"term"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Logging converts the settings to a logger configuration.
func (c LogConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Level)
	if f, err := logging.ParseFormat(c.Format); err == nil {
		cfg.Format = f
	}
	return cfg
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Shell:      defaultShell(),
		Rows:       24,
		Cols:       80,
		Scrollback: 10000,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Term: "xterm-256color",
	}
}

func defaultShell() string {
	if runtime.GOOS == "windows" {
		if s := os.Getenv("COMSPEC"); s != "" {
			return s
		}
		return "cmd.exe"
	}
	if s := os.Getenv("SHELL"); s != "" {
		return s
	}
	return "/bin/sh"
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "panekit", "config.toml")
}

// Load reads settings from path over the defaults and applies environment
// overrides. An empty path or a missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return c.parse(path, data)
}

func (c *Config) parse(source string, data []byte) error {
	if err := toml.Unmarshal(data, c); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return pe
	}
	return nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Shell) == "" {
		return invalid("shell", "must not be empty")
	}
	if c.Rows <= 0 || c.Rows > 0xFFFF {
		return invalid("rows", "%d out of range", c.Rows)
	}
	if c.Cols <= 0 || c.Cols > 0xFFFF {
		return invalid("cols", "%d out of range", c.Cols)
	}
	if c.Scrollback < 0 {
		return invalid("scrollback", "%d is negative", c.Scrollback)
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return invalid("log.level", "%q unknown", c.Log.Level)
		}
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return invalid("log.format", "%q unknown", c.Log.Format)
	}
	switch strings.ToLower(c.Clipboard) {
	case "", "osc52", "system", "memory":
	default:
		return invalid("clipboard", "%q unknown", c.Clipboard)
	}
	return nil
}

// Environment returns the child environment as KEY=value pairs, sorted by
// key. It starts from the parent environment, then merges EnvFile, then
// Env, and finally sets TERM when Term is set.
func (c *Config) Environment() ([]string, error) {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}

	if c.EnvFile != "" {
		file, err := godotenv.Read(c.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", c.EnvFile, err)
		}
		maps.Copy(env, file)
	}
	maps.Copy(env, c.Env)
	if c.Term != "" {
		env["TERM"] = c.Term
	}

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out, nil
}
