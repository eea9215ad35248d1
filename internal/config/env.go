package config

import (
	"strconv"
	"strings"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "PANEKIT_"

// envSetters maps an environment variable, without prefix, to the setting
// it overrides.
var envSetters = map[string]func(c *Config, v string) error{
	"SHELL":      func(c *Config, v string) error { c.Shell = v; return nil },
	"ARGS":       func(c *Config, v string) error { c.Args = strings.Fields(v); return nil },
	"ENV_FILE":   func(c *Config, v string) error { c.EnvFile = v; return nil },
	"WORKDIR":    func(c *Config, v string) error { c.WorkDir = v; return nil },
	"ROWS":       intSetter("rows", func(c *Config) *int { return &c.Rows }),
	"COLS":       intSetter("cols", func(c *Config) *int { return &c.Cols }),
	"SCROLLBACK": intSetter("scrollback", func(c *Config) *int { return &c.Scrollback }),
	"LOG_LEVEL":  func(c *Config, v string) error { c.Log.Level = v; return nil },
	"LOG_FORMAT": func(c *Config, v string) error { c.Log.Format = v; return nil },
	"CLIPBOARD":  func(c *Config, v string) error { c.Clipboard = v; return nil },
	"TERM":       func(c *Config, v string) error { c.Term = v; return nil },
}

func intSetter(field string, ptr func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return invalid(field, "%s%s=%q is not a number", EnvPrefix, strings.ToUpper(field), v)
		}
		*ptr(c) = n
		return nil
	}
}

// applyEnv applies PANEKIT_* overrides found through lookup. Empty values
// are treated as set.
func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	for name, set := range envSetters {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(c, v); err != nil {
			return err
		}
	}
	return nil
}
