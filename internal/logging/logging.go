// Package logging configures the structured logger shared by panekit.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Format selects how log entries are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level to output.
	Level logrus.Level
	// Format is the entry format. Defaults to text.
	Format Format
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is added to every entry as the "app" field.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  logrus.InfoLevel,
		Format: FormatText,
		Output: os.Stderr,
		Prefix: "panekit",
	}
}

// ParseLevel parses a level name. Unknown names map to info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "warning":
		return logrus.WarnLevel
	case "":
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// New creates a logger with the given configuration.
func New(cfg Config) *logrus.Entry {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(cfg.Output)
	l.SetLevel(cfg.Level)
	switch cfg.Format {
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000",
		})
	}

	entry := logrus.NewEntry(l)
	if cfg.Prefix != "" {
		entry = entry.WithField("app", cfg.Prefix)
	}
	return entry
}

// Component returns a logger with the component field set.
func Component(l *logrus.Entry, name string) *logrus.Entry {
	if l == nil {
		l = Discard()
	}
	return l.WithField("component", name)
}

var discard = func() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}()

// Discard returns a logger that drops every entry.
func Discard() *logrus.Entry {
	return discard
}

// OrDiscard returns l, or the discard logger when l is nil.
func OrDiscard(l *logrus.Entry) *logrus.Entry {
	if l == nil {
		return discard
	}
	return l
}
