package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler used by FromConfig.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	// Standardize 'error' key to 'err'
	if a.Key == "error" {
		a.Key = "err"
	}
	return a
}

// New creates the default CLI logger.
// It writes to Stderr so it never interleaves with the respondent UI or JSON-RPC on Stdout.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, FormatText)
}

// NewJSON creates a JSON logger on Stderr, used by the HTTP server.
func NewJSON(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, FormatJSON)
}

// NewWithWriter builds a logger for an arbitrary writer.
func NewWithWriter(w io.Writer, level slog.Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps debug/info/warn/error (case-insensitive) to a slog level.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// FromConfig builds a Stderr logger from textual level and format settings.
func FromConfig(level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	switch Format(strings.ToLower(format)) {
	case "", FormatText:
		return NewWithWriter(os.Stderr, lvl, FormatText), nil
	case FormatJSON:
		return NewWithWriter(os.Stderr, lvl, FormatJSON), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
