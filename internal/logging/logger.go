package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// New creates a configured application logger.
// It writes to Stderr so that the console and tool streams on Stdout stay clean.
// It standardizes common keys (e.g., "error" -> "err").
func New(level slog.Level) *slog.Logger {
	return newLogger(os.Stderr, level)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a configured level name to a slog level. An empty name
// means logging is off.
func ParseLevel(name string) (level slog.Level, enabled bool, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return slog.LevelInfo, false, nil
	case "debug":
		return slog.LevelDebug, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	default:
		return slog.LevelInfo, false, fmt.Errorf("unknown log level %q", name)
	}
}

// FromConfig returns New(level) for a configured level and NewNop otherwise.
func FromConfig(name string) (*slog.Logger, error) {
	level, enabled, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return NewNop(), nil
	}
	return New(level), nil
}
