package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/matthieukhl/freshmart/internal/config"
)

// New builds the process logger from the log section of the config
func New(cfg config.LogConfig, env string) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, env)
}

func NewWithWriter(w io.Writer, cfg config.LogConfig, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With("service", "freshmart")
	if env != "" {
		logger = logger.With("environment", env)
	}
	return logger
}

// WithComponent tags every record with the emitting component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = Discard()
	}
	return logger.With("component", component)
}

// Discard returns a logger that drops everything, used by tests and CLI helpers
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
