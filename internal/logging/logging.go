package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MrJamesThe3rd/dunning/internal/config"
)

// New builds the process logger. Output goes to stdout unless quiet and, when
// a file is configured, to a size-rotated file as well.
func New(cfg *config.Config) *slog.Logger {
	var writers []io.Writer

	if !cfg.Logging.Quiet {
		writers = append(writers, os.Stdout)
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.Logging.File,
				MaxSize:    cfg.Logging.MaxSizeMB,
				MaxBackups: cfg.Logging.MaxBackups,
				Compress:   true,
			})
		}
	}

	w := io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}

	return slog.New(newHandler(w, cfg.Logging.Format, cfg.Logging.Level))
}

func newHandler(w io.Writer, format, level string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun tags every record of a single pass with a fresh run id.
func WithRun(logger *slog.Logger, pass string) *slog.Logger {
	return logger.With("pass", pass, "run_id", uuid.NewString())
}
