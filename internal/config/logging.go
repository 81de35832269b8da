package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// ServiceName tags every log record.
const ServiceName = "recipebox"

// SetupLogger builds the process logger from cfg: text on stderr for people,
// JSON appended to cfg.LogFile for tools, both at cfg.LogLevel. Records carry
// service and component attributes. The returned func closes the log file.
func SetupLogger(cfg Config, component string) (*slog.Logger, func() error) {
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger := newLogger(cfg.LogLevel, component, slog.NewTextHandler(os.Stderr, handlerOptions(cfg.LogLevel)))
		logger.Warn("log file unavailable, logging to stderr only", "file", cfg.LogFile, "error", err)
		return logger, func() error { return nil }
	}
	return SetupLoggerWithWriters(os.Stderr, file, cfg.LogLevel, component), file.Close
}

// SetupLoggerWithWriters is SetupLogger with explicit writers.
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level, component string) *slog.Logger {
	opts := handlerOptions(level)
	return newLogger(level, component, slog.NewTextHandler(stderr, opts), slog.NewJSONHandler(file, opts))
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: level}
}

func newLogger(level slog.Level, component string, handlers ...slog.Handler) *slog.Logger {
	logger := slog.New(slogmulti.Fanout(handlers...)).With("service", ServiceName)
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}
