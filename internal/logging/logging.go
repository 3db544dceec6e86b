// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Cortex Contributors

// Package logging configures the process-wide slog logger from the
// logging section of the config: level, and an optional rotating file
// target instead of stderr.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cortex-dev/cortex/internal/config"
)

// Setup builds a slog.Logger per cfg and installs it as the default.
// With an empty file the logger writes text to stderr; with a file it
// writes JSON through a size- and age-based rotator.
func Setup(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.File == "" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(rotator(cfg), opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func rotator(cfg config.LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
}

// ParseLevel maps a config level string to a slog.Level. Unknown
// values fall back to info.
func ParseLevel(level string) slog.Level {
	switch level {
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
