// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger holds the process-wide structured logger.
//
// The terminal UI owns stdout, so log output goes to a rotating file by
// default. Commands that run headless may add stderr with Config.Console.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the shared logger. It discards output until InitLogger runs.
var Log = newDiscardLogger()

// Config controls where and how much is logged.
type Config struct {
	Level      string // debug, info, warning, error
	File       string // empty disables the file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	Console    bool // also write to stderr
}

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// InitLogger configures Log from cfg. It returns the file sink so callers can
// close it on shutdown; the sink is nil when no file is configured.
func InitLogger(cfg Config) (io.Closer, error) {
	Log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	Log.SetLevel(ParseLevel(cfg.Level))

	var writers []io.Writer
	var sink *lumberjack.Logger
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, err
		}
		sink = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 5), // megabytes
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28), // days
			Compress:   cfg.Compress,
		}
		writers = append(writers, sink)
	}
	if cfg.Console {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		Log.SetOutput(io.Discard)
	case 1:
		Log.SetOutput(writers[0])
	default:
		Log.SetOutput(io.MultiWriter(writers...))
	}

	if sink == nil {
		return nil, nil
	}
	return sink, nil
}

// ParseLevel maps a config string to a logrus level. Unknown values yield info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithComponent returns an entry tagged with the emitting component.
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
