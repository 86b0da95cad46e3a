// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log is a thin facade over luxfi/log. It adds a process-wide
// verbosity gate and an optional rotating JSON file sink; everything else
// delegates to the shared root logger.
package log

import (
	"context"
	"log/slog"
	"sync/atomic"

	luxlog "github.com/luxfi/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured key-value logger used across the repo.
type Logger = luxlog.Logger

// Re-exported constructors from luxfi/log.
var (
	New  = luxlog.New
	Root = luxlog.Root
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

var (
	// verbosity gates the package-level helpers. Stored as int32 for
	// atomic access; defaults to info.
	verbosity atomic.Int32

	// fileSink, when non-nil, receives a copy of every emitted entry.
	fileSink atomic.Pointer[slog.Logger]
)

func init() {
	verbosity.Store(int32(LevelInfo))
}

// Setup configures the verbosity from its string name ("trace", "debug",
// "info", "warn", "error", "crit") and, when path is non-empty, attaches a
// size-rotated JSON file sink.
func Setup(level, path string, maxSizeMB, maxBackups int) error {
	lvl, err := luxlog.ToLevel(level)
	if err != nil {
		return err
	}
	verbosity.Store(int32(lvl))

	if path != "" {
		h := slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}, &slog.HandlerOptions{Level: slog.Level(int(lvl))})
		fileSink.Store(slog.New(h))
	}
	return nil
}

// SetDefault installs l as the shared root logger.
func SetDefault(l Logger) {
	luxlog.SetDefault(l)
}

// Enabled reports whether the given level passes the verbosity gate.
func Enabled(level slog.Level) bool {
	return level >= slog.Level(verbosity.Load())
}

func emit(level slog.Level, msg string, ctx ...interface{}) {
	if !Enabled(level) {
		return
	}
	switch {
	case level <= LevelTrace:
		luxlog.Root().Trace(msg, ctx...)
	case level <= LevelDebug:
		luxlog.Root().Debug(msg, ctx...)
	case level <= LevelInfo:
		luxlog.Root().Info(msg, ctx...)
	case level <= LevelWarn:
		luxlog.Root().Warn(msg, ctx...)
	case level <= LevelError:
		luxlog.Root().Error(msg, ctx...)
	default:
		luxlog.Root().Crit(msg, ctx...)
	}
	if sink := fileSink.Load(); sink != nil {
		sink.Log(context.Background(), level, msg, ctx...)
	}
}

func Trace(msg string, ctx ...interface{}) { emit(LevelTrace, msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { emit(LevelDebug, msg, ctx...) }
func Info(msg string, ctx ...interface{})  { emit(LevelInfo, msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { emit(LevelWarn, msg, ctx...) }
func Error(msg string, ctx ...interface{}) { emit(LevelError, msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { emit(LevelCrit, msg, ctx...) }
