// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is a small leveled logger. Messages are printf-formatted and
// emitted through log/slog so they carry a level and timestamp.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel maps "debug", "info", "warn" and "error" to a Level; anything
// else is InfoLevel.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	}
	return InfoLevel
}

var (
	level  = new(slog.LevelVar)
	logger atomic.Pointer[slog.Logger]
)

func init() {
	level.Set(slog.LevelInfo)
	SetOutput(os.Stderr)
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger.Store(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func SetLogLevel(l Level) {
	level.Set(l.slogLevel())
}

// Logger returns the underlying slog logger, for components that take one.
func Logger() *slog.Logger {
	return logger.Load()
}

func logf(l Level, format string, args ...any) {
	lg := logger.Load()
	sl := l.slogLevel()
	if !lg.Enabled(context.Background(), sl) {
		return
	}
	lg.Log(context.Background(), sl, strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

func Debug(format string, args ...any) { logf(DebugLevel, format, args...) }

func Info(format string, args ...any) { logf(InfoLevel, format, args...) }

func Warn(format string, args ...any) { logf(WarnLevel, format, args...) }

func Error(format string, args ...any) { logf(ErrorLevel, format, args...) }
