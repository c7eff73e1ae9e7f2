/*
Copyright (c) 2023-2025 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ylog is the structured logging facade used throughout yengine.
// It wraps log/slog the way a connector wraps its logger: a small set of
// leveled methods that every other package calls through, so the choice
// of handler (text for a terminal, JSON for a collector) is made in one
// place.
package ylog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	SetHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// SetHandler replaces the handler backing every subsequent log call.
// Callers running under a collector typically install a JSON handler;
// the default is a plain text handler on stderr.
func SetHandler(h slog.Handler) {
	logger.Store(slog.New(h))
}

func current() *slog.Logger {
	return logger.Load()
}

// Debug logs a message at DEBUG level. The message should be static and
// concise; variable data belongs in args, following the slog pattern.
func Debug(ctx context.Context, msg string, args ...any) {
	current().DebugContext(ctx, msg, args...)
}

// Info logs a message at INFO level.
func Info(ctx context.Context, msg string, args ...any) {
	current().InfoContext(ctx, msg, args...)
}

// Warn logs a message at WARN level.
func Warn(ctx context.Context, msg string, args ...any) {
	current().WarnContext(ctx, msg, args...)
}

// Error logs a message at ERROR level. When logging an error value, name
// it "error".
func Error(ctx context.Context, msg string, args ...any) {
	current().ErrorContext(ctx, msg, args...)
}
