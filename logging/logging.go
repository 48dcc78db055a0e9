// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging builds the structured loggers used across dispatch.
//
// A [Logger] owns a [log/slog] handler (JSON, text or colored console),
// a level that can change at runtime and the service attributes added to
// every record. Sensitive keys are redacted before any handler sees them.
//
//	logger := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithServiceName("dispatchd"),
//	    logging.WithLevel(logging.LevelDebug),
//	)
//	r := router.MustNew(router.WithLogger(logger.Logger()))
//
// Records logged with a context carrying an OpenTelemetry span get
// trace_id and span_id attributes.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// HandlerType selects the output format.
type HandlerType string

// Handler types.
const (
	JSONHandler    HandlerType = "json"
	TextHandler    HandlerType = "text"
	ConsoleHandler HandlerType = "console"
)

// Level is a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redacted replaces the values of sensitive keys.
const redacted = "***REDACTED***"

var sensitiveKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"secret":        true,
	"api_key":       true,
	"authorization": true,
}

// Logger builds and owns a *slog.Logger.
type Logger struct {
	handlerType    HandlerType
	output         io.Writer
	level          slog.LevelVar
	addSource      bool
	serviceName    string
	serviceVersion string
	environment    string
	replaceAttr    func(groups []string, a slog.Attr) slog.Attr
	registerGlobal bool

	slogger *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// New returns a Logger writing JSON at info level to stdout unless
// configured otherwise.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
	}
	l.level.Set(LevelInfo)
	for _, opt := range opts {
		opt(l)
	}

	if l.output == nil {
		return nil, ErrNilOutput
	}

	hopts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: l.redact,
	}

	var h slog.Handler
	switch l.handlerType {
	case JSONHandler:
		h = slog.NewJSONHandler(l.output, hopts)
	case TextHandler:
		h = slog.NewTextHandler(l.output, hopts)
	case ConsoleHandler:
		h = newConsoleHandler(l.output, hopts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
	}

	logger := slog.New(NewContextHandler(h))

	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		logger = logger.With(attrs...)
	}

	l.slogger = logger
	if l.registerGlobal {
		slog.SetDefault(logger)
	}

	return l, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging: " + err.Error())
	}

	return l
}

// Logger returns the configured *slog.Logger.
func (l *Logger) Logger() *slog.Logger { return l.slogger }

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) { l.level.Set(level) }

// Level returns the current minimum level.
func (l *Logger) Level() Level { return l.level.Level() }

func (l *Logger) redact(groups []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[a.Key] {
		return slog.String(a.Key, redacted)
	}
	if l.replaceAttr != nil {
		return l.replaceAttr(groups, a)
	}

	return a
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}

	return level, nil
}
