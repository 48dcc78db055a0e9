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

package logging

import (
	"io"
	"log/slog"
)

// WithHandlerType selects the output format.
func WithHandlerType(t HandlerType) Option {
	return func(l *Logger) { l.handlerType = t }
}

// WithJSONHandler writes one JSON object per record.
func WithJSONHandler() Option { return WithHandlerType(JSONHandler) }

// WithTextHandler writes key=value records.
func WithTextHandler() Option { return WithHandlerType(TextHandler) }

// WithConsoleHandler writes colored records for humans through
// charmbracelet/log. Colors are dropped when the output is not a terminal.
func WithConsoleHandler() Option { return WithHandlerType(ConsoleHandler) }

// WithOutput sets the destination (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.output = w }
}

// WithLevel sets the minimum level (default info).
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level.Set(level) }
}

// WithSource adds the caller's file and line.
func WithSource(enabled bool) Option {
	return func(l *Logger) { l.addSource = enabled }
}

// WithServiceName adds a service attribute to every record.
func WithServiceName(name string) Option {
	return func(l *Logger) { l.serviceName = name }
}

// WithServiceVersion adds a version attribute to every record.
func WithServiceVersion(version string) Option {
	return func(l *Logger) { l.serviceVersion = version }
}

// WithEnvironment adds an env attribute to every record.
func WithEnvironment(env string) Option {
	return func(l *Logger) { l.environment = env }
}

// WithReplaceAttr runs fn on every attribute after redaction.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(l *Logger) { l.replaceAttr = fn }
}

// WithGlobalLogger installs the logger with slog.SetDefault.
func WithGlobalLogger() Option {
	return func(l *Logger) { l.registerGlobal = true }
}
