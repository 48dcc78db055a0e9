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
	"context"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// consoleHandler writes one colored line per record through a
// charmbracelet/log logger:
//
//	15:04:05.000 INFO routes compiled routes=12 dropped=0
//
// Level filtering and attribute replacement follow the slog options so
// SetLevel and redaction behave as for the JSON and text handlers. Groups
// are flattened into dotted keys.
type consoleHandler struct {
	opts   *slog.HandlerOptions
	inner  *log.Logger
	groups []string
}

func newConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *consoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	inner := log.NewWithOptions(w, log.Options{
		Level:           log.Level(math.MinInt32),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		ReportCaller:    opts.AddSource,
	})
	inner.SetStyles(consoleStyles())

	return &consoleHandler{opts: opts, inner: inner}
}

func consoleStyles() *log.Styles {
	s := log.DefaultStyles()
	level := lipgloss.NewStyle().Bold(true).MaxWidth(5)
	s.Levels[log.DebugLevel] = level.SetString("DEBUG").Foreground(lipgloss.Color("4"))
	s.Levels[log.InfoLevel] = level.SetString("INFO").Foreground(lipgloss.Color("2"))
	s.Levels[log.WarnLevel] = level.SetString("WARN").Foreground(lipgloss.Color("3"))
	s.Levels[log.ErrorLevel] = level.SetString("ERROR").Foreground(lipgloss.Color("1"))
	s.Key = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	return s
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

func (h *consoleHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.flatten(h.groups, a)...)
		return true
	})

	return h.inner.Handle(ctx, out)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var flat []slog.Attr
	for _, a := range attrs {
		flat = append(flat, h.flatten(h.groups, a)...)
	}
	if len(flat) == 0 {
		return h
	}

	nh := *h
	nh.inner = h.inner.WithAttrs(flat).(*log.Logger)

	return &nh
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.groups = append(append([]string(nil), h.groups...), name)

	return &nh
}

// flatten applies ReplaceAttr, resolves the value and expands groups into
// attributes with dotted keys.
func (h *consoleHandler) flatten(groups []string, a slog.Attr) []slog.Attr {
	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(groups, a)
	}
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return nil
	}

	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		var out []slog.Attr
		for _, ga := range a.Value.Group() {
			out = append(out, h.flatten(sub, ga)...)
		}
		return out
	}

	if len(groups) > 0 {
		a.Key = strings.Join(groups, ".") + "." + a.Key
	}

	return []slog.Attr{a}
}
