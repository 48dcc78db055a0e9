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

package router

import (
	"log/slog"
	"strings"
	"time"

	derrors "rivaas.dev/dispatch/errors"
)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger for configuration errors, diagnostics and
// unmatched requests. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger == nil {
			logger = noopLogger
		}
		r.logger = logger
	}
}

// WithDiagnostics sets a diagnostic handler.
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithStrictRoutes makes CompileRoutes return configuration errors instead
// of only logging them. Broken routes are dropped either way.
func WithStrictRoutes(strict bool) Option {
	return func(r *Router) {
		r.strict = strict
	}
}

// WithObserver adds a dispatch observer. Observers are started in
// registration order and ended in reverse order.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithErrorFormatter sets the formatter for problem results. The default is
// RFC 9457 problem details.
func WithErrorFormatter(f derrors.Formatter) Option {
	return func(r *Router) {
		if f != nil {
			r.formatter = f
		}
	}
}

// WithContextPath mounts the application below path. Requests outside the
// context path do not match, matching happens on the remainder, and reverse
// URLs carry the prefix.
//
//	r := router.MustNew(router.WithContextPath("/shop"))
//	// GET /shop/items/1 matches the template /items/{id}
func WithContextPath(path string) Option {
	return func(r *Router) {
		path = strings.TrimRight(path, "/")
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		r.contextPath = path
	}
}

// WithH2C enables HTTP/2 cleartext in Serve.
//
// Only use in development or behind a trusted load balancer.
func WithH2C(enable bool) Option {
	return func(r *Router) {
		r.enableH2C = enable
	}
}

// WithServerTimeouts configures the server started by Serve.
//
// Defaults:
//
//	ReadHeaderTimeout: 5s
//	ReadTimeout:       15s
//	WriteTimeout:      30s
//	IdleTimeout:       60s
func WithServerTimeouts(readHeader, read, write, idle time.Duration) Option {
	return func(r *Router) {
		r.serverTimeouts = &serverTimeouts{
			readHeader: readHeader,
			read:       read,
			write:      write,
			idle:       idle,
		}
	}
}

type serverTimeouts struct {
	readHeader time.Duration
	read       time.Duration
	write      time.Duration
	idle       time.Duration
}

func defaultServerTimeouts() *serverTimeouts {
	return &serverTimeouts{
		readHeader: 5 * time.Second,
		read:       15 * time.Second,
		write:      30 * time.Second,
		idle:       60 * time.Second,
	}
}
