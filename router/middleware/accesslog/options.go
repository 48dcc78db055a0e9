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

package accesslog

import (
	"log/slog"
	"time"
)

// Option configures the access log filter.
type Option func(*config)

type config struct {
	logger          *slog.Logger
	excludePaths    map[string]bool
	excludePrefixes []string
	sampleRate      float64
	errorsOnly      bool
	slowThreshold   time.Duration
	now             func() time.Time
}

func defaultConfig() *config {
	return &config{
		excludePaths: make(map[string]bool),
		sampleRate:   1.0,
		now:          defaultNow,
	}
}

// WithLogger sends records to logger instead of the request logger. The
// request id is then added explicitly.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExcludePaths skips exact paths.
//
//	accesslog.New(accesslog.WithExcludePaths("/health", "/metrics"))
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, path := range paths {
			c.excludePaths[path] = true
		}
	}
}

// WithExcludePrefixes skips paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.excludePrefixes = append(c.excludePrefixes, prefixes...)
	}
}

// WithSampleRate logs the given fraction of successful requests, chosen by
// request id hash. Errors and slow requests are always logged.
func WithSampleRate(rate float64) Option {
	return func(c *config) {
		c.sampleRate = max(0.0, min(rate, 1.0))
	}
}

// WithErrorsOnly logs only responses with status >= 400 and slow requests.
func WithErrorsOnly() Option {
	return func(c *config) {
		c.errorsOnly = true
	}
}

// WithSlowThreshold marks and always logs requests slower than threshold.
//
//	accesslog.New(accesslog.WithSlowThreshold(500 * time.Millisecond))
func WithSlowThreshold(threshold time.Duration) Option {
	return func(c *config) {
		c.slowThreshold = threshold
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}
