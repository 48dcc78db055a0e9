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

package recovery

import "rivaas.dev/dispatch/router"

// Option configures the recovery filter.
type Option func(*config)

// LogFunc logs a recovered panic. stack is nil when stack traces are off.
type LogFunc func(c *router.Context, err *PanicError, stack []byte)

// HandlerFunc builds the response for a recovered panic.
type HandlerFunc func(c *router.Context, err *PanicError) router.Result

type config struct {
	stackTrace bool
	stackSize  int
	logger     LogFunc
	handler    HandlerFunc
}

func defaultConfig() *config {
	return &config{
		stackTrace: true,
		stackSize:  4 << 10,
		logger:     defaultLogger,
		handler:    defaultHandler,
	}
}

// WithStackTrace enables or disables stack capture (default on).
func WithStackTrace(enabled bool) Option {
	return func(cfg *config) {
		cfg.stackTrace = enabled
	}
}

// WithStackSize caps the logged stack in bytes (default 4KB). Zero means
// no cap.
func WithStackSize(size int) Option {
	return func(cfg *config) {
		cfg.stackSize = size
	}
}

// WithLogger replaces the default logger, which writes an error record to
// the request logger.
func WithLogger(fn LogFunc) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.logger = fn
		}
	}
}

// WithHandler replaces the default response, a 500 problem document.
//
//	recovery.New(recovery.WithHandler(func(c *router.Context, err *recovery.PanicError) router.Result {
//	    return router.Text(http.StatusServiceUnavailable, "try again")
//	}))
func WithHandler(fn HandlerFunc) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.handler = fn
		}
	}
}
