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

// Package accesslog provides a filter that writes one structured log record
// per dispatched request.
//
//	r := router.MustNew()
//	r.Use(requestid.New(), accesslog.New(accesslog.WithExcludePaths("/health")))
//
// Records go to the configured logger or, by default, to the request logger,
// which already carries the request id when the requestid filter runs first.
// Server errors log at error level, client errors and slow requests at warn
// level and everything else at info level.
package accesslog

import (
	"crypto/sha256"
	"encoding/binary"
	"log/slog"
	"strings"
	"time"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware"
)

// Filter logs requests.
type Filter struct {
	cfg *config
}

// New returns an access log filter.
func New(opts ...Option) *Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Filter{cfg: cfg}
}

// Name implements router.Named.
func (f *Filter) Name() string { return "accesslog" }

// Filter implements router.Filter.
func (f *Filter) Filter(chain router.Chain, c *router.Context) router.Result {
	if f.excluded(c.Path()) {
		return chain.Next(c)
	}

	start := f.cfg.now()
	res := chain.Next(c)
	duration := f.cfg.now().Sub(start)

	status := res.StatusCode()
	isSlow := f.cfg.slowThreshold > 0 && duration >= f.cfg.slowThreshold
	if status < 400 && !isSlow && !f.sampled(c) {
		return res
	}

	logger := f.cfg.logger
	if logger == nil {
		logger = c.Logger()
	}

	fields := []any{
		"method", c.Method(),
		"route", router.RouteLabel(c),
		"path", c.Path(),
		"status", status,
		"duration_ms", duration.Milliseconds(),
	}
	if req := c.Request(); req != nil {
		fields = append(fields, "user_agent", req.UserAgent(), "remote_addr", req.RemoteAddr)
	}
	if f.cfg.logger != nil {
		if id, ok := c.Get(middleware.RequestIDKey); ok {
			fields = append(fields, "request_id", id)
		}
	}
	if _, ok := c.Get(middleware.PanicKey); ok {
		fields = append(fields, "panic", true)
	}
	if isSlow {
		fields = append(fields, "slow", true)
	}

	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400, isSlow:
		level = slog.LevelWarn
	}
	logger.Log(c.Context(), level, "access", fields...)

	return res
}

func (f *Filter) excluded(path string) bool {
	if f.cfg.excludePaths[path] {
		return true
	}
	for _, prefix := range f.cfg.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// sampled reports whether a successful request is logged.
func (f *Filter) sampled(c *router.Context) bool {
	if f.cfg.errorsOnly {
		return false
	}
	if f.cfg.sampleRate >= 1 {
		return true
	}
	id, _ := c.Get(middleware.RequestIDKey)
	s, _ := id.(string)

	return sampleByHash(s, f.cfg.sampleRate)
}

// sampleByHash makes the same decision for the same id on every replica.
func sampleByHash(id string, rate float64) bool {
	switch {
	case id == "":
		return true
	case rate >= 1:
		return true
	case rate <= 0:
		return false
	}
	h := sha256.Sum256([]byte(id))
	threshold := uint64(rate * float64(^uint64(0)))

	return binary.BigEndian.Uint64(h[:8]) < threshold
}

var _ router.Filter = (*Filter)(nil)

func defaultNow() time.Time { return time.Now() }
