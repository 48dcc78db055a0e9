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

// Package recovery provides a filter that turns panics raised further down
// the chain into a 500 problem response.
//
//	r := router.MustNew()
//	r.Use(recovery.New())
//
// Register it first so that it covers every other filter. A recovered panic
// is logged with its stack, recorded on the active trace span and stored on
// the context under [middleware.PanicKey].
package recovery

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware"
)

// ErrPanic is the error reported to clients for a recovered panic.
var ErrPanic = errors.New("internal server error")

// PanicError wraps a recovered value. It unwraps to the value when the
// value is an error, so errors.Is(err, router.ErrNextCalledTwice) works.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return ErrPanic.Error() }

func (e *PanicError) Unwrap() []error {
	if err, ok := e.Value.(error); ok {
		return []error{ErrPanic, err}
	}

	return []error{ErrPanic}
}

// HTTPStatus implements the status carrier read by the error formatters.
func (e *PanicError) HTTPStatus() int { return http.StatusInternalServerError }

// Code implements the code carrier read by the error formatters.
func (e *PanicError) Code() string { return "internal_error" }

// Filter recovers panics.
type Filter struct {
	cfg *config
}

// New returns a recovery filter.
func New(opts ...Option) *Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Filter{cfg: cfg}
}

// Name implements router.Named.
func (f *Filter) Name() string { return "recovery" }

// Filter implements router.Filter.
func (f *Filter) Filter(chain router.Chain, c *router.Context) (res router.Result) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			panic(rec)
		}

		perr := &PanicError{Value: rec}
		markSpan(trace.SpanFromContext(c.Context()), rec)
		c.Set(middleware.PanicKey, rec)
		f.cfg.logger(c, perr, f.stack())

		res = f.cfg.handler(c, perr)
	}()

	return chain.Next(c)
}

func (f *Filter) stack() []byte {
	if !f.cfg.stackTrace {
		return nil
	}
	stack := debug.Stack()
	if f.cfg.stackSize > 0 && len(stack) > f.cfg.stackSize {
		stack = stack[:f.cfg.stackSize]
	}

	return stack
}

// markSpan records the panic on span following the OpenTelemetry
// exception conventions.
func markSpan(span trace.Span, rec any) {
	if !span.IsRecording() {
		return
	}
	span.SetStatus(codes.Error, "panic recovered")
	span.SetAttributes(
		attribute.Bool("exception.escaped", false),
		attribute.String("exception.type", fmt.Sprintf("%T", rec)),
		attribute.String("exception.message", fmt.Sprint(rec)),
	)
	if err, ok := rec.(error); ok {
		span.RecordError(err)
	}
}

func defaultLogger(c *router.Context, err *PanicError, stack []byte) {
	attrs := []any{
		"panic", fmt.Sprint(err.Value),
		"method", c.Method(),
		"route", router.RouteLabel(c),
		"path", c.Path(),
	}
	if len(stack) > 0 {
		attrs = append(attrs, "stack", string(stack))
	}
	c.Logger().ErrorContext(c.Context(), "panic recovered", attrs...)
}

func defaultHandler(c *router.Context, err *PanicError) router.Result {
	return c.Problem(err)
}
