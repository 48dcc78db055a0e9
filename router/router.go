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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	derrors "rivaas.dev/dispatch/errors"
)

// noopLogger is used when no logger is configured.
var noopLogger = slog.New(slog.DiscardHandler)

// defaultFormatter formats problems for routers without WithErrorFormatter
// and for contexts created outside a router.
var defaultFormatter derrors.Formatter = derrors.NewRFC9457("")

// Router holds route registrations and, after CompileRoutes, the compiled
// route list and reverse index.
//
// Registration (verb methods, Use, Controller, builder calls) happens on a
// single goroutine at startup. CompileRoutes publishes the compiled state;
// from then on lookups, dispatch and reverse routing are safe for
// concurrent use and any further registration panics.
type Router struct {
	logger         *slog.Logger
	diagnostics    DiagnosticHandler
	formatter      derrors.Formatter
	observers      []Observer
	strict         bool
	contextPath    string
	enableH2C      bool
	serverTimeouts *serverTimeouts

	// Registration state, released by CompileRoutes.
	controllers map[string]*Controller
	globals     []Filter
	builders    []*RouteBuilder

	compiling atomic.Bool
	compiled  atomic.Bool

	// Compiled state, written once before compiled is set.
	routes       []*RouteSpec
	reverse      map[HandlerRef]*RouteSpec
	configErrors []error

	serverMu sync.Mutex
	server   *http.Server
	serving  bool
	shutdown bool
}

// New creates a router.
//
//	r, err := router.New(
//	    router.WithLogger(logger),
//	    router.WithStrictRoutes(true),
//	)
func New(opts ...Option) (*Router, error) {
	r := &Router{
		logger:      noopLogger,
		formatter:   defaultFormatter,
		controllers: make(map[string]*Controller),
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router configuration validation failed: %w", err)
	}

	return r, nil
}

// MustNew is New that panics on invalid configuration.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return r
}

func (r *Router) validate() error {
	if t := r.serverTimeouts; t != nil {
		if t.readHeader <= 0 || t.read <= 0 || t.write <= 0 || t.idle <= 0 {
			return ErrServerTimeoutInvalid
		}
	}

	return nil
}

// GET registers a GET route.
func (r *Router) GET() *RouteBuilder { return r.METHOD(http.MethodGet) }

// POST registers a POST route.
func (r *Router) POST() *RouteBuilder { return r.METHOD(http.MethodPost) }

// PUT registers a PUT route.
func (r *Router) PUT() *RouteBuilder { return r.METHOD(http.MethodPut) }

// DELETE registers a DELETE route.
func (r *Router) DELETE() *RouteBuilder { return r.METHOD(http.MethodDelete) }

// PATCH registers a PATCH route.
func (r *Router) PATCH() *RouteBuilder { return r.METHOD(http.MethodPatch) }

// OPTIONS registers an OPTIONS route.
func (r *Router) OPTIONS() *RouteBuilder { return r.METHOD(http.MethodOptions) }

// HEAD registers a HEAD route.
func (r *Router) HEAD() *RouteBuilder { return r.METHOD(http.MethodHead) }

// WS registers a websocket route.
func (r *Router) WS() *RouteBuilder { return r.METHOD(MethodWS) }

// METHOD registers a route for an arbitrary verb. Verbs are matched
// case-sensitively.
func (r *Router) METHOD(verb string) *RouteBuilder {
	return r.register(verb, "")
}

func (r *Router) register(verb, prefix string) *RouteBuilder {
	r.mustBeMutable()
	b := newRouteBuilder(r, verb, prefix)
	r.builders = append(r.builders, b)

	return b
}

// Use appends default global filters. They apply, in registration order,
// to every route that does not override them with GlobalFilters.
func (r *Router) Use(filters ...Filter) {
	r.mustBeMutable()
	r.globals = append(r.globals, filters...)
}

func (r *Router) mustBeMutable() {
	if r.compiling.Load() {
		panic(ErrRoutesAlreadyCompiled)
	}
}

// CompileRoutes builds every registered route in registration order and the
// reverse index. It may be called once; later calls return
// ErrRoutesAlreadyCompiled.
//
// Routes that fail to build are logged, reported as DiagRouteDropped and
// left out, so they never match. With WithStrictRoutes(true) the joined
// configuration errors are returned as well.
func (r *Router) CompileRoutes() error {
	if !r.compiling.CompareAndSwap(false, true) {
		return ErrRoutesAlreadyCompiled
	}

	builders := r.builders
	r.builders = nil

	specs := make([]*RouteSpec, 0, len(builders))
	reverse := make(map[HandlerRef]*RouteSpec, len(builders))
	var errs []error

	for _, b := range builders {
		spec, err := b.build()
		if err != nil {
			r.reportConfigError(err)
			errs = append(errs, err)
			continue
		}

		r.checkShadowing(specs, spec)
		if n := len(spec.Parameters()); n > highParamCount {
			r.emit(DiagHighParamCount, "route has many placeholders", map[string]any{
				"route": spec.String(),
				"count": n,
			})
		}
		specs = append(specs, spec)

		ref, ok := spec.Handler()
		if !ok {
			continue
		}
		if first, exists := reverse[ref]; exists {
			r.logger.Warn("handler routed more than once; reverse routing uses the first route",
				"handler", ref.String(), "first", first.String(), "duplicate", spec.String())
			r.emit(DiagDuplicateHandler, "handler routed more than once", map[string]any{
				"handler":   ref.String(),
				"first":     first.String(),
				"duplicate": spec.String(),
			})
			continue
		}
		reverse[ref] = spec
	}

	r.routes = specs
	r.reverse = reverse
	r.configErrors = errs
	r.controllers = nil
	r.globals = nil
	r.compiled.Store(true)

	r.logger.Info("routes compiled", "routes", len(specs), "dropped", len(errs))

	if r.strict && len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func (r *Router) reportConfigError(err error) {
	var ce *ConfigError
	if !errors.As(err, &ce) {
		r.logger.Error("route configuration error", "error", err)
		return
	}

	r.logger.Error("route configuration error",
		"method", ce.Method,
		"uri", ce.URI,
		"controller", ce.Handler.Controller,
		"action", ce.Handler.Action,
		"hint", ce.Hint,
		"error", ce.Err,
	)
	r.emit(DiagRouteDropped, "route dropped", map[string]any{
		"method":     ce.Method,
		"uri":        ce.URI,
		"controller": ce.Handler.Controller,
		"action":     ce.Handler.Action,
		"error":      ce.Err.Error(),
	})
}

// checkShadowing reports a static route that an earlier route always
// matches first.
func (r *Router) checkShadowing(earlier []*RouteSpec, spec *RouteSpec) {
	if !spec.template.IsStatic() {
		return
	}
	for _, prev := range earlier {
		if prev.Matches(spec.method, spec.URI()) {
			r.logger.Warn("route is shadowed by an earlier route", "route", spec.String(), "by", prev.String())
			r.emit(DiagRouteShadowed, "route is shadowed by an earlier route", map[string]any{
				"route": spec.String(),
				"by":    prev.String(),
			})

			return
		}
	}
}

// Compiled reports whether CompileRoutes has completed.
func (r *Router) Compiled() bool { return r.compiled.Load() }

// GetRouteFor returns the first route, in registration order, matching
// method and the escaped path. It panics with ErrRoutesNotCompiled before
// CompileRoutes.
func (r *Router) GetRouteFor(method, path string) (*RouteSpec, bool) {
	r.mustBeCompiled()
	for _, spec := range r.routes {
		if spec.Matches(method, path) {
			return spec, true
		}
	}

	return nil, false
}

// GetRouteForHandler returns the first route registered for ref. It panics
// with ErrRoutesNotCompiled before CompileRoutes.
func (r *Router) GetRouteForHandler(ref HandlerRef) (*RouteSpec, bool) {
	r.mustBeCompiled()
	spec, ok := r.reverse[ref]

	return spec, ok
}

// Routes returns the compiled routes in registration order.
func (r *Router) Routes() []*RouteSpec {
	r.mustBeCompiled()
	out := make([]*RouteSpec, len(r.routes))
	copy(out, r.routes)

	return out
}

// ConfigErrors returns the configuration errors of dropped routes.
func (r *Router) ConfigErrors() []error {
	r.mustBeCompiled()
	out := make([]error, len(r.configErrors))
	copy(out, r.configErrors)

	return out
}

// Logger returns the router's logger.
func (r *Router) Logger() *slog.Logger { return r.logger }

func (r *Router) mustBeCompiled() {
	if !r.compiled.Load() {
		panic(ErrRoutesNotCompiled)
	}
}
