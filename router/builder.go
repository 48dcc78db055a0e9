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
	"rivaas.dev/dispatch/router/route"
)

// RouteBuilder describes one route during registration. It is created by
// the verb methods of [Router] and turned into a [RouteSpec] by
// [Router.CompileRoutes]. Builders are not safe for concurrent use.
//
// Targeting a controller action:
//
//	r.GET().Route("/users/{id}").With(users.Ref("Show"))
//
// Route-local filters, run after the global ones:
//
//	r.POST().Route("/users").
//	    Filters(audit, rateLimit).
//	    With(users.Ref("Create"))
//
// A fixed result that bypasses the global filters:
//
//	r.GET().Route("/health").
//	    NoGlobalFilters().
//	    WithResult(router.Text(http.StatusOK, "ok"))
//
// Mounting a plain http.Handler:
//
//	r.GET().Route("/metrics").
//	    NoGlobalFilters().
//	    WithResult(router.Handler(promhttp.Handler()))
type RouteBuilder struct {
	router *Router
	method string
	prefix string
	uri    string

	local      []Filter
	globals    []Filter
	overridden bool

	handler HandlerRef
	fixed   *Result
}

func newRouteBuilder(r *Router, method, prefix string) *RouteBuilder {
	return &RouteBuilder{router: r, method: method, prefix: prefix}
}

// Route sets the URI template. A sub-router prefix is prepended, so inside
// r.SubRouter("/api") the call Route("/orders") registers "/api/orders".
// See package route for the template syntax.
func (b *RouteBuilder) Route(uri string) *RouteBuilder {
	b.router.mustBeMutable()
	b.uri = uri

	return b
}

// Filters appends local filters. They run after global filters and before
// the controller's filters.
func (b *RouteBuilder) Filters(filters ...Filter) *RouteBuilder {
	b.router.mustBeMutable()
	b.local = append(b.local, filters...)

	return b
}

// GlobalFilters replaces the router's default filters for this route.
// Each call replaces the previous override.
//
//	r.GET().Route("/internal/stats").
//	    GlobalFilters(requestid.New()).
//	    With(stats.Ref("Show"))
func (b *RouteBuilder) GlobalFilters(filters ...Filter) *RouteBuilder {
	b.router.mustBeMutable()
	b.globals = append([]Filter(nil), filters...)
	b.overridden = true

	return b
}

// NoGlobalFilters is GlobalFilters with an empty set.
func (b *RouteBuilder) NoGlobalFilters() *RouteBuilder {
	return b.GlobalFilters()
}

// With targets a controller action. The action is resolved when routes
// are compiled, so the controller may be declared after the route.
func (b *RouteBuilder) With(ref HandlerRef) *RouteBuilder {
	b.router.mustBeMutable()
	b.handler = ref
	b.fixed = nil

	return b
}

// WithResult makes the route answer res without a controller.
// Such routes take part in matching but not in reverse routing.
func (b *RouteBuilder) WithResult(res Result) *RouteBuilder {
	b.router.mustBeMutable()
	b.fixed = &res
	b.handler = HandlerRef{}

	return b
}

// Method returns the route verb.
func (b *RouteBuilder) Method() string { return b.method }

// URI returns the full template including any sub-router prefix.
func (b *RouteBuilder) URI() string { return b.prefix + b.uri }

// build resolves the handler and compiles the filter chain:
// globals, local, controller hierarchy, then action filters.
func (b *RouteBuilder) build() (*RouteSpec, error) {
	fail := func(hint string, err error) (*RouteSpec, error) {
		return nil, &ConfigError{Method: b.method, URI: b.URI(), Handler: b.handler, Hint: hint, Err: err}
	}

	if b.uri == "" && b.prefix == "" {
		return fail("call Route before With", ErrEmptyRoute)
	}

	tmpl, err := route.Parse(b.URI())
	if err != nil {
		return fail("fix the uri template", err)
	}

	var (
		handler      HandlerFunc
		ownerFilters []Filter
		hasRef       bool
	)
	switch {
	case b.fixed != nil:
		res := *b.fixed
		handler = func(*Context) Result { return res }
	case !b.handler.IsZero():
		var hint string
		handler, ownerFilters, hint, err = b.router.resolve(b.handler)
		if err != nil {
			return fail(hint, err)
		}
		hasRef = true
	default:
		return fail("call With or WithResult", ErrNoHandler)
	}

	globals := b.router.globals
	if b.overridden {
		globals = b.globals
	}

	filters := make([]Filter, 0, len(globals)+len(b.local)+len(ownerFilters))
	filters = append(filters, globals...)
	filters = append(filters, b.local...)
	filters = append(filters, ownerFilters...)

	return &RouteSpec{
		method:   b.method,
		template: tmpl,
		handler:  b.handler,
		hasRef:   hasRef,
		chain:    NewFilterChain(handler, filters...),
	}, nil
}
