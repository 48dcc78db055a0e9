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

// Package router maps requests to controller actions through ordered URI
// templates and per-route filter chains, and builds URLs back from actions.
//
// # Registration and compilation
//
// Routes are described at startup with a fluent DSL and compiled once:
//
//	r := router.MustNew(router.WithLogger(logger))
//	r.Use(requestid.New(), recovery.New())
//
//	users := r.Controller("Users").Filters(audit).
//	    Action("Show", showUser).
//	    Action("Index", listUsers)
//
//	r.GET().Route("/users").With(users.Ref("Index"))
//	r.GET().Route("/users/{id: [0-9]+}").With(users.Ref("Show"))
//	r.GET().Route("/health").NoGlobalFilters().WithResult(router.Text(200, "ok"))
//
//	if err := r.CompileRoutes(); err != nil {
//	    log.Fatal(err)
//	}
//
// Routes match in registration order and the first match wins. A route
// whose handler cannot be resolved is logged, reported as a diagnostic and
// dropped; it never matches. [WithStrictRoutes] turns those configuration
// errors into a CompileRoutes error.
//
// # Filters
//
// Every route runs a [FilterChain] built at compile time from, in order:
// the global filters (the router defaults from [Router.Use], or the
// route's [RouteBuilder.GlobalFilters] override), the route's local
// filters, the controller hierarchy filters (parent, implemented
// controllers, the controller itself) and the action filters. Filter 0 is
// outermost; the handler runs last and its [Result] unwinds back through
// the filters.
//
// # Reverse routing
//
//	u, err := r.Reverse().With(users.Ref("Show")).PathParam("id", 42).Build()
//	// u == "/users/42"
//
// When an action is routed more than once, reverse routing uses the first
// registration.
//
// # Concurrency
//
// Registration is single-threaded. After CompileRoutes the router is
// read-only and safe for concurrent dispatch; lookups before compilation
// panic with [ErrRoutesNotCompiled] and registration after it panics with
// [ErrRoutesAlreadyCompiled].
package router
