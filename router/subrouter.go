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

import "net/http"

// SubRouter registers routes on its root router under a path prefix.
//
//	api := r.SubRouter("/api")
//	v1 := api.SubRouter("/v1")
//	v1.GET().Route("/users/{id}").With(users.Ref("Show")) // GET /api/v1/users/{id}
type SubRouter struct {
	root   *Router
	prefix string
}

// SubRouter returns a sub-router prefixing every route with prefix.
//
//	api := r.SubRouter("/api")
//	api.GET().Route("/orders").With(orders.Ref("List"))  // GET /api/orders
//
//	v2 := api.SubRouter("/v2")
//	v2.GET().Route("/orders").With(ordersV2.Ref("List")) // GET /api/v2/orders
func (r *Router) SubRouter(prefix string) *SubRouter {
	return &SubRouter{root: r, prefix: prefix}
}

// SubRouter nests a sub-router; prefixes concatenate.
func (s *SubRouter) SubRouter(prefix string) *SubRouter {
	return &SubRouter{root: s.root, prefix: s.prefix + prefix}
}

// Prefix returns the accumulated path prefix.
func (s *SubRouter) Prefix() string { return s.prefix }

// GET registers a GET route under the prefix.
func (s *SubRouter) GET() *RouteBuilder { return s.METHOD(http.MethodGet) }

// POST registers a POST route under the prefix.
func (s *SubRouter) POST() *RouteBuilder { return s.METHOD(http.MethodPost) }

// PUT registers a PUT route under the prefix.
func (s *SubRouter) PUT() *RouteBuilder { return s.METHOD(http.MethodPut) }

// DELETE registers a DELETE route under the prefix.
func (s *SubRouter) DELETE() *RouteBuilder { return s.METHOD(http.MethodDelete) }

// PATCH registers a PATCH route under the prefix.
func (s *SubRouter) PATCH() *RouteBuilder { return s.METHOD(http.MethodPatch) }

// OPTIONS registers an OPTIONS route under the prefix.
func (s *SubRouter) OPTIONS() *RouteBuilder { return s.METHOD(http.MethodOptions) }

// HEAD registers a HEAD route under the prefix.
func (s *SubRouter) HEAD() *RouteBuilder { return s.METHOD(http.MethodHead) }

// WS registers a websocket route under the prefix.
func (s *SubRouter) WS() *RouteBuilder { return s.METHOD(MethodWS) }

// METHOD registers a route for an arbitrary verb under the prefix.
func (s *SubRouter) METHOD(verb string) *RouteBuilder {
	return s.root.register(verb, s.prefix)
}
