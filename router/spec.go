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
	"net/url"

	"rivaas.dev/dispatch/router/route"
)

// MethodWS is the pseudo-verb of websocket routes. The HTTP adapter
// dispatches GET requests carrying "Upgrade: websocket" under it.
const MethodWS = "WS"

// RouteSpec is a compiled route: verb, template, handler reference and
// filter chain. RouteSpecs are immutable and safe for concurrent use.
type RouteSpec struct {
	method   string
	template *route.Template
	handler  HandlerRef
	hasRef   bool
	chain    *FilterChain
}

// Method returns the route verb.
func (s *RouteSpec) Method() string { return s.method }

// URI returns the raw URI template.
func (s *RouteSpec) URI() string { return s.template.String() }

// Template returns the parsed URI template.
func (s *RouteSpec) Template() *route.Template { return s.template }

// Parameters returns the template placeholders, left to right.
func (s *RouteSpec) Parameters() []route.Parameter { return s.template.Parameters() }

// Handler returns the targeted action. ok is false for WithResult routes.
func (s *RouteSpec) Handler() (ref HandlerRef, ok bool) { return s.handler, s.hasRef }

// FilterChain returns the compiled chain.
func (s *RouteSpec) FilterChain() *FilterChain { return s.chain }

// IsWebSocket reports whether the route was registered with WS.
func (s *RouteSpec) IsWebSocket() bool { return s.method == MethodWS }

// Matches reports whether the route accepts method and the escaped path.
// Methods compare case-sensitively.
func (s *RouteSpec) Matches(method, path string) bool {
	if method != s.method {
		return false
	}
	_, ok := s.template.Match(path)

	return ok
}

// PathParams extracts the placeholders from path, percent-decoded. A value
// that fails to decode is returned raw.
func (s *RouteSpec) PathParams(path string) (Params, bool) {
	raw, ok := s.template.Match(path)
	if !ok {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, true
	}

	params := make(Params, len(raw))
	for i, p := range s.template.Parameters() {
		v, err := url.PathUnescape(raw[i])
		if err != nil {
			v = raw[i]
		}
		params[i] = Param{Key: p.Name, Value: v}
	}

	return params, true
}

// Invoke binds the route and its parameters to c and runs the chain.
func (s *RouteSpec) Invoke(c *Context) Result {
	params, _ := s.PathParams(c.Path())
	c.bind(s, params)

	return s.chain.Invoke(c)
}

// String returns "METHOD /template".
func (s *RouteSpec) String() string {
	return s.method + " " + s.template.String()
}
