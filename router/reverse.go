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
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// ReverseRouter builds URLs for controller actions from the compiled
// routes. It is safe for concurrent use; each URLBuilder is not.
type ReverseRouter struct {
	router *Router
}

// Reverse returns the router's reverse router.
func (r *Router) Reverse() *ReverseRouter {
	return &ReverseRouter{router: r}
}

// With starts a URL for the first route registered for ref. A handler
// without a route is reported by Build. It panics with
// ErrRoutesNotCompiled before CompileRoutes.
//
//	u, err := r.Reverse().With(users.Ref("Show")).
//	    PathParam("id", 42).
//	    QueryParam("tab", "posts").
//	    Build() // "/users/42?tab=posts"
func (rr *ReverseRouter) With(ref HandlerRef) *URLBuilder {
	b := &URLBuilder{router: rr.router, ref: ref}

	spec, ok := rr.router.GetRouteForHandler(ref)
	if !ok {
		b.err = fmt.Errorf("%w: %s", ErrHandlerNotRouted, ref)
		return b
	}
	b.spec = spec
	b.path = make(map[string]string, len(spec.Parameters()))

	return b
}

// URLFor builds the path of ref's route with params, without a query.
func (r *Router) URLFor(ref HandlerRef, params map[string]any) (string, error) {
	b := r.Reverse().With(ref)
	for name, v := range params {
		b.PathParam(name, v)
	}

	return b.Build()
}

// MustURLFor is URLFor that panics on error.
func (r *Router) MustURLFor(ref HandlerRef, params map[string]any) string {
	u, err := r.URLFor(ref, params)
	if err != nil {
		panic(err)
	}

	return u
}

// URLBuilder accumulates parameters for one reverse URL. The first error is
// kept and returned by Build.
type URLBuilder struct {
	router *Router
	spec   *RouteSpec
	ref    HandlerRef
	path   map[string]string
	query  []string
	scheme string
	host   string
	err    error
}

// PathParam sets a placeholder value, percent-encoded for a path segment.
// v may be any value cast can render as a string.
func (b *URLBuilder) PathParam(name string, v any) *URLBuilder {
	s, ok := b.stringValue(name, v)
	if ok {
		b.setPath(name, url.PathEscape(s))
	}

	return b
}

// RawPathParam sets a placeholder value without encoding.
func (b *URLBuilder) RawPathParam(name string, v any) *URLBuilder {
	s, ok := b.stringValue(name, v)
	if ok {
		b.setPath(name, s)
	}

	return b
}

// QueryParam appends a query parameter, percent-encoded. Parameters keep
// insertion order.
func (b *URLBuilder) QueryParam(name string, v any) *URLBuilder {
	s, ok := b.stringValue(name, v)
	if ok {
		b.query = append(b.query, url.QueryEscape(name)+"="+url.QueryEscape(s))
	}

	return b
}

// RawQueryParam appends a query parameter without encoding.
func (b *URLBuilder) RawQueryParam(name string, v any) *URLBuilder {
	s, ok := b.stringValue(name, v)
	if ok {
		b.query = append(b.query, name+"="+s)
	}

	return b
}

// Absolute makes Build return an absolute URL.
func (b *URLBuilder) Absolute(scheme, host string) *URLBuilder {
	b.scheme, b.host = scheme, host
	if host == "" && b.err == nil {
		b.err = ErrMissingHost
	}

	return b
}

// AbsoluteFrom makes Build return an absolute URL with the scheme and host
// of c's request. Websocket routes get ws or wss.
func (b *URLBuilder) AbsoluteFrom(c *Context) *URLBuilder {
	scheme := c.Scheme()
	if b.spec != nil && b.spec.IsWebSocket() {
		switch scheme {
		case "http":
			scheme = "ws"
		case "https":
			scheme = "wss"
		}
	}

	return b.Absolute(scheme, c.Host())
}

// Build returns the URL, or the first error recorded while building.
func (b *URLBuilder) Build() (string, error) {
	if b.err != nil {
		return "", b.err
	}

	for _, p := range b.spec.Parameters() {
		if _, ok := b.path[p.Name]; !ok {
			return "", fmt.Errorf("%w: %q for %s (%s)", ErrMissingRouteParameter, p.Name, b.ref, b.spec.URI())
		}
	}

	path, err := b.spec.template.Expand(b.path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMissingRouteParameter, err)
	}

	var sb strings.Builder
	if b.host != "" {
		sb.WriteString(b.scheme)
		sb.WriteString("://")
		sb.WriteString(b.host)
	}
	sb.WriteString(b.router.contextPath)
	sb.WriteString(path)
	if len(b.query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(strings.Join(b.query, "&"))
	}

	return sb.String(), nil
}

// MustBuild is Build that panics on error.
func (b *URLBuilder) MustBuild() string {
	u, err := b.Build()
	if err != nil {
		panic(err)
	}

	return u
}

// Redirect returns a 303 See Other result to the built URL.
func (b *URLBuilder) Redirect() (Result, error) {
	u, err := b.Build()
	if err != nil {
		return Result{}, err
	}

	return Redirect(http.StatusSeeOther, u), nil
}

func (b *URLBuilder) stringValue(name string, v any) (string, bool) {
	if b.err != nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		b.err = fmt.Errorf("%w: %q: %w", ErrInvalidParameterValue, name, err)
		return "", false
	}

	return s, true
}

func (b *URLBuilder) setPath(name, value string) {
	if _, ok := b.spec.template.Lookup(name); !ok {
		b.err = fmt.Errorf("%w: %q for %s (%s)", ErrUnknownParameter, name, b.ref, b.spec.URI())
		return
	}
	b.path[name] = value
}
