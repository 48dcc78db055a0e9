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
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Param is a single decoded path parameter.
type Param struct {
	Key   string
	Value string
}

// Params holds path parameters in template order.
type Params []Param

// Get returns the value of the named parameter.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Key == name {
			return p.Value, true
		}
	}

	return "", false
}

// ByName returns the value of the named parameter or "".
func (ps Params) ByName(name string) string {
	v, _ := ps.Get(name)
	return v
}

// Context carries one request through a route's filter chain.
//
// A Context belongs to a single dispatch and must not be shared between
// goroutines. Filters may store values with [Context.Set] for filters and
// handlers further down the chain.
type Context struct {
	ctx     context.Context
	request *http.Request
	method  string
	path    string
	params  Params
	route   *RouteSpec
	attrs   map[string]any
	logger  *slog.Logger
	router  *Router
}

// NewContext creates a context for dispatching method and path directly,
// without an HTTP server. path may carry a query string.
//
//	spec, ok := r.GetRouteFor("GET", "/users/42")
//	if ok {
//	    res := spec.Invoke(router.NewContext("GET", "/users/42"))
//	}
func NewContext(method, path string) *Context {
	u, err := url.ParseRequestURI(path)
	if err != nil {
		u = &url.URL{Path: path}
	}
	req := (&http.Request{
		Method:     method,
		URL:        u,
		RequestURI: path,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     make(http.Header),
	}).WithContext(context.Background())

	c := NewRequestContext(req)
	c.method = method

	return c
}

// NewRequestContext creates a context for an incoming HTTP request. The path
// used for matching is the escaped request path.
func NewRequestContext(req *http.Request) *Context {
	return &Context{
		ctx:     req.Context(),
		request: req,
		method:  req.Method,
		path:    req.URL.EscapedPath(),
	}
}

// Method returns the dispatch verb. Websocket upgrades report "WS".
func (c *Context) Method() string { return c.method }

// Path returns the escaped request path the route was matched against.
func (c *Context) Path() string { return c.path }

// Request returns the underlying request. Contexts built with NewContext
// carry a synthetic request.
func (c *Context) Request() *http.Request { return c.request }

// Header returns the first value of the named request header.
func (c *Context) Header(name string) string {
	return c.request.Header.Get(name)
}

// Query returns the first value of the named query parameter.
func (c *Context) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

// Param returns the decoded value of a path parameter or "".
func (c *Context) Param(name string) string {
	return c.params.ByName(name)
}

// Params returns all decoded path parameters in template order.
func (c *Context) Params() Params { return c.params }

// Set stores a value for filters and handlers further down the chain.
func (c *Context) Set(key string, value any) {
	if c.attrs == nil {
		c.attrs = make(map[string]any)
	}
	c.attrs[key] = value
}

// Get returns a value stored with Set.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// Route returns the matched route, or nil before matching.
func (c *Context) Route() *RouteSpec { return c.route }

// Context returns the request's standard context.
func (c *Context) Context() context.Context { return c.ctx }

// SetContext replaces the standard context, for filters that attach
// deadlines or spans.
func (c *Context) SetContext(ctx context.Context) {
	c.ctx = ctx
	c.request = c.request.WithContext(ctx)
}

// Logger returns the router's logger, or a discarding logger when the
// context was not created by a router.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return noopLogger
	}

	return c.logger
}

// SetLogger replaces the logger for the rest of the chain.
func (c *Context) SetLogger(l *slog.Logger) {
	c.logger = l
}

// Scheme returns "https" for TLS requests, the X-Forwarded-Proto value when
// present, and "http" otherwise.
func (c *Context) Scheme() string {
	if c.request.TLS != nil {
		return "https"
	}
	if proto := c.request.Header.Get("X-Forwarded-Proto"); proto != "" {
		proto, _, _ = strings.Cut(proto, ",")
		return strings.ToLower(strings.TrimSpace(proto))
	}

	return "http"
}

// Host returns the request host.
func (c *Context) Host() string {
	if c.request.Host != "" {
		return c.request.Host
	}

	return c.request.URL.Host
}

// Problem formats err with the router's error formatter.
//
//	if user == nil {
//	    return c.Problem(errors.WithStatus(ErrNoUser, http.StatusNotFound))
//	}
func (c *Context) Problem(err error) Result {
	f := defaultFormatter
	if c.router != nil && c.router.formatter != nil {
		f = c.router.formatter
	}
	resp := f.Format(c.request, err)

	return Result{
		Status:      resp.Status,
		ContentType: resp.ContentType,
		Header:      resp.Headers,
		Body:        resp.Body,
	}
}

// bind attaches a matched route and its parameters.
func (c *Context) bind(spec *RouteSpec, params Params) {
	c.route = spec
	c.params = params
}
