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
	"reflect"
	"runtime"
	"strings"
)

// HandlerFunc produces the response of a route.
type HandlerFunc func(c *Context) Result

// Filter intercepts a request before and after the rest of its chain.
//
// A filter passes the request on with chain.Next(c), may inspect or replace
// the returned Result, or may return its own Result without calling Next to
// short-circuit. Next may be called at most once per invocation.
//
//	var timing router.FilterFunc = func(chain router.Chain, c *router.Context) router.Result {
//	    start := time.Now()
//	    res := chain.Next(c)
//	    return res.WithHeader("Server-Timing", fmt.Sprintf("app;dur=%d", time.Since(start).Milliseconds()))
//	}
type Filter interface {
	Filter(chain Chain, c *Context) Result
}

// FilterFunc adapts a function to [Filter].
type FilterFunc func(chain Chain, c *Context) Result

// Filter implements [Filter].
func (f FilterFunc) Filter(chain Chain, c *Context) Result {
	return f(chain, c)
}

// Named is implemented by filters that report their own name in route
// listings and error messages.
type Named interface {
	Name() string
}

// Chain is the remainder of a filter chain, handed to exactly one filter.
type Chain struct {
	inv *invocation
	pos int
}

// Next runs the rest of the chain and returns its result. It panics with
// ErrNextCalledTwice when called again by the same filter invocation.
func (ch Chain) Next(c *Context) Result {
	if ch.inv == nil {
		panic("router: Next called on a zero Chain")
	}

	return ch.inv.run(ch.pos, c)
}

// invocation is the per-request cursor over a shared FilterChain. cursor is
// the next position allowed to run.
type invocation struct {
	chain  *FilterChain
	cursor int
}

func (inv *invocation) run(pos int, c *Context) Result {
	if inv.cursor != pos {
		panic(fmt.Errorf("%w: %s", ErrNextCalledTwice, inv.chain.names[pos-1]))
	}
	inv.cursor = pos + 1

	if pos == len(inv.chain.filters) {
		return inv.chain.handler(c)
	}

	return inv.chain.filters[pos].Filter(Chain{inv: inv, pos: pos + 1}, c)
}

// FilterChain is the compiled, immutable filter list of a route with its
// terminal handler. Element 0 is the outermost filter. A FilterChain is
// shared by every request of its route; per-request state lives in the
// cursor allocated by Invoke.
type FilterChain struct {
	filters []Filter
	names   []string
	handler HandlerFunc
}

// NewFilterChain compiles filters in order around handler.
func NewFilterChain(handler HandlerFunc, filters ...Filter) *FilterChain {
	fc := &FilterChain{
		filters: make([]Filter, len(filters)),
		names:   make([]string, len(filters)),
		handler: handler,
	}
	copy(fc.filters, filters)
	for i, f := range filters {
		fc.names[i] = FilterName(f)
	}

	return fc
}

// Invoke runs the chain from its first filter.
func (fc *FilterChain) Invoke(c *Context) Result {
	inv := &invocation{chain: fc}
	return inv.run(0, c)
}

// Len returns the number of filters, excluding the handler.
func (fc *FilterChain) Len() int { return len(fc.filters) }

// Names returns the filter names in execution order.
func (fc *FilterChain) Names() []string {
	out := make([]string, len(fc.names))
	copy(out, fc.names)

	return out
}

// Filters returns the filters in execution order.
func (fc *FilterChain) Filters() []Filter {
	out := make([]Filter, len(fc.filters))
	copy(out, fc.filters)

	return out
}

// FilterName returns a display name for f: its Name method when it
// implements [Named], the function name for a FilterFunc, else the type.
func FilterName(f Filter) string {
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	if fn, ok := f.(FilterFunc); ok {
		if rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()); rf != nil {
			return shortFuncName(rf.Name())
		}
	}

	return strings.TrimPrefix(fmt.Sprintf("%T", f), "*")
}

// shortFuncName trims the import path from a runtime function name.
func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	return name
}
