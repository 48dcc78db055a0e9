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
	"net/http"
)

// UnmatchedRoute is the route label observers use for requests no route
// matched.
const UnmatchedRoute = "_unmatched"

// Observer watches every dispatch made through ServeHTTP.
//
// OnDispatchStart runs after matching, before the filter chain. It may
// return a derived context (for example carrying a span) that replaces the
// request context, and an opaque state value handed back to OnDispatchEnd.
// c.Route() is nil when no route matched.
//
// OnDispatchEnd runs with the final Result before it is written.
//
// Implementations must be safe for concurrent use.
type Observer interface {
	OnDispatchStart(ctx context.Context, c *Context) (context.Context, any)
	OnDispatchEnd(ctx context.Context, state any, c *Context, result Result)
}

// RouteLabel returns the template of the matched route, or UnmatchedRoute.
// Observers use it to keep label cardinality bounded.
func RouteLabel(c *Context) string {
	if spec := c.Route(); spec != nil {
		return spec.URI()
	}

	return UnmatchedRoute
}

// observe runs fn between the observers' start and end hooks. When fn
// panics, the end hooks still run with a 500 Result and the panic is
// re-raised.
func (r *Router) observe(c *Context, fn func() Result) (res Result) {
	if len(r.observers) == 0 {
		return fn()
	}

	ctx := c.Context()
	states := make([]any, len(r.observers))
	for i, o := range r.observers {
		ctx, states[i] = o.OnDispatchStart(ctx, c)
	}
	c.SetContext(ctx)

	defer func() {
		rec := recover()
		if rec != nil {
			res = Status(http.StatusInternalServerError)
		}
		for i := len(r.observers) - 1; i >= 0; i-- {
			r.observers[i].OnDispatchEnd(ctx, states[i], c, res)
		}
		if rec != nil {
			panic(rec)
		}
	}()

	return fn()
}
