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
)

// HandlerRef identifies a controller action. It is the key routes are
// registered under and the key reverse routing looks them up by.
type HandlerRef struct {
	Controller string
	Action     string
}

// Ref is shorthand for HandlerRef{Controller: controller, Action: action}.
func Ref(controller, action string) HandlerRef {
	return HandlerRef{Controller: controller, Action: action}
}

// String returns "Controller.Action".
func (h HandlerRef) String() string {
	return h.Controller + "." + h.Action
}

// IsZero reports whether h is the zero reference.
func (h HandlerRef) IsZero() bool {
	return h.Controller == "" && h.Action == ""
}

// Controller is a named table of actions sharing filters.
//
// Filters declared on a controller apply to every route targeting one of
// its actions. A controller may extend one parent and implement any number
// of other controllers; their filters apply too, parent first, then the
// implemented controllers in declaration order, then the controller's own.
// Action filters run last, right before the handler.
//
// A single controller:
//
//	users := r.Controller("Users").
//	    Action("List", listUsers).
//	    Action("Show", showUser)
//	r.GET().Route("/users").With(users.Ref("List"))
//	r.GET().Route("/users/{id}").With(users.Ref("Show"))
//
// Inheriting filters from a parent:
//
//	base := r.Controller("Base").Filters(audit)
//	users := r.Controller("Users").Extends(base).
//	    Action("Show", showUser, cacheFilter)
//
// Mixing in shared behaviour; the chain for Users.Show is
// audit, tenant, timing, cacheFilter:
//
//	tenant := r.Controller("Tenant").Filters(tenantFilter)
//	users.Implements(tenant).Filters(timing)
//
// Controllers are looked up by name, so Ref works before the controller is
// declared:
//
//	r.GET().Route("/users/{id}").With(router.Ref("Users", "Show"))
type Controller struct {
	router     *Router
	name       string
	parent     *Controller
	implements []*Controller
	filters    []Filter
	actions    map[string][]*action
}

type action struct {
	name    string
	handler HandlerFunc
	filters []Filter
}

// Controller returns the controller registered under name, creating it on
// first use.
func (r *Router) Controller(name string) *Controller {
	if ctl, ok := r.controllers[name]; ok {
		return ctl
	}
	r.mustBeMutable()

	ctl := &Controller{
		router:  r,
		name:    name,
		actions: make(map[string][]*action),
	}
	r.controllers[name] = ctl

	return ctl
}

// Name returns the controller name.
func (ctl *Controller) Name() string { return ctl.name }

// Extends sets the parent controller. A later call replaces the parent.
// Cycles are reported by CompileRoutes.
func (ctl *Controller) Extends(parent *Controller) *Controller {
	ctl.router.mustBeMutable()
	ctl.parent = parent

	return ctl
}

// Implements appends controllers whose filters apply after the parent's.
func (ctl *Controller) Implements(others ...*Controller) *Controller {
	ctl.router.mustBeMutable()
	ctl.implements = append(ctl.implements, others...)

	return ctl
}

// Filters appends controller-level filters.
func (ctl *Controller) Filters(filters ...Filter) *Controller {
	ctl.router.mustBeMutable()
	ctl.filters = append(ctl.filters, filters...)

	return ctl
}

// Action registers a handler under name with action-level filters.
// Registering the same name twice leaves the name ambiguous: routes
// targeting it fail to build.
//
//	users.Action("Show", func(c *router.Context) router.Result {
//	    u, ok := store.Get(c.Param("id"))
//	    if !ok {
//	        return router.NotFound()
//	    }
//	    return router.JSON(http.StatusOK, u)
//	}, cacheFilter)
func (ctl *Controller) Action(name string, h HandlerFunc, filters ...Filter) *Controller {
	ctl.router.mustBeMutable()
	ctl.actions[name] = append(ctl.actions[name], &action{
		name:    name,
		handler: h,
		filters: append([]Filter(nil), filters...),
	})

	return ctl
}

// Ref returns the reference to one of the controller's actions.
func (ctl *Controller) Ref(action string) HandlerRef {
	return HandlerRef{Controller: ctl.name, Action: action}
}

// hierarchyFilters walks parent, implemented controllers, then ctl itself.
// stack holds the controllers on the current path for cycle detection;
// reaching the same controller through two branches is not a cycle.
func (ctl *Controller) hierarchyFilters(stack map[*Controller]bool) ([]Filter, error) {
	if stack[ctl] {
		return nil, fmt.Errorf("%w: %s", ErrControllerCycle, ctl.name)
	}
	stack[ctl] = true
	defer delete(stack, ctl)

	var out []Filter
	if ctl.parent != nil {
		fs, err := ctl.parent.hierarchyFilters(stack)
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}
	for _, other := range ctl.implements {
		fs, err := other.hierarchyFilters(stack)
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}

	return append(out, ctl.filters...), nil
}

// resolve finds the handler for ref and the filters its controller
// hierarchy and action contribute, in that order.
func (r *Router) resolve(ref HandlerRef) (HandlerFunc, []Filter, string, error) {
	ctl, ok := r.controllers[ref.Controller]
	if !ok {
		return nil, nil, "register it with Router.Controller", ErrControllerNotFound
	}

	acts := ctl.actions[ref.Action]
	switch {
	case len(acts) == 0:
		return nil, nil, fmt.Sprintf("register it with Controller(%q).Action", ctl.name), ErrActionNotFound
	case len(acts) > 1:
		return nil, nil, fmt.Sprintf("action registered %d times; give each handler its own name", len(acts)), ErrAmbiguousAction
	}
	act := acts[0]
	if act.handler == nil {
		return nil, nil, "action registered with a nil handler", ErrNoHandler
	}

	filters, err := ctl.hierarchyFilters(make(map[*Controller]bool))
	if err != nil {
		return nil, nil, "remove the circular Extends/Implements declaration", err
	}

	return act.handler, append(filters, act.filters...), "", nil
}
