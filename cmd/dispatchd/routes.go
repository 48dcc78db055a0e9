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

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"rivaas.dev/dispatch/router"
)

// ownerKey is the context attribute holding the caller's owner name.
const ownerKey = "dispatchd.owner"

var errMissingItem = errors.New("missing item")

type orderNotFoundError struct{ id int }

func (e orderNotFoundError) Error() string { return fmt.Sprintf("order %d not found", e.id) }
func (orderNotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (orderNotFoundError) Code() string    { return "order_not_found" }

type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }
func (badRequestError) HTTPStatus() int { return http.StatusBadRequest }
func (badRequestError) Code() string    { return "bad_request" }

// ownerFilter records the X-Owner header, or "anonymous", for the actions.
type ownerFilter struct{}

func (ownerFilter) Name() string { return "owner" }

func (ownerFilter) Filter(chain router.Chain, c *router.Context) router.Result {
	owner := c.Header("X-Owner")
	if owner == "" {
		owner = "anonymous"
	}
	c.Set(ownerKey, owner)

	return chain.Next(c)
}

func ownerOf(c *router.Context) string {
	v, _ := c.Get(ownerKey)
	s, _ := v.(string)

	return s
}

// registerRoutes wires the demo controllers. Orders inherits the owner
// filter from Base; Create redirects to the new order via reverse routing.
func registerRoutes(r *router.Router, store *orderStore) {
	base := r.Controller("Base").Filters(ownerFilter{})

	orders := r.Controller("Orders").Extends(base).
		Action("List", func(*router.Context) router.Result {
			return router.JSON(http.StatusOK, store.list())
		}).
		Action("Show", func(c *router.Context) router.Result {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				return c.Problem(badRequestError{err: err})
			}
			o, ok := store.get(id)
			if !ok {
				return c.Problem(orderNotFoundError{id: id})
			}

			return router.JSON(http.StatusOK, o)
		}).
		Action("Create", func(c *router.Context) router.Result {
			item := c.Query("item")
			if item == "" {
				return c.Problem(badRequestError{err: errMissingItem})
			}
			o := store.add(item, ownerOf(c))
			c.Logger().InfoContext(c.Context(), "order created", "order_id", o.ID, "owner", o.Owner)

			res, err := r.Reverse().With(router.Ref("Orders", "Show")).PathParam("id", o.ID).Redirect()
			if err != nil {
				return c.Problem(err)
			}

			return res
		})

	api := r.SubRouter("/api")
	api.GET().Route("/orders").With(orders.Ref("List"))
	api.GET().Route("/orders/{id: [0-9]+}").With(orders.Ref("Show"))
	api.POST().Route("/orders").With(orders.Ref("Create"))

	r.GET().Route("/health").NoGlobalFilters().WithResult(router.Text(http.StatusOK, "ok"))
}
