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

//go:build !integration

package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware/accesslog"
	"rivaas.dev/dispatch/router/middleware/recovery"
	"rivaas.dev/dispatch/router/middleware/requestid"
)

// Example_basicChain builds a router with the standard filters and shows the
// chain compiled for a route.
func Example_basicChain() {
	r := router.MustNew()
	r.Use(recovery.New(), requestid.New(), accesslog.New())

	health := r.Controller("Health").Action("Check", func(*router.Context) router.Result {
		return router.Text(http.StatusOK, "OK")
	})
	r.GET().Route("/health").With(health.Ref("Check"))
	if err := r.CompileRoutes(); err != nil {
		panic(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	spec, _ := r.GetRouteFor(http.MethodGet, "/health")
	fmt.Println(w.Body.String())
	fmt.Println("status:", w.Code)
	fmt.Println("filters:", spec.FilterChain().Names())
	// Output:
	// OK
	// status: 200
	// filters: [recovery requestid accesslog]
}
