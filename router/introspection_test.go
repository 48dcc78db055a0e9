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
	"bytes"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRouteInfos(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := MustNew()
	r.Use(tracing{"requestid", tr})
	users := r.Controller("Users").Filters(tracing{"auth", tr}).Action("Show", paramHandler("id"))
	r.GET().Route("/users/{id}").With(users.Ref("Show"))
	r.WS().Route("/live").NoGlobalFilters().WithResult(NoContent())
	r.DELETE().Route("/users/{id}").With(Ref("Users", "Delete"))
	mustCompile(t, r)

	want := []RouteInfo{
		{Method: http.MethodGet, URI: "/users/{id}", Handler: "Users.Show", Filters: []string{"requestid", "auth"}},
		{Method: MethodWS, URI: "/live", Handler: "-", Filters: []string{}},
	}
	if diff := cmp.Diff(want, r.RouteInfos()); diff != "" {
		t.Errorf("RouteInfos() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintRoutes(t *testing.T) {
	t.Parallel()

	r := MustNew()
	users := r.Controller("Users").Action("Show", paramHandler("id"))
	r.GET().Route("/users/{id}").With(users.Ref("Show"))
	r.GET().Route("/health").WithResult(Text(http.StatusOK, "ok"))
	mustCompile(t, r)

	var buf bytes.Buffer
	r.PrintRoutes(&buf)
	out := buf.String()

	for _, s := range []string{"Method", "Route", "Handler", "Filters", "/users/{id}", "Users.Show", "/health"} {
		assert.Contains(t, out, s)
	}
	assert.NotContains(t, out, "\x1b[", "no colors when not writing to a terminal")
}

func TestPrintRoutes_Empty(t *testing.T) {
	t.Parallel()

	r := MustNew()
	mustCompile(t, r)

	var buf bytes.Buffer
	r.PrintRoutes(&buf)
	assert.Empty(t, buf.String())
}
