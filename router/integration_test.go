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

//go:build integration

package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/dispatch/router"
)

var _ = Describe("Dispatch", func() {
	var (
		r      *router.Router
		events []string
		mu     sync.Mutex
	)

	record := func(name string) router.FilterFunc {
		return func(chain router.Chain, c *router.Context) router.Result {
			mu.Lock()
			events = append(events, name)
			mu.Unlock()

			return chain.Next(c)
		}
	}

	BeforeEach(func() {
		events = nil
		r = router.MustNew()
		r.Use(record("global"))

		users := r.Controller("Users").
			Filters(record("users")).
			Action("Index", func(*router.Context) router.Result {
				return router.JSON(http.StatusOK, []string{"ada", "grace"})
			}).
			Action("Show", func(c *router.Context) router.Result {
				return router.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
			}).
			Action("Create", func(c *router.Context) router.Result {
				res, err := r.Reverse().With(router.Ref("Users", "Show")).PathParam("id", 99).Redirect()
				if err != nil {
					return c.Problem(err)
				}
				return res
			})

		api := r.SubRouter("/api")
		api.GET().Route("/users").With(users.Ref("Index"))
		api.GET().Route("/users/{id: [0-9]+}").With(users.Ref("Show"))
		api.POST().Route("/users").With(users.Ref("Create"))
		r.GET().Route("/health").NoGlobalFilters().WithResult(router.Text(http.StatusOK, "ok"))

		Expect(r.CompileRoutes()).To(Succeed())
	})

	serve := func(method, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		return rec
	}

	Describe("matching", func() {
		It("dispatches through the sub-router prefix", func() {
			rec := serve(http.MethodGet, "/api/users/7")

			Expect(rec.Code).To(Equal(http.StatusOK))
			var body map[string]string
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("id", "7"))
		})

		It("answers unmatched requests with a problem document", func() {
			rec := serve(http.MethodGet, "/api/users/ada")

			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Header().Get("Content-Type")).To(HavePrefix("application/problem+json"))
		})

		It("keeps fixed-result routes outside global filters", func() {
			rec := serve(http.MethodGet, "/health")

			Expect(rec.Body.String()).To(Equal("ok"))
			Expect(events).To(BeEmpty())
		})
	})

	Describe("filters", func() {
		It("runs global filters before controller filters", func() {
			serve(http.MethodGet, "/api/users")

			Expect(events).To(Equal([]string{"global", "users"}))
		})
	})

	Describe("reverse routing", func() {
		It("redirects to a URL that routes back to the target", func() {
			rec := serve(http.MethodPost, "/api/users")

			Expect(rec.Code).To(Equal(http.StatusSeeOther))
			location := rec.Header().Get("Location")
			Expect(location).To(Equal("/api/users/99"))

			spec, ok := r.GetRouteFor(http.MethodGet, location)
			Expect(ok).To(BeTrue())
			ref, _ := spec.Handler()
			Expect(ref.String()).To(Equal("Users.Show"))
		})
	})

	Describe("concurrency", func() {
		It("serves parallel requests against the compiled routes", func() {
			var wg sync.WaitGroup
			codes := make([]int, 64)
			for i := range codes {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					codes[i] = serve(http.MethodGet, "/api/users/"+strings.Repeat("1", i%5+1)).Code
				}()
			}
			wg.Wait()

			for _, code := range codes {
				Expect(code).To(Equal(http.StatusOK))
			}
		})
	})
})
