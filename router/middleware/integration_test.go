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

package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware"
	"rivaas.dev/dispatch/router/middleware/accesslog"
	"rivaas.dev/dispatch/router/middleware/recovery"
	"rivaas.dev/dispatch/router/middleware/requestid"
)

// testLogHandler captures log records for assertions.
type testLogHandler struct {
	mu      sync.Mutex
	records []testLogRecord
}

type testLogRecord struct {
	level slog.Level
	msg   string
	attrs map[string]any
}

func (h *testLogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *testLogHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	h.records = append(h.records, testLogRecord{level: r.Level, msg: r.Message, attrs: attrs})

	return nil
}

func (h *testLogHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *testLogHandler) WithGroup(string) slog.Handler      { return h }

func (h *testLogHandler) byMessage(msg string) []testLogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []testLogRecord
	for _, r := range h.records {
		if r.msg == msg {
			out = append(out, r)
		}
	}

	return out
}

// gate rejects requests without an X-User header.
type gate struct{}

func (gate) Name() string { return "gate" }

func (gate) Filter(chain router.Chain, c *router.Context) router.Result {
	if c.Header("X-User") == "" {
		return router.Status(http.StatusForbidden)
	}

	return chain.Next(c)
}

var _ = Describe("Middleware Integration", Label("integration"), func() {
	var (
		logs *testLogHandler
		r    *router.Router
	)

	BeforeEach(func() {
		logs = &testLogHandler{}
		logger := slog.New(logs)

		r = router.MustNew(router.WithLogger(logger))
		r.Use(requestid.New(), accesslog.New(accesslog.WithLogger(logger)), recovery.New())

		pages := r.Controller("Pages").
			Action("Hello", func(c *router.Context) router.Result {
				return router.Textf(http.StatusOK, "hello %s", requestid.Get(c))
			}).
			Action("Boom", func(*router.Context) router.Result {
				panic("boom")
			})
		admin := r.Controller("Admin").
			Filters(gate{}).
			Action("Dashboard", func(c *router.Context) router.Result {
				return router.Textf(http.StatusOK, "welcome %s", c.Header("X-User"))
			})

		r.GET().Route("/hello").With(pages.Ref("Hello"))
		r.GET().Route("/boom").With(pages.Ref("Boom"))
		r.GET().Route("/admin").With(admin.Ref("Dashboard"))
		Expect(r.CompileRoutes()).To(Succeed())
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	Describe("Basic Stack", func() {
		It("shares the request id between handler, response and access log", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/hello", nil))

			id := rec.Header().Get(requestid.DefaultHeader)
			Expect(id).NotTo(BeEmpty())
			Expect(rec.Body.String()).To(Equal("hello " + id))

			access := logs.byMessage("access")
			Expect(access).To(HaveLen(1))
			Expect(access[0].level).To(Equal(slog.LevelInfo))
			Expect(access[0].attrs).To(HaveKeyWithValue("request_id", id))
			Expect(access[0].attrs).To(HaveKeyWithValue("route", "/hello"))
		})

		It("recovers panics inside the access log and request id", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/boom", nil))

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Header().Get(requestid.DefaultHeader)).NotTo(BeEmpty())
			Expect(logs.byMessage("panic recovered")).To(HaveLen(1))

			access := logs.byMessage("access")
			Expect(access).To(HaveLen(1))
			Expect(access[0].level).To(Equal(slog.LevelError))
			Expect(access[0].attrs).To(HaveKeyWithValue("panic", true))
		})
	})

	Describe("Controller filters", func() {
		It("short-circuits after the global filters", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, "/admin", nil))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Header().Get(requestid.DefaultHeader)).NotTo(BeEmpty())
			Expect(logs.byMessage("access")[0].level).To(Equal(slog.LevelWarn))
		})

		It("passes admitted requests to the action", func() {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("X-User", "root")

			rec := serve(req)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("welcome root"))
		})

		It("lists the whole chain in introspection order", func() {
			spec, ok := r.GetRouteFor(http.MethodGet, "/admin")
			Expect(ok).To(BeTrue())
			Expect(spec.FilterChain().Names()).To(Equal([]string{"requestid", "accesslog", "recovery", "gate"}))
		})
	})

	Describe("Shared keys", func() {
		It("exposes the request id in the standard context", func() {
			var fromCtx any
			r2 := router.MustNew()
			r2.Use(requestid.New())
			ctl := r2.Controller("C").Action("A", func(c *router.Context) router.Result {
				fromCtx = c.Context().Value(middleware.RequestIDContextKey)
				return router.NoContent()
			})
			r2.GET().Route("/").With(ctl.Ref("A"))
			Expect(r2.CompileRoutes()).To(Succeed())

			rec := httptest.NewRecorder()
			r2.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(fromCtx).To(Equal(rec.Header().Get(requestid.DefaultHeader)))
		})
	})
})
