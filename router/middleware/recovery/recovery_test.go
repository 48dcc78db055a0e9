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

package recovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware"
)

// setup compiles a router serving GET /boom through extra filters, the
// recovery filter and handler.
func setup(t *testing.T, f *Filter, handler router.HandlerFunc, extra ...router.Filter) (*router.Router, *bytes.Buffer) {
	t.Helper()

	var logs bytes.Buffer
	r := router.MustNew(router.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	r.Use(extra...)
	r.Use(f)
	ctl := r.Controller("T").Action("Boom", handler)
	r.GET().Route("/boom").With(ctl.Ref("Boom"))
	require.NoError(t, r.CompileRoutes())
	logs.Reset()

	return r, &logs
}

func get(r *router.Router) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	return rec
}

func TestRecovery_PanicBecomesProblem(t *testing.T) {
	t.Parallel()

	r, logs := setup(t, New(), func(*router.Context) router.Result {
		panic("kaboom")
	})

	rec := get(r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["detail"])
	assert.NotContains(t, rec.Body.String(), "kaboom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "panic recovered", entry["msg"])
	assert.Equal(t, "kaboom", entry["panic"])
	assert.Equal(t, "/boom", entry["route"])
	assert.NotEmpty(t, entry["stack"])
}

func TestRecovery_NoPanicPassesThrough(t *testing.T) {
	t.Parallel()

	r, logs := setup(t, New(), func(*router.Context) router.Result {
		return router.Text(http.StatusOK, "fine")
	})

	rec := get(r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fine", rec.Body.String())
	assert.Empty(t, logs.String())
}

func TestRecovery_StackOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  []Option
		check func(t *testing.T, stack []byte)
	}{
		{
			name:  "disabled",
			opts:  []Option{WithStackTrace(false)},
			check: func(t *testing.T, stack []byte) { assert.Nil(t, stack) },
		},
		{
			name:  "truncated",
			opts:  []Option{WithStackSize(64)},
			check: func(t *testing.T, stack []byte) { assert.Len(t, stack, 64) },
		},
		{
			name:  "uncapped",
			opts:  []Option{WithStackSize(0)},
			check: func(t *testing.T, stack []byte) { assert.Contains(t, string(stack), "goroutine") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got []byte
			opts := append(tt.opts, WithLogger(func(_ *router.Context, _ *PanicError, stack []byte) {
				got = stack
			}))
			r, _ := setup(t, New(opts...), func(*router.Context) router.Result {
				panic("x")
			})

			get(r)
			tt.check(t, got)
		})
	}
}

func TestRecovery_CustomHandler(t *testing.T) {
	t.Parallel()

	f := New(WithHandler(func(c *router.Context, err *PanicError) router.Result {
		v, _ := c.Get(middleware.PanicKey)
		return router.Textf(http.StatusServiceUnavailable, "recovered %v", v)
	}), WithLogger(func(*router.Context, *PanicError, []byte) {}))
	r, _ := setup(t, f, func(*router.Context) router.Result {
		panic("x")
	})

	rec := get(r)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "recovered x", rec.Body.String())
}

func TestRecovery_NextCalledTwice(t *testing.T) {
	t.Parallel()

	var got *PanicError
	twice := router.FilterFunc(func(chain router.Chain, c *router.Context) router.Result {
		chain.Next(c)
		return chain.Next(c)
	})
	f := New(WithLogger(func(_ *router.Context, err *PanicError, _ []byte) { got = err }))

	var logs bytes.Buffer
	r := router.MustNew(router.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	r.Use(f, twice)
	ctl := r.Controller("T").Action("Boom", func(*router.Context) router.Result {
		return router.NoContent()
	})
	r.GET().Route("/boom").With(ctl.Ref("Boom"))
	require.NoError(t, r.CompileRoutes())

	rec := get(r)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, got)
	require.ErrorIs(t, got, router.ErrNextCalledTwice)
	require.ErrorIs(t, got, ErrPanic)
}

func TestRecovery_MarksSpan(t *testing.T) {
	t.Parallel()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	spanning := router.FilterFunc(func(chain router.Chain, c *router.Context) router.Result {
		ctx, span := tp.Tracer("test").Start(c.Context(), "request")
		defer span.End()
		c.SetContext(ctx)

		return chain.Next(c)
	})

	r, _ := setup(t, New(), func(*router.Context) router.Result {
		panic(errors.New("db down"))
	}, spanning)

	get(r)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "panic recovered", spans[0].Status().Description)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "*errors.errorString", attrs["exception.type"])
	assert.Equal(t, "db down", attrs["exception.message"])
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestRecovery_AbortHandlerRepanics(t *testing.T) {
	t.Parallel()

	r, _ := setup(t, New(), func(*router.Context) router.Result {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() { get(r) })
}

func TestRecovery_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "recovery", New().Name())
	assert.Equal(t, "recovery", router.FilterName(New()))
}
