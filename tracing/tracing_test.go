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

package tracing

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/router"
)

func recorded(t *testing.T, opts ...Option) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return MustNew(append([]Option{WithTracerProvider(tp)}, opts...)...), sr
}

// newTestRouter serves GET /orders/{id} and GET /fail through tr. The
// handler stores the trace id it sees in *seen.
func newTestRouter(t *testing.T, tr *Tracer, seen *string) *router.Router {
	t.Helper()

	r := router.MustNew(router.WithObserver(tr))
	orders := r.Controller("Orders").Action("Show", func(c *router.Context) router.Result {
		if seen != nil {
			*seen = TraceID(c.Context())
		}
		return router.NoContent()
	})
	r.GET().Route("/orders/{id}").With(orders.Ref("Show"))
	r.GET().Route("/fail").WithResult(router.Status(http.StatusBadGateway))
	require.NoError(t, r.CompileRoutes())

	return r
}

func attrs(s sdktrace.ReadOnlySpan) map[string]attribute.Value {
	out := map[string]attribute.Value{}
	for _, kv := range s.Attributes() {
		out[string(kv.Key)] = kv.Value
	}
	return out
}

func TestTracer_SpanPerDispatch(t *testing.T) {
	t.Parallel()

	tr, sr := recorded(t)
	var seen string
	r := newTestRouter(t, tr, &seen)

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set("User-Agent", "curl/8.5.0")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]

	assert.Equal(t, "GET /orders/{id}", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, span.SpanContext().TraceID().String(), seen)

	a := attrs(span)
	assert.Equal(t, "/orders/{id}", a[attrRoute].AsString())
	assert.Equal(t, "/orders/42", a[attrPath].AsString())
	assert.Equal(t, int64(http.StatusNoContent), a[attrStatus].AsInt64())
	assert.Equal(t, "curl/8.5.0", a[attrUserAgent].AsString())
	assert.NotContains(t, a, attrParamPrefix+"id")
	assert.Equal(t, codes.Unset, span.Status().Code)
}

func TestTracer_ServerErrorsMarkSpan(t *testing.T) {
	t.Parallel()

	tr, sr := recorded(t)
	r := newTestRouter(t, tr, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), spans[0].Status().Description)
}

func TestTracer_UnmatchedRoute(t *testing.T) {
	t.Parallel()

	tr, sr := recorded(t)
	r := newTestRouter(t, tr, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET "+router.UnmatchedRoute, spans[0].Name())
	assert.Equal(t, int64(http.StatusNotFound), attrs(spans[0])[attrStatus].AsInt64())
}

func TestTracer_ContinuesPropagatedTrace(t *testing.T) {
	t.Parallel()

	tr, sr := recorded(t)
	r := newTestRouter(t, tr, nil)

	const parent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	req.Header.Set("traceparent", parent)
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.True(t, spans[0].Parent().IsRemote())
}

func TestTracer_Inject(t *testing.T) {
	t.Parallel()

	tr, _ := recorded(t)
	ctx, span := tr.tracer.Start(context.Background(), "outbound")
	defer span.End()

	h := http.Header{}
	tr.Inject(ctx, h)

	assert.Contains(t, h.Get("traceparent"), span.SpanContext().TraceID().String())
}

func TestTracer_Options(t *testing.T) {
	t.Parallel()

	t.Run("record params", func(t *testing.T) {
		t.Parallel()

		tr, sr := recorded(t, WithRecordParams())
		newTestRouter(t, tr, nil).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/9", nil))

		require.Len(t, sr.Ended(), 1)
		assert.Equal(t, "9", attrs(sr.Ended()[0])[attrParamPrefix+"id"].AsString())
	})

	t.Run("exclusions", func(t *testing.T) {
		t.Parallel()

		tr, sr := recorded(t, WithExcludePaths("/fail"), WithExcludePrefixes("/orders/"))
		r := newTestRouter(t, tr, nil)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/1", nil))

		assert.Empty(t, sr.Ended())
	})

	t.Run("sample rate clamps", func(t *testing.T) {
		t.Parallel()

		assert.InDelta(t, 1.0, MustNew(WithSampleRate(3)).sampleRate, 0)
		assert.InDelta(t, 0.0, MustNew(WithSampleRate(-3)).sampleRate, 0)
	})
}

func TestTracer_Providers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
		want Provider
	}{
		{name: "noop by default", want: NoopProvider},
		{name: "otlp grpc", opts: []Option{WithOTLP("127.0.0.1:4317", OTLPInsecure())}, want: OTLPProvider},
		{name: "otlp http", opts: []Option{WithOTLPHTTP("http://127.0.0.1:4318")}, want: OTLPHTTPProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := New(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Provider())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_ = tr.Shutdown(ctx)
		})
	}

	_, err := New(WithProvider("zipkin"))
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestTracer_StdoutProvider(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tr := MustNew(WithStdout(&buf), WithServiceName("dispatch-test"))
	r := newTestRouter(t, tr, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/3", nil))

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "GET /orders/{id}")
	assert.Contains(t, buf.String(), "dispatch-test")
}

func TestTraceID_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, TraceID(context.Background()))
}
