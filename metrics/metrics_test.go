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

package metrics

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"rivaas.dev/dispatch/router"
)

// newTestRouter serves GET /users/{id} (200), GET /fail (500) and
// GET /metrics through rec.
func newTestRouter(t *testing.T, rec *Recorder) *router.Router {
	t.Helper()

	r := router.MustNew(router.WithObserver(rec))
	users := r.Controller("Users").Action("Show", func(c *router.Context) router.Result {
		return router.JSON(http.StatusOK, map[string]string{"id": c.Param("id")})
	})
	r.GET().Route("/users/{id}").With(users.Ref("Show"))
	r.GET().Route("/fail").WithResult(router.Status(http.StatusInternalServerError))
	r.GET().Route("/metrics").WithResult(router.NoContent())
	require.NoError(t, r.CompileRoutes())

	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}

	return out
}

func manualRecorder(t *testing.T, opts ...Option) (*Recorder, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	return MustNew(append([]Option{WithMeterProvider(mp)}, opts...)...), reader
}

func TestRecorder_CountsByRouteAndStatus(t *testing.T) {
	t.Parallel()

	rec, reader := manualRecorder(t)
	r := newTestRouter(t, rec)

	get(r, "/users/1")
	get(r, "/users/2")
	get(r, "/fail")
	get(r, "/nowhere")

	got := collect(t, reader)
	sum, ok := got["http.server.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attrRoute)
		status, _ := dp.Attributes.Value(attrStatus)
		counts[route.AsString()+" "+status.Emit()] = dp.Value
	}
	assert.Equal(t, map[string]int64{
		"/users/{id} 200":              2,
		"/fail 500":                    1,
		router.UnmatchedRoute + " 404": 1,
	}, counts)

	hist, ok := got["http.server.request.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	assert.Equal(t, uint64(4), total)
}

func TestRecorder_ActiveRequestsReturnToZero(t *testing.T) {
	t.Parallel()

	rec, reader := manualRecorder(t)
	r := newTestRouter(t, rec)
	get(r, "/users/1")

	active, ok := collect(t, reader)["http.server.active_requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
	method, _ := active.DataPoints[0].Attributes.Value(attribute.Key(attrMethod))
	assert.Equal(t, http.MethodGet, method.AsString())
}

func TestRecorder_Exclusions(t *testing.T) {
	t.Parallel()

	rec, reader := manualRecorder(t, WithExcludePaths("/metrics"), WithExcludePrefixes("/fa"))
	r := newTestRouter(t, rec)

	get(r, "/metrics")
	get(r, "/fail")

	_, ok := collect(t, reader)["http.server.requests"]
	assert.False(t, ok)
}

func TestRecorder_PrometheusHandler(t *testing.T) {
	t.Parallel()

	rec := MustNew(WithPrometheus(), WithServiceName("dispatch-test"))
	t.Cleanup(func() { _ = rec.Shutdown(context.Background()) })
	r := newTestRouter(t, rec)
	get(r, "/users/7")

	h, err := rec.Handler()
	require.NoError(t, err)
	w := get(h, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "http_server_requests")
	assert.Contains(t, string(body), `http_route="/users/{id}"`)
	assert.Equal(t, PrometheusProvider, rec.Provider())
}

func TestRecorder_StdoutProvider(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rec := MustNew(WithStdout(&buf))
	r := newTestRouter(t, rec)
	get(r, "/users/7")

	require.NoError(t, rec.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "http.server.requests")

	_, err := rec.Handler()
	require.ErrorIs(t, err, ErrNoHandler)
}

func TestRecorder_OTLPProviderBuilds(t *testing.T) {
	t.Parallel()

	rec, err := New(WithOTLP("http://127.0.0.1:4318/v1/metrics"))
	require.NoError(t, err)
	assert.Equal(t, OTLPProvider, rec.Provider())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = rec.Shutdown(ctx)
}

func TestNew_UnsupportedProvider(t *testing.T) {
	t.Parallel()

	_, err := New(WithProvider("statsd"))
	require.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Panics(t, func() { MustNew(WithProvider("statsd")) })
}

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		host     string
		insecure bool
	}{
		{in: "http://collector:4318/v1/metrics", host: "collector:4318", insecure: true},
		{in: "https://collector:4318", host: "collector:4318"},
		{in: "collector:4318", host: "collector:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			host, insecure := splitEndpoint(tt.in)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.insecure, insecure)
		})
	}
}

func TestRecorder_CustomProviderNotShutDown(t *testing.T) {
	t.Parallel()

	rec, reader := manualRecorder(t)
	require.NoError(t, rec.Shutdown(context.Background()))
	require.NoError(t, rec.ForceFlush(context.Background()))

	get(newTestRouter(t, rec), "/users/1")
	assert.Contains(t, collect(t, reader), "http.server.requests")
}
