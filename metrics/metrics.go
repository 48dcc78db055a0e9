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

// Package metrics records dispatch metrics with OpenTelemetry.
//
// A [Recorder] is a router.Observer. Register it on the router and every
// request served through ServeHTTP is counted and timed, labelled by
// method, route template and status:
//
//	rec := metrics.MustNew(metrics.WithPrometheus(), metrics.WithServiceName("dispatchd"))
//	defer rec.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObserver(rec))
//	h, _ := rec.Handler()
//	mux.Handle("/metrics", h)
//
// Route templates rather than raw paths are used as labels, and requests
// that match no route share the router.UnmatchedRoute label.
//
// Instruments:
//
//	http.server.requests          counter    {request}
//	http.server.request.duration  histogram  s
//	http.server.active_requests   updown     {request}
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"rivaas.dev/dispatch/router"
)

// Provider selects the built-in exporter.
type Provider string

// Built-in providers.
const (
	PrometheusProvider Provider = "prometheus"
	OTLPProvider       Provider = "otlp"
	StdoutProvider     Provider = "stdout"
)

const meterName = "rivaas.dev/dispatch/metrics"

// Attribute keys, following the OpenTelemetry HTTP semantic conventions.
const (
	attrMethod = "http.request.method"
	attrRoute  = "http.route"
	attrStatus = "http.response.status_code"
)

var (
	// ErrNoHandler is returned by Handler for non-Prometheus providers.
	ErrNoHandler = errors.New("metrics handler is only available with the prometheus provider")

	// ErrUnsupportedProvider is returned for an unknown provider.
	ErrUnsupportedProvider = errors.New("unsupported metrics provider")
)

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Recorder records dispatch metrics.
type Recorder struct {
	provider        Provider
	serviceName     string
	serviceVersion  string
	otlpEndpoint    string
	exportInterval  time.Duration
	output          io.Writer
	durationBuckets []float64
	excludePaths    map[string]bool
	excludePrefixes []string
	registerGlobal  bool
	logger          *slog.Logger

	meterProvider metric.MeterProvider
	owned         *sdkmetric.MeterProvider
	handler       http.Handler

	requests metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

var _ router.Observer = (*Recorder)(nil)

// New returns a Recorder. The Prometheus provider is used unless another
// provider or a meter provider is configured.
func New(opts ...Option) (*Recorder, error) {
	r := &Recorder{
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		output:          os.Stdout,
		durationBuckets: defaultDurationBuckets,
		excludePaths:    make(map[string]bool),
		logger:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.meterProvider == nil {
		if err := r.initProvider(); err != nil {
			return nil, err
		}
		if r.registerGlobal {
			otel.SetMeterProvider(r.owned)
		}
	}

	if err := r.initInstruments(); err != nil {
		return nil, err
	}
	r.logger.Debug("metrics recorder ready", "provider", r.provider)

	return r, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic("metrics: " + err.Error())
	}

	return r
}

func (r *Recorder) initProvider() error {
	var reader sdkmetric.Reader

	switch r.provider {
	case PrometheusProvider:
		registry := promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("create prometheus exporter: %w", err)
		}
		reader = exporter
		r.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	case OTLPProvider:
		var opts []otlpmetrichttp.Option
		if r.otlpEndpoint != "" {
			endpoint, insecure := splitEndpoint(r.otlpEndpoint)
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
			if insecure {
				opts = append(opts, otlpmetrichttp.WithInsecure())
			}
		}
		exporter, err := otlpmetrichttp.New(context.Background(), opts...)
		if err != nil {
			return fmt.Errorf("create otlp exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))

	case StdoutProvider:
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(r.output))
		if err != nil {
			return fmt.Errorf("create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, r.provider)
	}

	r.owned = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(r.resource()),
	)
	r.meterProvider = r.owned

	return nil
}

func (r *Recorder) resource() *resource.Resource {
	var attrs []attribute.KeyValue
	if r.serviceName != "" {
		attrs = append(attrs, semconv.ServiceName(r.serviceName))
	}
	if r.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(r.serviceVersion))
	}

	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

func (r *Recorder) initInstruments() error {
	meter := r.meterProvider.Meter(meterName)

	var err error
	r.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Requests dispatched, by route and status."),
		metric.WithUnit("{request}"))
	if err != nil {
		return fmt.Errorf("create requests counter: %w", err)
	}

	r.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Time spent in the filter chain and handler."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...))
	if err != nil {
		return fmt.Errorf("create duration histogram: %w", err)
	}

	r.active, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("Requests currently being dispatched."),
		metric.WithUnit("{request}"))
	if err != nil {
		return fmt.Errorf("create active requests counter: %w", err)
	}

	return nil
}

// dispatchState is handed from OnDispatchStart to OnDispatchEnd.
type dispatchState struct {
	start time.Time
	attrs attribute.Set
}

// OnDispatchStart implements router.Observer.
func (r *Recorder) OnDispatchStart(ctx context.Context, c *router.Context) (context.Context, any) {
	if r.excluded(c.Path()) {
		return ctx, nil
	}

	base := attribute.NewSet(
		attribute.String(attrMethod, c.Method()),
		attribute.String(attrRoute, router.RouteLabel(c)),
	)
	r.active.Add(ctx, 1, metric.WithAttributeSet(base))

	return ctx, &dispatchState{start: time.Now(), attrs: base}
}

// OnDispatchEnd implements router.Observer.
func (r *Recorder) OnDispatchEnd(ctx context.Context, state any, _ *router.Context, result router.Result) {
	st, ok := state.(*dispatchState)
	if !ok {
		return
	}

	r.active.Add(ctx, -1, metric.WithAttributeSet(st.attrs))

	attrs := append(st.attrs.ToSlice(), attribute.Int(attrStatus, result.StatusCode()))
	set := metric.WithAttributes(attrs...)
	r.requests.Add(ctx, 1, set)
	r.duration.Record(ctx, time.Since(st.start).Seconds(), set)
}

func (r *Recorder) excluded(path string) bool {
	if r.excludePaths[path] {
		return true
	}
	for _, p := range r.excludePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

// Handler returns the Prometheus scrape handler.
func (r *Recorder) Handler() (http.Handler, error) {
	if r.handler == nil {
		return nil, ErrNoHandler
	}

	return r.handler, nil
}

// Provider returns the configured provider. It is meaningless when a meter
// provider was supplied with WithMeterProvider.
func (r *Recorder) Provider() Provider { return r.provider }

// ForceFlush exports pending metrics of an owned provider.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if r.owned == nil {
		return nil
	}

	return r.owned.ForceFlush(ctx)
}

// Shutdown flushes and stops an owned provider. A provider supplied with
// WithMeterProvider is left to its owner.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.owned == nil {
		return nil
	}
	if err := r.owned.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}

	return nil
}

// splitEndpoint strips a scheme and path from endpoint. insecure is true
// for http:// endpoints.
func splitEndpoint(endpoint string) (hostport string, insecure bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint, insecure = strings.TrimPrefix(endpoint, "http://"), true
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		endpoint = endpoint[:i]
	}

	return endpoint, insecure
}
