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

// Package tracing creates an OpenTelemetry span for every dispatched
// request.
//
// A [Tracer] is a router.Observer. It continues traces propagated in the
// request headers, names spans after the matched route template and places
// the span in the request context, so filters, handlers and the logging
// package see it:
//
//	tr := tracing.MustNew(tracing.WithOTLP("collector:4317", tracing.OTLPInsecure()))
//	defer tr.Shutdown(context.Background())
//
//	r := router.MustNew(router.WithObserver(tr))
//
// Responses with a 5xx status mark the span as failed.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"rivaas.dev/dispatch/router"
)

// Provider selects the built-in exporter.
type Provider string

// Built-in providers.
const (
	NoopProvider     Provider = "noop"
	StdoutProvider   Provider = "stdout"
	OTLPProvider     Provider = "otlp"
	OTLPHTTPProvider Provider = "otlp-http"
)

const tracerName = "rivaas.dev/dispatch/tracing"

// Span attribute keys.
const (
	attrMethod      = "http.request.method"
	attrRoute       = "http.route"
	attrPath        = "url.path"
	attrScheme      = "url.scheme"
	attrHost        = "server.address"
	attrUserAgent   = "user_agent.original"
	attrStatus      = "http.response.status_code"
	attrParamPrefix = "http.route.param."
)

// ErrUnsupportedProvider is returned for an unknown provider.
var ErrUnsupportedProvider = errors.New("unsupported tracing provider")

// Tracer traces dispatches.
type Tracer struct {
	provider        Provider
	serviceName     string
	serviceVersion  string
	otlpEndpoint    string
	otlpInsecure    bool
	output          io.Writer
	sampleRate      float64
	recordParams    bool
	excludePaths    map[string]bool
	excludePrefixes []string
	registerGlobal  bool
	logger          *slog.Logger

	propagator     propagation.TextMapPropagator
	tracerProvider trace.TracerProvider
	owned          *sdktrace.TracerProvider
	tracer         trace.Tracer
}

var _ router.Observer = (*Tracer)(nil)

// New returns a Tracer. Without a provider option spans are not recorded.
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		provider:     NoopProvider,
		output:       os.Stdout,
		sampleRate:   1.0,
		excludePaths: make(map[string]bool),
		logger:       slog.New(slog.DiscardHandler),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.tracerProvider == nil {
		if err := t.initProvider(context.Background()); err != nil {
			return nil, err
		}
	}
	if t.registerGlobal {
		otel.SetTracerProvider(t.tracerProvider)
		otel.SetTextMapPropagator(t.propagator)
	}
	t.tracer = t.tracerProvider.Tracer(tracerName)
	t.logger.Debug("tracer ready", "provider", t.provider, "sample_rate", t.sampleRate)

	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic("tracing: " + err.Error())
	}

	return t
}

func (t *Tracer) initProvider(ctx context.Context) error {
	var exporter sdktrace.SpanExporter

	switch t.provider {
	case NoopProvider:
		t.tracerProvider = noop.NewTracerProvider()
		return nil

	case StdoutProvider:
		exp, err := stdouttrace.New(stdouttrace.WithWriter(t.output))
		if err != nil {
			return fmt.Errorf("create stdout exporter: %w", err)
		}
		exporter = exp

	case OTLPProvider:
		var opts []otlptracegrpc.Option
		if t.otlpEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
		}
		if t.otlpInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("create otlp grpc exporter: %w", err)
		}
		exporter = exp

	case OTLPHTTPProvider:
		var opts []otlptracehttp.Option
		if t.otlpEndpoint != "" {
			endpoint, insecure := splitEndpoint(t.otlpEndpoint)
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
			if insecure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("create otlp http exporter: %w", err)
		}
		exporter = exp

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProvider, t.provider)
	}

	var attrs []attribute.KeyValue
	if t.serviceName != "" {
		attrs = append(attrs, semconv.ServiceName(t.serviceName))
	}
	if t.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(t.serviceVersion))
	}

	t.owned = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	)
	t.tracerProvider = t.owned

	return nil
}

// OnDispatchStart implements router.Observer.
func (t *Tracer) OnDispatchStart(ctx context.Context, c *router.Context) (context.Context, any) {
	if t.excluded(c.Path()) {
		return ctx, nil
	}

	req := c.Request()
	if req != nil {
		ctx = t.propagator.Extract(ctx, propagation.HeaderCarrier(req.Header))
	}

	route := router.RouteLabel(c)
	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, c.Method()),
		attribute.String(attrRoute, route),
		attribute.String(attrPath, c.Path()),
	}
	if req != nil {
		attrs = append(attrs,
			attribute.String(attrScheme, c.Scheme()),
			attribute.String(attrHost, c.Host()),
			attribute.String(attrUserAgent, req.UserAgent()),
		)
	}
	if t.recordParams {
		for _, p := range c.Params() {
			attrs = append(attrs, attribute.String(attrParamPrefix+p.Key, p.Value))
		}
	}

	ctx, span := t.tracer.Start(ctx, c.Method()+" "+route,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attrs...),
	)

	return ctx, span
}

// OnDispatchEnd implements router.Observer.
func (t *Tracer) OnDispatchEnd(_ context.Context, state any, _ *router.Context, result router.Result) {
	span, ok := state.(trace.Span)
	if !ok {
		return
	}

	status := result.StatusCode()
	span.SetAttributes(attribute.Int(attrStatus, status))
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	span.End()
}

func (t *Tracer) excluded(path string) bool {
	if t.excludePaths[path] {
		return true
	}
	for _, p := range t.excludePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}

// Inject writes the trace context of ctx into h, for outgoing requests.
func (t *Tracer) Inject(ctx context.Context, h http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(h))
}

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider { return t.provider }

// Shutdown flushes and stops an owned provider. A provider supplied with
// WithTracerProvider is left to its owner.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.owned == nil {
		return nil
	}
	if err := t.owned.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}

	return nil
}

// TraceID returns the trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
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
