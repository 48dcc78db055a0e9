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
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Tracer.
type Option func(*Tracer)

// OTLPOption configures the OTLP gRPC exporter.
type OTLPOption func(*Tracer)

// OTLPInsecure disables TLS for the gRPC exporter.
func OTLPInsecure() OTLPOption {
	return func(t *Tracer) { t.otlpInsecure = true }
}

// WithOTLP exports over OTLP/gRPC to endpoint ("host:port"). An empty
// endpoint uses the OTEL_EXPORTER_OTLP_* environment.
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		for _, opt := range opts {
			opt(t)
		}
	}
}

// WithOTLPHTTP exports over OTLP/HTTP. An http:// endpoint disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
	}
}

// WithStdout prints finished spans as JSON to w (os.Stdout if nil).
func WithStdout(w io.Writer) Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		if w != nil {
			t.output = w
		}
	}
}

// WithProvider selects a built-in provider by name. The OTLP providers use
// the OTEL_EXPORTER_OTLP_* environment.
func WithProvider(p Provider) Option {
	return func(t *Tracer) { t.provider = p }
}

// WithTracerProvider traces with tp instead of a built-in provider. The
// caller keeps ownership of tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *Tracer) { t.tracerProvider = tp }
}

// WithGlobalTracerProvider installs the provider and propagator as the
// otel globals.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithSampleRate samples the given fraction of new traces; sampled
// parents are always followed. Values are clamped to [0, 1].
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) { t.sampleRate = max(0, min(rate, 1)) }
}

// WithPropagator replaces the W3C trace-context and baggage propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		if p != nil {
			t.propagator = p
		}
	}
}

// WithRecordParams adds the bound route parameters as span attributes.
func WithRecordParams() Option {
	return func(t *Tracer) { t.recordParams = true }
}

// WithExcludePaths skips exact paths.
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		for _, p := range paths {
			t.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(t *Tracer) {
		t.excludePrefixes = append(t.excludePrefixes, prefixes...)
	}
}

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracer) {
		if logger != nil {
			t.logger = logger
		}
	}
}
