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
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithPrometheus exports through a private Prometheus registry served by
// Handler.
func WithPrometheus() Option {
	return func(r *Recorder) { r.provider = PrometheusProvider }
}

// WithOTLP pushes to an OTLP/HTTP collector. An http:// endpoint disables
// TLS. An empty endpoint uses the OTEL_EXPORTER_OTLP_* environment.
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
	}
}

// WithStdout periodically prints metrics as JSON to w (os.Stdout if nil).
func WithStdout(w io.Writer) Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		if w != nil {
			r.output = w
		}
	}
}

// WithProvider selects a built-in provider by name.
func WithProvider(p Provider) Option {
	return func(r *Recorder) { r.provider = p }
}

// WithMeterProvider records into mp instead of a built-in provider. The
// caller keeps ownership of mp.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(r *Recorder) { r.meterProvider = mp }
}

// WithGlobalMeterProvider installs the built-in provider with
// otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) { r.registerGlobal = true }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceVersion sets the service.version resource attribute.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithExportInterval sets the push interval of the OTLP and stdout
// providers (default 30s).
func WithExportInterval(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.exportInterval = d
		}
	}
}

// WithDurationBuckets sets the duration histogram boundaries in seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.durationBuckets = buckets
		}
	}
}

// WithExcludePaths skips exact paths, such as the scrape endpoint.
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		for _, p := range paths {
			r.excludePaths[p] = true
		}
	}
}

// WithExcludePrefixes skips paths with any of the prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		r.excludePrefixes = append(r.excludePrefixes, prefixes...)
	}
}

// WithLogger sets the logger for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}
