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

// Package config loads the settings of a dispatch server.
//
// Settings are layered: built-in defaults, then every source in the order
// given. Later sources override earlier ones key by key.
//
//	s, err := config.Load(ctx,
//	    config.WithFile("dispatchd.yaml"),
//	    config.WithEnv("DISPATCH_"),
//	)
//
// Files are YAML, TOML or JSON by extension. Environment variables map to
// keys by lower-casing and splitting on underscores, so
// DISPATCH_SERVER_ADDR sets server.addr. Values are coerced to the type of
// the default they replace, checked against a JSON Schema that rejects
// unknown keys, decoded into [Settings] and validated.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// Settings is the server configuration.
type Settings struct {
	Service ServiceSettings `config:"service"`
	Server  ServerSettings  `config:"server"`
	Logging LoggingSettings `config:"logging"`
	Metrics MetricsSettings `config:"metrics"`
	Tracing TracingSettings `config:"tracing"`
	Router  RouterSettings  `config:"router"`
}

// ServiceSettings identifies the service in logs, metrics and traces.
type ServiceSettings struct {
	Name    string `config:"name"    validate:"required"`
	Version string `config:"version"`
	Env     string `config:"env"`
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Addr     string          `config:"addr"     validate:"required,hostname_port"`
	H2C      bool            `config:"h2c"`
	Timeouts TimeoutSettings `config:"timeouts"`
}

// TimeoutSettings are the server timeouts.
type TimeoutSettings struct {
	Header   time.Duration `config:"header"   validate:"gt=0"`
	Read     time.Duration `config:"read"     validate:"gt=0"`
	Write    time.Duration `config:"write"    validate:"gt=0"`
	Idle     time.Duration `config:"idle"     validate:"gt=0"`
	Shutdown time.Duration `config:"shutdown" validate:"gt=0"`
}

// LoggingSettings configures the logger.
type LoggingSettings struct {
	Level  string `config:"level"  validate:"oneof=debug info warn error"`
	Format string `config:"format" validate:"oneof=json text console"`
}

// MetricsSettings configures the metrics recorder.
type MetricsSettings struct {
	Provider string `config:"provider" validate:"oneof=none prometheus otlp stdout"`
	Endpoint string `config:"endpoint"`
	Path     string `config:"path"     validate:"startswith=/"`
}

// TracingSettings configures the tracer.
type TracingSettings struct {
	Provider string  `config:"provider" validate:"oneof=none stdout otlp otlp-http"`
	Endpoint string  `config:"endpoint"`
	Ratio    float64 `config:"ratio"    validate:"gte=0,lte=1"`
}

// RouterSettings configures the router.
type RouterSettings struct {
	Strict bool   `config:"strict"`
	Base   string `config:"base"   validate:"omitempty,startswith=/"`
}

// defaults returns the built-in values. Leaf types drive coercion of
// values read from text sources.
func defaults() map[string]any {
	return map[string]any{
		"service": map[string]any{
			"name":    "dispatchd",
			"version": "",
			"env":     "",
		},
		"server": map[string]any{
			"addr": ":8080",
			"h2c":  false,
			"timeouts": map[string]any{
				"header":   5 * time.Second,
				"read":     15 * time.Second,
				"write":    30 * time.Second,
				"idle":     60 * time.Second,
				"shutdown": 10 * time.Second,
			},
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "json",
		},
		"metrics": map[string]any{
			"provider": "prometheus",
			"endpoint": "",
			"path":     "/metrics",
		},
		"tracing": map[string]any{
			"provider": "none",
			"endpoint": "",
			"ratio":    1.0,
		},
		"router": map[string]any{
			"strict": false,
			"base":   "",
		},
	}
}

// Option adds a source or changes how sources are read.
type Option func(*loader) error

type loader struct {
	sources []namedSource
}

type namedSource struct {
	name string
	src  Source
}

// Load reads the defaults and every configured source and returns the
// validated settings. Errors are *Error values.
func Load(ctx context.Context, opts ...Option) (*Settings, error) {
	if ctx == nil {
		return nil, errors.New("config: nil context")
	}

	l := &loader{}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, NewError("options", "apply", err)
		}
	}

	base := defaults()
	values := defaults()
	for _, s := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := s.src.Load(ctx)
		if err != nil {
			return nil, NewError(s.name, "load", err)
		}
		if err := mergo.Merge(&values, normalizeKeys(m), mergo.WithOverride); err != nil {
			return nil, NewError(s.name, "merge", err)
		}
	}

	if err := coerce(values, base, ""); err != nil {
		return nil, err
	}
	if err := settingsSchema().Validate(values); err != nil {
		return nil, NewError("json-schema", "validate", err)
	}

	s := &Settings{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "config",
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		Result:      s,
	})
	if err != nil {
		return nil, NewError("binding", "decode", err)
	}
	if err := dec.Decode(values); err != nil {
		return nil, NewError("binding", "decode", err)
	}

	if err := validate.Struct(s); err != nil {
		return nil, NewError("binding", "validate", err)
	}

	return s, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(ctx context.Context, opts ...Option) *Settings {
	s, err := Load(ctx, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// normalizeKeys lower-cases keys recursively.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := asMap(v); ok {
			v = normalizeKeys(nested)
		}
		out[strings.ToLower(k)] = v
	}

	return out
}

// coerce converts leaves of values to the type of the matching default.
// Durations become their string form for the schema check.
func coerce(values, base map[string]any, prefix string) error {
	for k, v := range values {
		path := prefix + k
		def, known := base[k]
		if !known {
			continue
		}

		if defMap, ok := def.(map[string]any); ok {
			if m, ok := asMap(v); ok {
				values[k] = m
				if err := coerce(m, defMap, path+"."); err != nil {
					return err
				}
			}
			continue
		}

		var (
			out any
			err error
		)
		switch def.(type) {
		case bool:
			out, err = cast.ToBoolE(v)
		case float64:
			out, err = cast.ToFloat64E(v)
		case time.Duration:
			var d time.Duration
			d, err = cast.ToDurationE(v)
			out = d.String()
		case string:
			out, err = cast.ToStringE(v)
		default:
			out = v
		}
		if err != nil {
			return NewFieldError("coerce", path, "cast", err)
		}
		values[k] = out
	}

	return nil
}

// asMap accepts the map shapes produced by the decoders.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}
