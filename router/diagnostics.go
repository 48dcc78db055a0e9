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

package router

// DiagnosticEvent reports a routing anomaly detected while compiling or
// serving. The router behaves the same whether or not events are collected.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// DiagRouteDropped reports a route removed because of a configuration error.
	DiagRouteDropped DiagnosticKind = "route_dropped"

	// DiagDuplicateHandler reports a handler routed more than once. Reverse
	// routing keeps the first registration.
	DiagDuplicateHandler DiagnosticKind = "duplicate_handler"

	// DiagRouteShadowed reports a static route that an earlier route always
	// matches first.
	DiagRouteShadowed DiagnosticKind = "route_shadowed"

	// DiagHighParamCount reports a template with many placeholders.
	DiagHighParamCount DiagnosticKind = "route_param_count_high"

	// DiagH2CEnabled reports that Serve accepts cleartext HTTP/2.
	DiagH2CEnabled DiagnosticKind = "h2c_enabled"
)

// highParamCount is the placeholder count above which DiagHighParamCount fires.
const highParamCount = 8

// DiagnosticHandler receives diagnostic events from the router.
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

func (r *Router) emit(kind DiagnosticKind, msg string, fields map[string]any) {
	if r.diagnostics == nil {
		return
	}
	r.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
}
