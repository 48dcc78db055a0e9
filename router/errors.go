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

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrRoutesAlreadyCompiled indicates that CompileRoutes ran already, or
	// that a builder was mutated after compilation.
	ErrRoutesAlreadyCompiled = errors.New("routes already compiled")

	// ErrRoutesNotCompiled indicates a lookup before CompileRoutes.
	ErrRoutesNotCompiled = errors.New("routes not compiled yet")

	// ErrControllerNotFound indicates that a handler names an unregistered controller.
	ErrControllerNotFound = errors.New("controller not found")

	// ErrActionNotFound indicates that a controller has no action of the given name.
	ErrActionNotFound = errors.New("action not found")

	// ErrAmbiguousAction indicates that an action name was registered more than once.
	ErrAmbiguousAction = errors.New("ambiguous action")

	// ErrControllerCycle indicates a cycle in Extends/Implements declarations.
	ErrControllerCycle = errors.New("controller hierarchy cycle")

	// ErrNoHandler indicates a route registered without With or WithResult.
	ErrNoHandler = errors.New("route has no handler")

	// ErrEmptyRoute indicates a route registered without Route.
	ErrEmptyRoute = errors.New("route has no uri")

	// ErrNextCalledTwice indicates that a filter called Next more than once.
	ErrNextCalledTwice = errors.New("filter called next more than once")

	// ErrRouteNotFound indicates that no route matched a request.
	ErrRouteNotFound = errors.New("route not found")

	// ErrHandlerNotRouted indicates a reverse lookup for a handler with no route.
	ErrHandlerNotRouted = errors.New("no route for handler")

	// ErrUnknownParameter indicates a reverse path parameter the route does not declare.
	ErrUnknownParameter = errors.New("unknown route parameter")

	// ErrMissingRouteParameter indicates that a required parameter for the route is missing.
	ErrMissingRouteParameter = errors.New("missing required parameter")

	// ErrInvalidParameterValue indicates a reverse parameter value that cannot be rendered as text.
	ErrInvalidParameterValue = errors.New("invalid parameter value")

	// ErrMissingHost indicates an absolute URL requested without a host.
	ErrMissingHost = errors.New("absolute url requires a host")

	// ErrServerStarted is returned by Serve when the router is already serving.
	ErrServerStarted = errors.New("router is already serving")

	// ErrServerTimeoutInvalid indicates that the server timeout value must be positive.
	ErrServerTimeoutInvalid = errors.New("server timeout must be positive")
)

// ConfigError describes a route that could not be built. It wraps one of the
// sentinels above and carries enough context to locate the registration.
type ConfigError struct {
	Method  string
	URI     string
	Handler HandlerRef
	Hint    string
	Err     error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("route ")
	b.WriteString(e.Method)
	b.WriteByte(' ')
	b.WriteString(e.URI)
	if !e.Handler.IsZero() {
		b.WriteString(" -> ")
		b.WriteString(e.Handler.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Hint != "" {
		b.WriteString(" (")
		b.WriteString(e.Hint)
		b.WriteByte(')')
	}

	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// notFoundError is the error formatted for unmatched requests.
type notFoundError struct {
	method string
	path   string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("no route for %s %s", e.method, e.path)
}

func (e *notFoundError) Unwrap() error   { return ErrRouteNotFound }
func (e *notFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *notFoundError) Code() string    { return "route_not_found" }

// notCompiledError is the error formatted for requests served before compilation.
type notCompiledError struct{}

func (notCompiledError) Error() string   { return ErrRoutesNotCompiled.Error() }
func (notCompiledError) Unwrap() error   { return ErrRoutesNotCompiled }
func (notCompiledError) HTTPStatus() int { return http.StatusInternalServerError }
func (notCompiledError) Code() string    { return "routes_not_compiled" }
