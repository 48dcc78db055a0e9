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

package middleware

// ContextKey is the type of standard-context keys set by filters.
type ContextKey string

// Keys shared between filters.
const (
	// RequestIDKey is the router.Context attribute holding the request id.
	// Set by requestid, read by accesslog.
	RequestIDKey = "middleware.request_id"

	// RequestIDContextKey holds the request id in the standard context.
	RequestIDContextKey ContextKey = "middleware.request_id"

	// PanicKey is the router.Context attribute holding a recovered panic value.
	// Set by recovery, read by accesslog.
	PanicKey = "middleware.panic"
)
