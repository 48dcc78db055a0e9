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

/*
Package middleware holds the keys shared by the router's standard filters.

Each filter lives in its own sub-package:

  - requestid: assigns a request id and echoes it in the response
  - accesslog: one structured log record per request, with sampling
  - recovery: turns panics into 500 problem responses

Filters registered with [router.Router.Use] run for every route in the
order given, before controller and action filters:

	r := router.MustNew()
	r.Use(requestid.New(), accesslog.New(), recovery.New())

Filters communicate through context attributes. requestid stores the id
under [RequestIDKey] and recovery stores the recovered value under
[PanicKey]; accesslog reads both.
*/
package middleware
