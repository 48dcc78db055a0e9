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

// Package errors formats dispatch errors as HTTP responses.
//
// Two formatters are provided: [RFC9457] (problem details, the router
// default) and [Simple]. Errors control the output by implementing
// [ErrorType] for the status code, [ErrorCode] for a machine-readable code
// and [ErrorDetails] for structured details. [WithStatus] and [WithCode]
// attach those to any error.
package errors
