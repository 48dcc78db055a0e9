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

// Package route implements the URI template language used by the router.
//
// A template is a literal path with named placeholders:
//
//	/users/{id}             // {id} matches one path segment
//	/users/{id: [0-9]+}     // {id} matches the supplied regex
//	/assets/{path: .*}      // {path} may span segments
//
// Templates are parsed once at startup. Parsing produces an anchored matcher
// and the ordered placeholder metadata used both for extracting values from a
// request path and for expanding the template back into a concrete path
// (reverse routing).
package route
