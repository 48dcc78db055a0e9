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
	"fmt"
	"net/http"
)

// Content types used by the Result constructors.
const (
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Result is the response value produced by handlers and filters. The
// dispatch core never writes it; the HTTP adapter does.
//
// Body is written as-is when it is a []byte or string, omitted when nil,
// delegated when it is an http.Handler and JSON-encoded otherwise.
type Result struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        any
}

// Status returns an empty result with the given status code.
func Status(code int) Result {
	return Result{Status: code}
}

// JSON returns a result whose body is JSON-encoded by the adapter.
func JSON(code int, body any) Result {
	return Result{Status: code, ContentType: ContentTypeJSON, Body: body}
}

// Text returns a plain-text result.
func Text(code int, body string) Result {
	return Result{Status: code, ContentType: ContentTypeText, Body: body}
}

// Textf returns a plain-text result formatted with fmt.Sprintf.
//
//	router.Textf(http.StatusOK, "hello %s", c.Param("name"))
func Textf(code int, format string, args ...any) Result {
	return Text(code, fmt.Sprintf(format, args...))
}

// HTML returns a result carrying an HTML document.
func HTML(code int, html string) Result {
	return Result{Status: code, ContentType: ContentTypeHTML, Body: html}
}

// NoContent returns a 204 result.
func NoContent() Result {
	return Result{Status: http.StatusNoContent}
}

// Redirect returns a redirect to location. code defaults to 302 when it is
// not a 3xx status.
func Redirect(code int, location string) Result {
	if code < 300 || code > 399 {
		code = http.StatusFound
	}

	return Result{Status: code, Header: http.Header{"Location": []string{location}}}
}

// Handler returns a result written by h. Headers set on the result are
// applied before h runs; the status reported to observers is 200.
//
//	r.GET().Route("/metrics").WithResult(router.Handler(promhttp.Handler()))
func Handler(h http.Handler) Result {
	return Result{Body: h}
}

// NotFound returns a plain 404 result.
func NotFound() Result {
	return Text(http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// WithHeader returns a copy of r with the header value appended.
// The receiver's header map is never modified.
func (r Result) WithHeader(key, value string) Result {
	h := r.Header.Clone()
	if h == nil {
		h = make(http.Header, 1)
	}
	h.Add(key, value)
	r.Header = h

	return r
}

// StatusCode returns Status, or 200 when Status is unset.
func (r Result) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}

	return r.Status
}
