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

package errors

import (
	"errors"
	"net/http"
)

// Formatter turns an error raised during dispatch into the parts of an HTTP
// response. The router calls it for unmatched requests, for requests that
// arrive before route compilation, and whenever a handler or filter asks for
// a problem result.
//
// Example:
//
//	f := errors.NewRFC9457("https://api.example.com/problems")
//	resp := f.Format(req, err)
type Formatter interface {
	// Format converts err into status, content type and body.
	// req may be a synthetic request when dispatch happens without HTTP.
	Format(req *http.Request, err error) Response
}

// Response is a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is JSON-encoded by the router's adapter.
	Body any

	// Headers are added to the response (optional).
	Headers http.Header
}

// ErrorType lets an error declare its own HTTP status code.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails lets an error expose structured details.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode lets an error expose a machine-readable code. The RFC 9457
// formatter appends the code to its base URL to build the problem type.
type ErrorCode interface {
	error
	Code() string
}

// NewRFC9457 returns an RFC 9457 problem-details formatter whose problem
// types are rooted at baseURL.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// NewSimple returns a formatter producing {"error": "..."} bodies.
func NewSimple() *Simple {
	return &Simple{}
}

// WithStatus wraps err with an explicit HTTP status code.
// A nil err is allowed; the status text becomes the message.
//
//	return c.Problem(errors.WithStatus(err, http.StatusConflict))
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

// WithCode wraps err with a machine-readable code.
func WithCode(err error, code string) error {
	return &codeError{err: err, code: code}
}

// StatusOf reports the status an error carries, or fallback when it
// carries none.
func StatusOf(err error, fallback int) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return fallback
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}

	return e.err.Error()
}

func (e *statusError) Unwrap() error   { return e.err }
func (e *statusError) HTTPStatus() int { return e.status }

type codeError struct {
	err  error
	code string
}

func (e *codeError) Error() string {
	if e.err == nil {
		return e.code
	}

	return e.err.Error()
}

func (e *codeError) Unwrap() error { return e.err }
func (e *codeError) Code() string  { return e.code }
