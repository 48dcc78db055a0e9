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
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// trace records filter entry and exit in order.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (tr *trace) add(e string) {
	tr.mu.Lock()
	tr.events = append(tr.events, e)
	tr.mu.Unlock()
}

func (tr *trace) list() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	return append([]string(nil), tr.events...)
}

// tracing is a named filter recording "in:name" and "out:name".
type tracing struct {
	name string
	tr   *trace
}

func (f tracing) Name() string { return f.name }

func (f tracing) Filter(chain Chain, c *Context) Result {
	f.tr.add("in:" + f.name)
	res := chain.Next(c)
	f.tr.add("out:" + f.name)

	return res
}

// textHandler answers with a fixed body.
func textHandler(body string) HandlerFunc {
	return func(*Context) Result {
		return Text(http.StatusOK, body)
	}
}

// paramHandler echoes the named path parameter.
func paramHandler(name string) HandlerFunc {
	return func(c *Context) Result {
		return Text(http.StatusOK, c.Param(name))
	}
}

// diagRecorder collects diagnostic events.
type diagRecorder struct {
	mu     sync.Mutex
	events []DiagnosticEvent
}

func (d *diagRecorder) OnDiagnostic(e DiagnosticEvent) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *diagRecorder) kinds() []DiagnosticKind {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]DiagnosticKind, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Kind)
	}

	return out
}

func mustCompile(t *testing.T, r *Router) {
	t.Helper()
	require.NoError(t, r.CompileRoutes())
}
