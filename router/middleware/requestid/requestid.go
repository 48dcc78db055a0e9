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

// Package requestid provides a filter that gives every request an id.
//
// The id is taken from the request header when clients may supply one,
// generated otherwise, echoed in the response header, stored as a context
// attribute under [middleware.RequestIDKey] and in the standard context.
//
//	r := router.MustNew()
//	r.Use(requestid.New())
//
// UUID v7 ids are generated by default; [WithULID] and [WithKSUID] select
// other time-ordered formats.
package requestid

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"

	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware"
)

// DefaultHeader is the header carrying the request id.
const DefaultHeader = "X-Request-ID"

// Filter assigns request ids.
type Filter struct {
	cfg *config
}

// New returns a request id filter.
func New(opts ...Option) *Filter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Filter{cfg: cfg}
}

// Name implements router.Named.
func (f *Filter) Name() string { return "requestid" }

// Filter implements router.Filter.
func (f *Filter) Filter(chain router.Chain, c *router.Context) router.Result {
	var id string
	if f.cfg.allowClientID {
		id = c.Header(f.cfg.headerName)
		if len(id) > f.cfg.maxLength {
			id = ""
		}
	}
	if id == "" {
		id = f.cfg.generator()
	}

	c.Set(middleware.RequestIDKey, id)
	c.SetContext(context.WithValue(c.Context(), middleware.RequestIDContextKey, id))
	c.SetLogger(c.Logger().With("request_id", id))

	return chain.Next(c).WithHeader(f.cfg.headerName, id)
}

// Get returns the request id assigned to c, or "".
func Get(c *router.Context) string {
	if v, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}

	return ""
}

// FromContext returns the request id stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(middleware.RequestIDContextKey).(string)
	return id
}

func generateUUIDv7() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

func generateULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}

func generateKSUID() string {
	return ksuid.New().String()
}
