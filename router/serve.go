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
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServeHTTP dispatches req to the first matching route and writes its
// Result. Requests that match no route get a 404 problem; requests served
// before CompileRoutes get a 500 problem.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := NewRequestContext(req)
	c.router = r
	c.logger = r.logger

	if !r.compiled.Load() {
		r.logger.Error("request received before routes were compiled",
			"method", req.Method, "path", req.URL.Path)
		r.writeResult(w, req, c.Problem(notCompiledError{}))
		return
	}

	if isWebSocketUpgrade(req) {
		c.method = MethodWS
	}

	path, inContext := r.stripContextPath(c.path)
	c.path = path

	var spec *RouteSpec
	if inContext {
		spec, _ = r.GetRouteFor(c.method, path)
	}
	if spec != nil {
		params, _ := spec.PathParams(path)
		c.bind(spec, params)
	}

	res := r.observe(c, func() Result {
		if spec == nil {
			r.logger.Debug("no route matched", "method", c.method, "path", req.URL.Path)
			return c.Problem(&notFoundError{method: c.method, path: req.URL.Path})
		}

		return spec.chain.Invoke(c)
	})

	r.writeResult(w, req, res)
}

// stripContextPath removes the context path prefix. ok is false when path
// lies outside it.
func (r *Router) stripContextPath(path string) (string, bool) {
	if r.contextPath == "" {
		return path, true
	}
	rest, ok := strings.CutPrefix(path, r.contextPath)
	if !ok {
		return path, false
	}
	if rest == "" {
		return "/", true
	}
	if rest[0] != '/' {
		return path, false
	}

	return rest, true
}

func isWebSocketUpgrade(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}

	return strings.EqualFold(req.Header.Get("Upgrade"), "websocket")
}

// writeResult writes res. []byte and string bodies are written as-is, nil
// bodies produce headers only, http.Handler bodies write the response
// themselves and anything else is JSON-encoded.
func (r *Router) writeResult(w http.ResponseWriter, req *http.Request, res Result) {
	h := w.Header()
	for k, vs := range res.Header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if res.ContentType != "" {
		h.Set("Content-Type", res.ContentType)
	}

	var body []byte
	switch b := res.Body.(type) {
	case nil:
	case []byte:
		body = b
	case string:
		body = []byte(b)
	case http.Handler:
		b.ServeHTTP(w, req)
		return
	default:
		data, err := json.Marshal(b)
		if err != nil {
			r.logger.Error("failed to encode result body", "error", err, "path", req.URL.Path)
			h.Del("Content-Type")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if res.ContentType == "" {
			h.Set("Content-Type", ContentTypeJSON)
		}
		body = data
	}

	w.WriteHeader(res.StatusCode())
	if len(body) == 0 || req.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		r.logger.Debug("failed to write response body", "error", err, "path", req.URL.Path)
	}
}

// Serve listens on addr and serves the router with the configured
// timeouts. It compiles routes first when CompileRoutes has not run.
//
// A router serves at most once: a second call returns ErrServerStarted and
// a call after Shutdown returns http.ErrServerClosed.
//
//	go func() {
//	    if err := r.Serve(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
//	        log.Fatal(err)
//	    }
//	}()
//	<-ctx.Done()
//	r.Shutdown(context.Background())
func (r *Router) Serve(addr string) error {
	r.serverMu.Lock()
	switch {
	case r.shutdown:
		r.serverMu.Unlock()
		return http.ErrServerClosed
	case r.serving:
		r.serverMu.Unlock()
		return ErrServerStarted
	}
	r.serving = true
	r.serverMu.Unlock()

	if !r.compiling.Load() {
		if err := r.CompileRoutes(); err != nil {
			return err
		}
	}

	h := http.Handler(r)
	if r.enableH2C {
		h = h2c.NewHandler(h, &http2.Server{})
		r.emit(DiagH2CEnabled, "H2C enabled; use only in dev or behind a trusted LB", nil)
	}

	timeouts := r.serverTimeouts
	if timeouts == nil {
		timeouts = defaultServerTimeouts()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: timeouts.readHeader,
		ReadTimeout:       timeouts.read,
		WriteTimeout:      timeouts.write,
		IdleTimeout:       timeouts.idle,
	}

	r.serverMu.Lock()
	if r.shutdown {
		r.serverMu.Unlock()
		return http.ErrServerClosed
	}
	r.server = srv
	r.serverMu.Unlock()

	r.logger.Info("server listening", "addr", addr, "h2c", r.enableH2C)

	return srv.ListenAndServe()
}

// Shutdown gracefully stops the server started by Serve. Called before
// Serve, it makes any later Serve return http.ErrServerClosed.
func (r *Router) Shutdown(ctx context.Context) error {
	r.serverMu.Lock()
	r.shutdown = true
	srv := r.server
	r.serverMu.Unlock()

	if srv == nil {
		return nil
	}

	return srv.Shutdown(ctx)
}
