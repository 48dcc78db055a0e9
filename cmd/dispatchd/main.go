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

// Command dispatchd serves a small order API on the dispatch router.
//
//	dispatchd -config dispatchd.yaml
//
// Settings are read from the optional file, then from DISPATCH_*
// environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/metrics"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/router/middleware/accesslog"
	"rivaas.dev/dispatch/router/middleware/recovery"
	"rivaas.dev/dispatch/router/middleware/requestid"
	"rivaas.dev/dispatch/tracing"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "dispatchd:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dispatchd", flag.ContinueOnError)
	file := fs.String("config", "", "settings file (yaml, toml or json)")
	consulAddr := fs.String("consul", "", "consul agent address for -consul-key")
	consulKey := fs.String("consul-key", "", "consul KV key holding settings")
	routes := fs.Bool("routes", false, "print the route table and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var opts []config.Option
	if *file != "" {
		opts = append(opts, config.WithFile(*file))
	}
	if *consulKey != "" {
		opts = append(opts, config.WithConsul(*consulAddr, *consulKey))
	}
	opts = append(opts, config.WithEnv("DISPATCH_"))

	settings, err := config.Load(ctx, opts...)
	if err != nil {
		return err
	}

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	log := logger.Logger()

	recorder, err := newRecorder(settings, log)
	if err != nil {
		return err
	}
	tracer, err := newTracer(settings, log)
	if err != nil {
		return err
	}

	routerOpts := []router.Option{
		router.WithLogger(log),
		router.WithStrictRoutes(settings.Router.Strict),
		router.WithContextPath(settings.Router.Base),
		router.WithH2C(settings.Server.H2C),
		router.WithServerTimeouts(
			settings.Server.Timeouts.Header,
			settings.Server.Timeouts.Read,
			settings.Server.Timeouts.Write,
			settings.Server.Timeouts.Idle,
		),
		router.WithObserver(tracer),
	}
	if recorder != nil {
		routerOpts = append(routerOpts, router.WithObserver(recorder))
	}

	r, err := router.New(routerOpts...)
	if err != nil {
		return err
	}
	r.Use(
		requestid.New(),
		recovery.New(),
		accesslog.New(accesslog.WithExcludePaths("/health", settings.Metrics.Path)),
	)
	registerRoutes(r, newOrderStore())

	if recorder != nil {
		if h, err := recorder.Handler(); err == nil {
			r.GET().Route(settings.Metrics.Path).NoGlobalFilters().WithResult(router.Handler(h))
		}
	}

	if err := r.CompileRoutes(); err != nil {
		return err
	}
	if *routes {
		r.PrintRoutes(os.Stdout)
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Serve(settings.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down", "timeout", settings.Server.Timeouts.Shutdown)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Server.Timeouts.Shutdown)
	defer cancel()

	err = r.Shutdown(shutdownCtx)
	err = errors.Join(err, tracer.Shutdown(shutdownCtx))
	if recorder != nil {
		err = errors.Join(err, recorder.Shutdown(shutdownCtx))
	}

	return err
}

func newLogger(s *config.Settings) (*logging.Logger, error) {
	level, err := logging.ParseLevel(s.Logging.Level)
	if err != nil {
		return nil, err
	}

	return logging.New(
		logging.WithHandlerType(logging.HandlerType(s.Logging.Format)),
		logging.WithLevel(level),
		logging.WithServiceName(s.Service.Name),
		logging.WithServiceVersion(serviceVersion(s)),
		logging.WithEnvironment(s.Service.Env),
		logging.WithGlobalLogger(),
	)
}

func newRecorder(s *config.Settings, log *slog.Logger) (*metrics.Recorder, error) {
	opts := []metrics.Option{
		metrics.WithServiceName(s.Service.Name),
		metrics.WithServiceVersion(serviceVersion(s)),
		metrics.WithExcludePaths("/health", s.Metrics.Path),
		metrics.WithLogger(log),
	}
	switch s.Metrics.Provider {
	case "none":
		return nil, nil
	case "prometheus":
		opts = append(opts, metrics.WithPrometheus())
	case "otlp":
		opts = append(opts, metrics.WithOTLP(s.Metrics.Endpoint))
	case "stdout":
		opts = append(opts, metrics.WithStdout(os.Stdout))
	}

	return metrics.New(opts...)
}

func newTracer(s *config.Settings, log *slog.Logger) (*tracing.Tracer, error) {
	opts := []tracing.Option{
		tracing.WithServiceName(s.Service.Name),
		tracing.WithServiceVersion(serviceVersion(s)),
		tracing.WithSampleRate(s.Tracing.Ratio),
		tracing.WithExcludePaths("/health", s.Metrics.Path),
		tracing.WithLogger(log),
	}
	switch s.Tracing.Provider {
	case "stdout":
		opts = append(opts, tracing.WithStdout(os.Stdout))
	case "otlp":
		opts = append(opts, tracing.WithOTLP(s.Tracing.Endpoint))
	case "otlp-http":
		opts = append(opts, tracing.WithOTLPHTTP(s.Tracing.Endpoint))
	}

	return tracing.New(opts...)
}

func serviceVersion(s *config.Settings) string {
	if s.Service.Version != "" {
		return s.Service.Version
	}

	return version
}

// order is the resource served by the demo API.
type order struct {
	ID    int    `json:"id"`
	Item  string `json:"item"`
	Owner string `json:"owner"`
}

type orderStore struct {
	mu     sync.RWMutex
	nextID int
	orders map[int]order
}

func newOrderStore() *orderStore {
	return &orderStore{nextID: 1, orders: make(map[int]order)}
}

func (s *orderStore) add(item, owner string) order {
	s.mu.Lock()
	defer s.mu.Unlock()

	o := order{ID: s.nextID, Item: item, Owner: owner}
	s.orders[o.ID] = o
	s.nextID++

	return o
}

func (s *orderStore) get(id int) (order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	return o, ok
}

func (s *orderStore) list() []order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]order, 0, len(s.orders))
	for id := 1; id < s.nextID; id++ {
		if o, ok := s.orders[id]; ok {
			out = append(out, o)
		}
	}

	return out
}
