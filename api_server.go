// Copyright 2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package proxyctl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saucelabs/proxyctl/log"
	"github.com/saucelabs/proxyctl/middleware"
)

type APIServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration

	PromRegistry  prometheus.Registerer
	PromNamespace string
}

func DefaultAPIServerConfig() *APIServerConfig {
	return &APIServerConfig{
		Addr:              "localhost:10000",
		ReadHeaderTimeout: time.Minute,
	}
}

// APIServer serves an APIHandler over plain HTTP.
type APIServer struct {
	config APIServerConfig
	srv    *http.Server
	log    log.StructuredLogger

	mu   sync.Mutex
	addr string

	// Listener can be set to serve on an existing listener.
	Listener net.Listener
}

func NewAPIServer(cfg *APIServerConfig, h http.Handler, logger log.StructuredLogger) (*APIServer, error) {
	if cfg.Addr == "" {
		return nil, errors.New("address is required")
	}
	if logger == nil {
		logger = log.NopLogger
	}

	ns := "api"
	if cfg.PromNamespace != "" {
		ns = cfg.PromNamespace + "_api"
	}
	accessLog := middleware.Logger(func(e middleware.LogEntry) {
		logger.Debug("API request", "method", e.Request.Method, "path", e.Request.URL.Path,
			"status", e.Status, "written", e.Written, "duration", e.Duration)
	})
	h = middleware.NewPrometheus(cfg.PromRegistry, ns,
		middleware.WithCustomLabeler("path", middleware.PathLabeler(apiPaths...)),
	).Wrap(accessLog.Wrap(h))

	return &APIServer{
		config: *cfg,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		},
		log: logger,
	}, nil
}

// Run serves until ctx is canceled, then shuts the server down gracefully.
func (s *APIServer) Run(ctx context.Context) error {
	l, err := s.listener()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.addr = l.Addr().String()
	s.mu.Unlock()

	s.log.Info("API server listening", "address", l.Addr())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		<-ctx.Done()
		if err := s.srv.Shutdown(context.Background()); err != nil {
			s.log.Error("failed to shutdown server", "error", err)
		}
	}()

	err = s.srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		s.log.Debug("server was shutdown gracefully")
		err = nil
	}
	wg.Wait()

	return err
}

func (s *APIServer) listener() (net.Listener, error) {
	if s.Listener != nil {
		return s.Listener, nil
	}
	l, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to open listener on address %s: %w", s.srv.Addr, err)
	}
	return l, nil
}

// Addr returns the address the server is listening on, or empty string if it is not running.
func (s *APIServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
