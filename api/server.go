// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package api is the query API front door (C6): request routing,
// circuit-breaker-guarded index queries, and idempotent writes.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Config configures the HTTP listener, adapted from the teacher's own
// link-sharing httpserver.Server: a named listener bound eagerly in New
// so configuration errors surface before Run is ever called.
type Config struct {
	Name            string
	Address         string
	ShutdownTimeout time.Duration
}

// DefaultConfig is a conservative default.
func DefaultConfig() Config {
	return Config{Name: "api", Address: ":8080", ShutdownTimeout: 10 * time.Second}
}

// Server serves the query API over HTTP.
type Server struct {
	log      *zap.Logger
	cfg      Config
	listener net.Listener
	server   *http.Server
}

// New binds cfg.Address and returns a Server serving router. Binding
// eagerly means a misconfigured address is reported by New, not by the
// first Run.
func New(log *zap.Logger, cfg Config, router *mux.Router) (*Server, error) {
	if cfg.Address == "" {
		return nil, errors.New("api: server address is required")
	}
	if router == nil {
		return nil, errors.New("api: router is required")
	}

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, errors.New("api: unable to listen on " + cfg.Address + ": " + err.Error())
	}

	return &Server{
		log:      log,
		cfg:      cfg,
		listener: listener,
		server:   &http.Server{Handler: router},
	}, nil
}

// Addr returns the bound listener address, useful in tests binding to
// a random port (":0").
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run serves until ctx is cancelled, then gracefully shuts down within
// ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.server.Serve(s.listener) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// Close closes the listener without waiting for graceful shutdown; used
// when Run was never started (e.g. a New call whose caller bailed).
func (s *Server) Close() error {
	return s.listener.Close()
}
