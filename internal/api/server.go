// Package api exposes the governance store and compliance gate over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// Server serves the governance API.
type Server struct {
	store    core.Store
	registry core.ModelRegistry
	gate     *gate.Gate
	addr     string
	logger   *slog.Logger
}

// Config holds the server dependencies.
type Config struct {
	Store    core.Store
	Registry core.ModelRegistry
	Gate     *gate.Gate
	Addr     string
	Logger   *slog.Logger
}

// NewServer creates an API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		store:    cfg.Store,
		registry: cfg.Registry,
		gate:     cfg.Gate,
		addr:     cfg.Addr,
		logger:   logger,
	}
}

// Routes builds the HTTP routing table.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/models/{modelID}/validate", s.handleValidate)
		r.Get("/models/{modelID}/audit", s.handleAuditLog)
		r.Get("/lineage/{datasetID}", s.handleGetLineage)
		r.Get("/lineage/{datasetID}/verify", s.handleVerifyLineage)
		r.Get("/rules", s.handleRules)
	})

	return r
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
