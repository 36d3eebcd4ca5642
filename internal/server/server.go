/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server bundles the HTTP surface with its supporting services.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gridcast/internal/api"
	"github.com/friendsincode/gridcast/internal/config"
	"github.com/friendsincode/gridcast/internal/db"
	"github.com/friendsincode/gridcast/internal/guide"
	"github.com/friendsincode/gridcast/internal/lanes"
	"github.com/friendsincode/gridcast/internal/plan"
	"github.com/friendsincode/gridcast/internal/scheduler"
	"github.com/friendsincode/gridcast/internal/telemetry"
	"github.com/friendsincode/gridcast/internal/version"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db        *gorm.DB
	lanes     *lanes.Directory
	builder   *plan.Builder
	guide     *guide.Service
	api       *api.API
	scheduler *scheduler.Service

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.Handler())
	srv.metricsServer = &http.Server{
		Addr:              cfg.MetricsBind,
		Handler:           metricsMux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	srv.startBackgroundWorkers()

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	ctx := context.Background()
	s.lanes = lanes.New(database, s.logger)
	if s.cfg.LaneFile != "" {
		if err := s.lanes.SyncFromFile(ctx, s.cfg.LaneFile); err != nil {
			return fmt.Errorf("sync lane file: %w", err)
		}
	} else {
		created, err := s.lanes.SeedIfEmpty(ctx, s.cfg.SeedLanes)
		if err != nil {
			return fmt.Errorf("seed lanes: %w", err)
		}
		if created > 0 {
			s.logger.Info().Int("lanes", created).Msg("lane directory seeded")
		}
	}

	s.builder = plan.NewBuilder(database, version.Version, s.logger)
	s.guide = guide.New(database, s.logger)
	s.api = api.New(database, s.guide, s.logger)
	s.scheduler = scheduler.New(database, s.builder, s.cfg, s.logger)
	return nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.api.Routes(s.router)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("rebuild loop exited")
		}
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.logger.Info().Str("addr", s.cfg.MetricsBind).Msg("metrics server listening")
		if err := s.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := s.metricsServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("metrics server shutdown error")
	}
	cancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// DB exposes the database handle for commands sharing server wiring.
func (s *Server) DB() *gorm.DB {
	return s.db
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
