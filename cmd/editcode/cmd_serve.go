// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/editcode/pkg/telemetry"
	"github.com/AleutianAI/editcode/services/editcode"
	"github.com/AleutianAI/editcode/services/editcode/metadata"
)

// shutdownTimeout bounds in-flight requests after a stop signal.
const shutdownTimeout = 30 * time.Second

// newRouter builds the HTTP engine.
//
//	GET  /metrics     (when metricsHandler is non-nil)
//	POST /v1/edit
//	GET  /v1/health
func newRouter(handlers *editcode.Handlers, metricsHandler http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("editcode"))

	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
	editcode.RegisterRoutes(router.Group("/v1"), handlers)
	return router
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.logger.Close()

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = editcode.ServiceVersion
	if !serveMetrics {
		tcfg.MetricExporter = "none"
	}
	reg := prometheus.NewRegistry()
	tcfg.Registry = reg
	providers, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	var fetchMetrics *metadata.Metrics
	if serveMetrics {
		fetchMetrics = metadata.NewMetrics(reg)
	}
	editor, err := newEditor(s.cfg, s.apiKey, s.logger, fetchMetrics)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = s.cfg.Server.Addr
	}
	if s.cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(editcode.NewHandlers(editor, s.apiKey), providers.MetricsHandler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting editcode server", "addr", addr, "model", s.cfg.Model.Name)
		errCh <- srv.ListenAndServe()
	}()
	s.printer.Success(fmt.Sprintf("Serving on http://%s/v1", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down editcode server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
