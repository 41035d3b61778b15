// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sceneforge/sceneforge/services/animator"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the animator HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.newLogger()

			clients, err := opts.buildClients()
			if err != nil {
				return err
			}
			svc, err := animator.NewService(opts.serviceConfig(), clients, logger)
			if err != nil {
				return err
			}

			// Reference scenes reload when the templates directory
			// changes, so prompt tuning needs no restart.
			watchCtx, stopWatch := context.WithCancel(cmd.Context())
			defer stopWatch()
			if err := svc.Templates().Watch(watchCtx); err != nil {
				logger.Warn("template watching disabled", "error", err)
			}

			if opts.debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			router := gin.New()
			router.Use(gin.Recovery())
			if opts.debug {
				router.Use(gin.Logger())
			}

			v1 := router.Group("/v1")
			animator.RegisterRoutes(v1, animator.NewHandlers(svc, logger))
			router.GET("/metrics", gin.WrapH(promhttp.Handler()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: addr, Handler: router}
			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting animator server", slog.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			// Let in-flight generation requests finish before exiting.
			logger.Info("shutting down")
			stopWatch()
			svc.Templates().Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
