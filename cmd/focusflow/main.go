// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command focusflow runs the FocusFlow API server.
//
// Configuration comes from the environment (a .env file is honored):
//
//   - PORT: HTTP server port (default: 8080)
//   - DATABASE_URL: postgres:// DSN; empty selects local SQLite
//   - SQLITE_PATH: SQLite file path (default: focusflow.db)
//   - JWT_SECRET: token signing secret
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//
// # Usage
//
//	# Run the server
//	focusflow serve
//
//	# Apply schema migrations and exit
//	focusflow migrate
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/focusflowhq/focusflow/pkg/logging"
	"github.com/focusflowhq/focusflow/services/api/config"
	"github.com/focusflowhq/focusflow/services/api/routes"
	"github.com/focusflowhq/focusflow/services/api/storage"
)

// initTracer sets up OTLP trace export to the configured collector and
// returns a shutdown func.
func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("focusflow-api")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the FocusFlow API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			logger := logging.New(logging.Config{
				Level:   logging.LevelInfo,
				LogDir:  cfg.LogDir,
				Service: "api",
				JSON:    true,
			})
			defer logger.Close()
			slog.SetDefault(logger.Slog())

			if cfg.OTLPEndpoint != "" {
				cleanup, err := initTracer(cfg.OTLPEndpoint)
				if err != nil {
					return fmt.Errorf("setup OTLP tracer: %w", err)
				}
				defer cleanup(context.Background())
			}

			db, err := storage.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := storage.Migrate(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}

			r := gin.New()
			r.Use(gin.Recovery())
			if cfg.OTLPEndpoint != "" {
				r.Use(otelgin.Middleware("focusflow-api"))
			}
			routes.Setup(r, db, cfg)

			slog.Info("starting focusflow api", "port", cfg.Port)
			return r.Run(":" + cfg.Port)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := storage.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := storage.Migrate(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			slog.Info("migrations applied")
			return nil
		},
	}
}

func main() {
	root := &cobra.Command{
		Use:           "focusflow",
		Short:         "FocusFlow personal productivity backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
