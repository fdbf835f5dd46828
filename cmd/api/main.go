package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camcoord/coordinator/internal/api"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/config"
	"github.com/camcoord/coordinator/internal/observability"
	"github.com/camcoord/coordinator/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting camcoord API service", "addr", cfg.HTTP.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewPostgresStore(ctx, cfg.Database, cfg.Pool)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(3)
	}
	defer db.Close()

	artifacts := artifact.New(cfg.Artifact.RootPath)

	router := api.NewRouter(api.RouterConfig{
		Store:           db,
		Artifacts:       artifacts,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		HealthProbeTime: 2 * time.Second,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.RequestTimeout(),
		WriteTimeout: cfg.HTTP.RequestTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
