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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/camcoord/coordinator/internal/aiclient"
	"github.com/camcoord/coordinator/internal/artifact"
	"github.com/camcoord/coordinator/internal/config"
	"github.com/camcoord/coordinator/internal/observability"
	"github.com/camcoord/coordinator/internal/store"
	"github.com/camcoord/coordinator/internal/worker"
	"github.com/camcoord/coordinator/internal/worker/aiworker"
	"github.com/camcoord/coordinator/internal/worker/convert"
	"github.com/camcoord/coordinator/internal/worker/optimize"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	stageName := flag.String("stage", "", "worker stage to run: conversion, optimization, or ai")
	metricsAddr := flag.String("metrics-addr", ":8082", "address for the metrics/healthz endpoint")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if *stageName != "conversion" && *stageName != "optimization" && *stageName != "ai" {
		slog.Error("missing or unknown -stage flag", "stage", *stageName)
		os.Exit(2)
	}

	slog.Info("starting camcoord worker", "stage", *stageName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewPostgresStore(ctx, cfg.Database, cfg.Pool)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(3)
	}
	defer db.Close()

	artifacts := artifact.New(cfg.Artifact.RootPath)
	claimant := worker.ClaimantID()

	var stage worker.Stage
	switch *stageName {
	case "conversion":
		stage = &convert.Stage{
			Store:          db,
			Artifacts:      artifacts,
			Claimant:       claimant,
			ReclaimHorizon: cfg.Worker.ReclaimHorizon(),
			Quiescence:     cfg.Worker.Quiescence(),
		}
	case "optimization":
		stage = &optimize.Stage{
			Store:          db,
			Artifacts:      artifacts,
			Claimant:       claimant,
			ReclaimHorizon: cfg.Worker.ReclaimHorizon(),
			Quiescence:     cfg.Worker.Quiescence(),
		}
	case "ai":
		stage = &aiworker.Stage{
			Store:          db,
			Artifacts:      artifacts,
			AI:             aiclient.New(cfg.Worker.AIEndpointURL, cfg.Worker.PerEventTimeout()),
			Claimant:       claimant,
			ReclaimHorizon: cfg.Worker.ReclaimHorizon(),
			RetryBudget:    cfg.Worker.AIRetryBudget,
		}
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("worker metrics listening", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	go worker.Loop(ctx, stage, worker.Config{
		BatchSize:       cfg.Worker.BatchSize,
		PollIdle:        cfg.Worker.PollIdle(),
		PerEventTimeout: cfg.Worker.PerEventTimeout(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	cancel()
	// Loop stops claiming new batches as soon as it next checks ctx, but
	// any event it already claimed is mid-flight on a context derived
	// from context.Background(), not from ctx, so this sleep is a real
	// grace window for that commit to land rather than a no-op.
	time.Sleep(2 * time.Second)
	slog.Info("worker stopped")
}
