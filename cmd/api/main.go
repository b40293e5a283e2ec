// Package main is the entry point for the trip planner API server.
// Its sole responsibility is wiring dependencies together and starting the
// server: the storage engine is constructed once here and handed down by
// reference, so no package hides a global database singleton.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/xmikolay/trip-planner-app/internal/config"
	"github.com/xmikolay/trip-planner-app/internal/handler"
	"github.com/xmikolay/trip-planner-app/internal/middleware"
	"github.com/xmikolay/trip-planner-app/internal/repo"
	"github.com/xmikolay/trip-planner-app/internal/service"
	"github.com/xmikolay/trip-planner-app/internal/state"
	"github.com/xmikolay/trip-planner-app/internal/storage"
	"github.com/xmikolay/trip-planner-app/internal/worker"
	"github.com/xmikolay/trip-planner-app/migrations"
)

// maxRequestBody caps incoming request bodies; trip records are tiny.
const maxRequestBody = 1 << 20 // 1 MiB

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog with a JSON handler writes machine-readable output suitable
	// for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Storage ----------------------------------------------------------
	// Open applies all pending migrations before returning, so the rest of
	// the wiring can assume the schema is current.
	db, err := storage.Open(context.Background(), cfg.DBPath, migrations.FS, logger)
	if err != nil {
		slog.Error("failed to open database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database ready", "path", cfg.DBPath)

	// --- Data layer and state holder --------------------------------------
	trips := repo.NewTripRepo(db)
	itinerary := repo.NewItineraryRepo(db)
	facade := service.NewTrips(trips, itinerary)

	holder := state.New(facade, logger)
	defer holder.Close()

	// --- Background reminder ----------------------------------------------
	reminder := worker.NewReminder(facade, logger, nil)
	if err := reminder.Start(cfg.ReminderSchedule); err != nil {
		slog.Error("failed to start reminder", "error", err)
		os.Exit(1)
	}
	defer reminder.Stop()

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(maxRequestBody))

	r.Mount("/", handler.NewServer(facade, holder, logger).Router())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
