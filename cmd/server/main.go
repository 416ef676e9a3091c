package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sasha-s/go-deadlock"

	"github.com/ugaemi/geohunt-server/internal/clock"
	"github.com/ugaemi/geohunt-server/internal/config"
	"github.com/ugaemi/geohunt-server/internal/handler"
	"github.com/ugaemi/geohunt-server/internal/result"
	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/store"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

const saveResultTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	deadlock.Opts.Disable = !cfg.DeadlockDetection

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to open result store", "error", err)
		os.Exit(1)
	}
	defer results.Close()

	registry := room.NewRegistry(clock.Real{}, nil)
	registry.OnGameEnd = func(summary room.GameSummary) {
		go saveResult(results, summary)
	}

	hub := ws.NewHub()
	router := handler.NewRouter(registry)
	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect

	go hub.Run(ctx)
	go room.NewRevealer(registry).Run(ctx)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: handler.NewHTTPHandler(handler.HTTPConfig{
			Registry:    registry,
			Hub:         hub,
			Results:     results,
			JoinURLBase: cfg.JoinURLBase,
		}),
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func saveResult(results store.ResultStore, summary room.GameSummary) {
	ctx, cancel := context.WithTimeout(context.Background(), saveResultTimeout)
	defer cancel()

	r := result.NewGameResult(summary)
	if err := results.SaveResult(ctx, r); err != nil {
		slog.Error("failed to save game result", "room", summary.Code, "error", err)
		return
	}
	slog.Debug("game result saved", "room", summary.Code, "result", r.ID)
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h).With("service", "geohunt"))
}
