package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/config"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/logging"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/server"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/signaling"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/version"
)

func main() {
	logging.Init(slog.LevelInfo)

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Create the Hub and run its event loop
	hub := signaling.NewHub(signaling.Options{
		PairDelay: cfg.PairDelay,
		Logger:    slog.Default(),
	})
	go hub.Run(ctx)

	// 2. Serve /ws, /health and /metrics
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.NewMux(hub),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "err", err)
		}
	}()

	slog.Info("starting signaling server", "addr", cfg.ListenAddr, "version", version.Version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}

	<-hub.Done()
	slog.Info("signaling server stopped")
}
