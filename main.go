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

	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"psichat/internal/config"
	"psichat/internal/database"
	"psichat/internal/hub"
	"psichat/internal/scheduler"
	"psichat/internal/translate"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: cfg.LogLevel,
	})))

	store, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.NewHub()
	registry := hub.NewSessionRegistry()
	sched := scheduler.New(store, cfg.PurgeInterval)
	translator := translate.New(cfg.TranslatorURL, cfg.TranslatorTimeout)
	router := hub.NewRouter(store, registry, h, sched, translator, cfg.BotID)

	controller := NewController(ctx, h, router)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", controller.HandleWS)
	mux.HandleFunc("/health", controller.HandleHealth)
	mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: cors.AllowAll().Handler(mux),
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("shutting down", "signal", sig.String())

		sched.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server listening", "addr", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
