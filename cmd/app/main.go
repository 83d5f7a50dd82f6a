package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cors-relay/internal/application/admission"
	"cors-relay/internal/application/config"
	"cors-relay/internal/application/host"
	"cors-relay/internal/application/relay"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	settings, err := config.LoadSettings("./config/settings.yml")
	if err != nil {
		logger.Error("failed to load settings", "error", err)
		os.Exit(1)
	}

	relayCfg := config.LoadRelayConfig(logger, os.LookupEnv)
	filter := admission.NewFilter(logger, relayCfg)
	executor := relay.NewExecutor(settings.Relay.UpstreamTimeout)
	handler := relay.NewHandler(logger, filter, executor, settings.Relay.Version)

	server := &http.Server{
		Addr:           settings.Server.Listen,
		ReadTimeout:    settings.Server.Timeouts.Read,
		WriteTimeout:   settings.Server.Timeouts.Write,
		IdleTimeout:    settings.Server.Timeouts.Idle,
		MaxHeaderBytes: settings.Server.Limits.MaxHeaderBytes,
		Handler:        host.LogRequests(logger, host.Router(handler)),
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	logger.Info("listening", "addr", settings.Server.Listen, "version", settings.Relay.Version)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
