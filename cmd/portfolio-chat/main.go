package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abdiesu04/portfolio-chat/internal/app"
	"github.com/abdiesu04/portfolio-chat/internal/config"
)

func main() {
	logger := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
		TimeFormat:      time.Kitchen,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config error", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warn("invalid APP_LOG_LEVEL, keeping info", "value", cfg.LogLevel)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	built, err := app.Build(runCtx, cfg, logger)
	if err != nil {
		logger.Fatal("build failed", "err", err)
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			logger.Error("cleanup failed", "err", err)
		}
	}()

	logger.Info("components ready",
		"knowledge_source", cfg.KnowledgeSource,
		"gateway", built.Gateway,
		"history_max_turns", cfg.HistoryMaxTurns,
		"archive", cfg.ArchiveEnabled,
	)

	// Warm the knowledge context in the background; a failure here only
	// means the first chat turn retries the build.
	go func() {
		warmCtx, cancel := context.WithTimeout(runCtx, 30*time.Second)
		defer cancel()
		if _, err := built.Knowledge.Get(warmCtx); err != nil {
			logger.Warn("knowledge context warm-up failed", "err", err)
		}
	}()

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           built.API.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	built.Sessions.StartJanitor(runCtx, 30*time.Second)

	go func() {
		logger.Info("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen error", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
