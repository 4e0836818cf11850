package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopherai-rag/internal/bootstrap"
	"gopherai-rag/internal/config"
	"gopherai-rag/internal/logger"
	"gopherai-rag/internal/ragerr"
	httptransport "gopherai-rag/internal/transport/http"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger(nil).Error("load config failed", "err", err)
		os.Exit(1)
	}
	log := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.Log.Level),
		Output: os.Stderr,
		JSON:   cfg.Log.JSON,
	})
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid server config", "err", err)
		os.Exit(1)
	}
	if err := cfg.ValidateLLM(); err != nil {
		log.Warn("answers will fail until a key is configured", "err", err, "hint", ragerr.Remediation(ragerr.ErrAuthentication))
	}
	if cfg.Auth.AdminToken == "" {
		log.Warn("index jobs and engine reloads are disabled; set ADMIN_TOKEN to enable them")
	}

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Error("bootstrap failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("close resources failed", "err", err)
		}
	}()
	app.LoadIndex(ctx)

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	waitForShutdown(server, log)
}

func waitForShutdown(server *http.Server, log logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
}
