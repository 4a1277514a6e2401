package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bloomfield.org/bloom-web/internal/config"
	"bloomfield.org/bloom-web/internal/content"
	"bloomfield.org/bloom-web/internal/guard"
	"bloomfield.org/bloom-web/internal/middleware"
	"bloomfield.org/bloom-web/internal/observability"
	"bloomfield.org/bloom-web/internal/state"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration invalid", zap.Error(err))
	}
	if cfg.Session.EphemeralKeys {
		logger.Warn("no session hash key configured, sessions will not survive a restart")
	}
	if cfg.Backend.BaseURL == "" {
		logger.Info("no backend configured, serving fixture catalog")
	}

	policy := guard.DefaultPolicy()
	if cfg.Guard.PolicyFile != "" {
		policy, err = guard.LoadPolicy(cfg.Guard.PolicyFile)
		if err != nil {
			logger.Fatal("guard policy invalid", zap.Error(err))
		}
	}

	application := &app{
		cfg:      cfg,
		logger:   logger,
		policy:   policy,
		registry: state.NewRegistry(cfg.Backend.BaseURL, cfg.Session.StateIdleTTL, logger, state.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout})),
		sessions: middleware.NewSessionManager(middleware.SessionConfig{
			HashKey:  cfg.Session.HashKey,
			BlockKey: cfg.Session.BlockKey,
			Secure:   cfg.Session.Secure,
			TTL:      cfg.Session.CookieTTL,
		}),
		renderer: content.NewRenderer(),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           application.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("web listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	logger.Info("web stopped")
}
