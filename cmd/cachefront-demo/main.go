package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unkn0wn-root/cachefront/internal/bootstrap"
	"github.com/unkn0wn-root/cachefront/internal/config"
	"github.com/unkn0wn-root/cachefront/internal/httpapi"
	"github.com/unkn0wn-root/cachefront/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	zl, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	logger.Infow("Starting cachefront demo",
		"env", cfg.Env,
		"addr", cfg.HTTPAddr,
		"backend", cfg.Cache.Backend,
		"codec", cfg.Cache.Codec,
	)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	app, err := bootstrap.Build(bootCtx, cfg, zl)
	bootCancel()
	if err != nil {
		logger.Fatalw("Failed to build application", "error", err)
	}

	h := httpapi.NewHandler(app.Service, app.Repo, app.Registry, logger)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      h.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server starting", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		_ = app.Close(context.Background())
		logger.Fatalw("Server startup failed", "error", err)
	case sig := <-shutdown:
		logger.Infow("Shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Errorw("Graceful shutdown failed", "error", err)
			server.Close()
		}
		if err := app.Close(ctx); err != nil {
			logger.Errorw("Failed to close application", "error", err)
		}

		logger.Infow("Server stopped")
	}
}
