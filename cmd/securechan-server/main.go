// SPDX-License-Identifier: LGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/securechan/securechan/config"
	"github.com/securechan/securechan/httpserver"
	"github.com/securechan/securechan/internal/logger"
	"github.com/securechan/securechan/internal/metrics"
	"github.com/securechan/securechan/internal/store"
	memstore "github.com/securechan/securechan/internal/store/memory"
	pgstore "github.com/securechan/securechan/internal/store/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "securechan-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewDefaultLogger()
	log.Info("starting securechan-server",
		logger.String("environment", cfg.Environment),
		logger.String("listen_addr", cfg.Server.ListenAddr),
		logger.String("store_type", cfg.Store.Type),
	)

	st, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	srv := httpserver.New(cfg.Session, st, cfg.Server.JWTSecret, log)
	defer srv.Close()

	apiServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: srv.Router(),
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
		go func() {
			log.Info("metrics server listening", logger.String("addr", cfg.Server.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", logger.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api server listening", logger.String("addr", cfg.Server.ListenAddr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed: %w", err)
	case sig := <-sigCh:
		log.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("api server shutdown error", logger.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Error("metrics server shutdown error", logger.Error(err))
		}
	}
	return nil
}

func openStore(cfg *config.StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "postgres":
		return pgstore.NewStore(context.Background(), cfg.DSN)
	case "memory", "":
		return memstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
