package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/material-ledger/internal/auth"
	"github.com/vyrodovalexey/material-ledger/internal/persist"
	"github.com/vyrodovalexey/material-ledger/internal/server"
	"github.com/vyrodovalexey/material-ledger/internal/store"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ledger API server (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *envFile)
		},
	}
}

func runServe(ctx context.Context, envFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel, "stdout")
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("configuration loaded",
		zap.Int("server_port", cfg.ServerPort),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("shutdown_timeout", cfg.ShutdownTimeout),
		zap.Bool("metrics_enabled", cfg.MetricsEnabled),
		zap.Bool("strict_validation", cfg.StrictValidation),
		zap.String("auth_mode", cfg.AuthMode),
		zap.String("storage_backend", cfg.Storage.Backend),
	)

	authenticator, err := auth.New(cfg.AuthMode, cfg.BasicAuthUsers, cfg.APIKeys)
	if err != nil {
		return fmt.Errorf("creating authenticator: %w", err)
	}

	persister, kv, err := openPersister(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("closing storage", zap.Error(err))
		}
	}()

	ledger := store.NewLedger()
	if _, err := store.Bootstrap(ctx, ledger, persister, logger); err != nil {
		return fmt.Errorf("bootstrapping ledger: %w", err)
	}
	unsubscribe := ledger.Subscribe(persist.Subscriber(persister, logger))
	defer unsubscribe()

	srv := server.New(cfg, logger, ledger, authenticator)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
