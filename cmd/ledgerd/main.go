// Package main is the entry point for the material ledger service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/material-ledger/internal/config"
	"github.com/vyrodovalexey/material-ledger/internal/persist"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running without a subcommand serves.
func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "ledgerd",
		Short: "ledgerd tracks school supply materials by condition",
		Long: `ledgerd keeps an inventory of materials (name, status, quantity) and
serves it over a REST and WebSocket API. State is persisted to the configured
storage backend; on the very first start the ledger is seeded with a fixed
set of records.

Configuration is read from APP_* environment variables and an optional .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	serve := newServeCmd(&envFile)
	root.RunE = serve.RunE
	root.AddCommand(serve, newSnapshotCmd(&envFile), newResetCmd(&envFile))

	return root
}

// loadConfig applies the dotenv file, then reads and validates the environment.
func loadConfig(envFile string) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

// openPersister opens the configured storage backend. The caller closes the
// returned KV.
func openPersister(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persist.Persister, persist.KV, error) {
	kv, err := persist.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	return persist.NewPersister(kv, cfg.Storage.KeyPrefix), kv, nil
}

// initLogger initializes a JSON zap logger writing to output.
func initLogger(level, output string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	zapConfig := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapConfig.Build()
}
