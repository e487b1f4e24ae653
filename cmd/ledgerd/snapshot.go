package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

// Output formats of the snapshot command.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var errUnknownFormat = errors.New("format must be json or yaml")

// persistedState mirrors the two durable keys.
type persistedState struct {
	Seeded   bool            `json:"hasBeenUsed" yaml:"hasBeenUsed"`
	Snapshot *model.Snapshot `json:"material" yaml:"material"`
}

func newSnapshotCmd(envFile *string) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the persisted ledger state and seeded flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("%w: %q", errUnknownFormat, format)
			}

			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger, err := initLogger(cfg.LogLevel, "stderr")
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			persister, kv, err := openPersister(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := kv.Close(); err != nil {
					logger.Warn("closing storage", zap.Error(err))
				}
			}()

			var state persistedState
			if state.Seeded, err = persister.Seeded(cmd.Context()); err != nil {
				return err
			}
			snap, found, err := persister.LoadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if found {
				state.Snapshot = &snap
			}

			return writeState(cmd.OutOrStdout(), format, state)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json or yaml")

	return cmd
}

func writeState(w io.Writer, format string, state persistedState) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
}
