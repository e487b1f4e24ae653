package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newResetCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Erase the seeded flag so the next start reseeds the ledger",
		Long: `reset deletes the hasBeenUsed flag from storage. The persisted materials
are left in place; the next 'ledgerd serve' replaces them with the seed records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			if err := persister.Reset(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "seeded flag erased; the next start reseeds the ledger")
			return nil
		},
	}
}
