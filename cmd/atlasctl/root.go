package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cyberthreat-atlas/atlas/internal/config"
	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "atlasctl",
	Short: "Administrative tooling for the atlas threat catalog",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context) (*sql.DB, error) {
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConnections = cfg.Database.MaxConnections
	return database.Connect(ctx, dbCfg)
}
