package main

import (
	"github.com/spf13/cobra"

	"github.com/cyberthreat-atlas/atlas/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		return database.RunMigrations(db, cfg.Database.MigrationsDir, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
