package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearConfirmed bool

// Catalog tables only. Users and applied migrations survive a clear.
var catalogTables = []string{
	"indicators",
	"campaigns",
	"malware",
	"attack_groups",
	"techniques",
	"regions",
	"sectors",
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all catalog records",
	Long:  "Deletes every attack group, campaign, technique, malware family, indicator, region and sector. Users are kept. Typically followed by `atlasctl import`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirmed {
			return fmt.Errorf("refusing to delete catalog data without --yes")
		}

		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		for _, table := range catalogTables {
			if _, err := db.ExecContext(cmd.Context(), "TRUNCATE TABLE "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
			logger.Info("cleared table", "table", table)
		}
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "confirm deletion")
	rootCmd.AddCommand(clearCmd)
}
