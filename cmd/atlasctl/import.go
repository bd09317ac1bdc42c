package main

import (
	"github.com/spf13/cobra"

	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/refresh"
	"github.com/cyberthreat-atlas/atlas/internal/stix"
)

var importBundleURLs []string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the MITRE ATT&CK catalog",
	Long: `Downloads the official ATT&CK STIX bundles and merges attack groups,
techniques and malware families into the catalog. Repeated runs refresh
existing records rather than duplicating them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		importer := refresh.NewImporter(
			stix.NewClient(),
			database.NewAttackGroupRepository(db),
			database.NewTechniqueRepository(db),
			database.NewMalwareRepository(db),
			importBundleURLs,
			logger,
		)
		return importer.Run(cmd.Context())
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importBundleURLs, "bundle-url", nil,
		"STIX bundle URL to import (repeatable; defaults to the official ATT&CK bundles)")
	rootCmd.AddCommand(importCmd)
}
