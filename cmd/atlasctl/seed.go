package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberthreat-atlas/atlas/internal/auth"
	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo catalog data and an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		return seed(cmd.Context(), db)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@example.com", "email for the seeded admin account")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password for the seeded admin account (required)")
	_ = seedCmd.MarkFlagRequired("admin-password")
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, db *sql.DB) error {
	groups := database.NewAttackGroupRepository(db)
	campaigns := database.NewCampaignRepository(db)
	families := database.NewMalwareRepository(db)
	sectors := database.NewSectorRepository(db)
	regions := database.NewRegionRepository(db)
	users := database.NewUserRepository(db)

	date := func(value string) *time.Time {
		t, _ := time.Parse("2006-01-02", value)
		return &t
	}

	for _, sector := range []models.Sector{
		{Name: "Government", Code: "GOV", Description: "National and local government bodies", ThreatLevel: 9},
		{Name: "Energy", Code: "ENE", Description: "Power generation and distribution", ThreatLevel: 8},
		{Name: "Finance", Code: "FIN", Description: "Banking and financial services", ThreatLevel: 8},
	} {
		s := sector
		if err := sectors.Upsert(ctx, &s); err != nil {
			return err
		}
	}

	for _, region := range []models.Region{
		{Name: "Western Europe", Countries: []string{"France", "Germany", "United Kingdom"}, ThreatLevel: models.ThreatHigh, ActiveThreats: []string{"APT28", "APT29"}},
		{Name: "North America", Countries: []string{"United States", "Canada"}, ThreatLevel: models.ThreatHigh, ActiveThreats: []string{"APT29"}},
	} {
		r := region
		if err := regions.Upsert(ctx, &r); err != nil {
			return err
		}
	}

	for _, group := range []models.AttackGroup{
		{
			Name:                "APT28",
			Aliases:             []string{"Fancy Bear", "Sofacy", "Sednit"},
			CountryOfOrigin:     "Russia",
			Description:         "State-sponsored espionage group active since at least 2004, known for credential phishing and zero-day use against government and defense targets.",
			FirstSeen:           date("2004-01-01"),
			Motivations:         []string{"espionage"},
			TargetSectors:       []string{"Government", "Energy"},
			TargetRegions:       []string{"Western Europe", "North America"},
			SophisticationLevel: models.SophisticationHigh,
			ThreatLevel:         9,
		},
		{
			Name:                "APT29",
			Aliases:             []string{"Cozy Bear", "The Dukes"},
			CountryOfOrigin:     "Russia",
			Description:         "Espionage group noted for stealthy long-term intrusions and supply chain compromise.",
			FirstSeen:           date("2008-01-01"),
			Motivations:         []string{"espionage"},
			TargetSectors:       []string{"Government", "Finance"},
			TargetRegions:       []string{"Western Europe", "North America"},
			SophisticationLevel: models.SophisticationHigh,
			ThreatLevel:         9,
		},
	} {
		g := group
		if err := groups.Upsert(ctx, &g); err != nil {
			return err
		}
	}

	for _, malware := range []models.Malware{
		{
			Name:             "X-Agent",
			Type:             "backdoor",
			Description:      "Modular implant with keylogging and file exfiltration modules.",
			AssociatedGroups: []string{"APT28"},
			TargetPlatforms:  []string{"Windows", "Linux", "iOS"},
			ThreatLevel:      8,
		},
		{
			Name:             "SUNBURST",
			Type:             "backdoor",
			Description:      "Trojanized update implant used for supply chain compromise.",
			AssociatedGroups: []string{"APT29"},
			TargetPlatforms:  []string{"Windows"},
			ThreatLevel:      9,
		},
	} {
		m := malware
		if err := families.Upsert(ctx, &m); err != nil {
			return err
		}
	}

	for _, campaign := range []models.Campaign{
		{
			Name:          "Election Interference 2016",
			Description:   "Credential phishing and leak operations against political organizations.",
			AttackGroups:  []string{"APT28"},
			StartDate:     date("2016-03-01"),
			EndDate:       date("2016-11-08"),
			Status:        models.CampaignCompleted,
			Severity:      models.SeverityCritical,
			Malware:       []string{"X-Agent"},
			TargetSectors: []string{"Government"},
			TargetRegions: []string{"North America"},
		},
		{
			Name:          "Supply Chain Compromise 2020",
			Description:   "Compromise of a widely deployed IT management platform.",
			AttackGroups:  []string{"APT29"},
			StartDate:     date("2020-03-01"),
			EndDate:       date("2020-12-13"),
			Status:        models.CampaignCompleted,
			Severity:      models.SeverityCritical,
			Malware:       []string{"SUNBURST"},
			TargetSectors: []string{"Government", "Finance"},
			TargetRegions: []string{"North America", "Western Europe"},
		},
	} {
		c := campaign
		if err := campaigns.Upsert(ctx, &c); err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(seedAdminPassword)
	if err != nil {
		return err
	}
	if _, err := users.Create(ctx, &models.User{
		Name:         "Administrator",
		Email:        seedAdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}); err != nil && !database.IsDuplicate(err) {
		return err
	}

	logger.Info("seed completed", "admin_email", seedAdminEmail)
	return nil
}
