package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// Cross-reference expansion lookups. Associations between catalog entities are
// free-text natural keys, so expansion resolves whatever names currently exist
// and silently skips dangling ones.

func groupsByName(ctx context.Context, db *sql.DB, names []string) ([]models.AttackGroup, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM attack_groups WHERE name = ANY($1) ORDER BY name ASC", attackGroupColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load attack groups: %w", err)
	}
	defer rows.Close()

	var groups []models.AttackGroup
	for rows.Next() {
		g, err := scanAttackGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attack group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func techniquesByMitreID(ctx context.Context, db *sql.DB, mitreIDs []string) ([]models.Technique, error) {
	if len(mitreIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM techniques WHERE mitre_id = ANY($1) ORDER BY mitre_id ASC", techniqueColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(mitreIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load techniques: %w", err)
	}
	defer rows.Close()

	var techniques []models.Technique
	for rows.Next() {
		t, err := scanTechnique(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technique: %w", err)
		}
		techniques = append(techniques, *t)
	}
	return techniques, rows.Err()
}

func malwareByName(ctx context.Context, db *sql.DB, names []string) ([]models.Malware, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM malware WHERE name = ANY($1) ORDER BY name ASC", malwareColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load malware: %w", err)
	}
	defer rows.Close()

	var families []models.Malware
	for rows.Next() {
		m, err := scanMalware(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan malware: %w", err)
		}
		families = append(families, *m)
	}
	return families, rows.Err()
}

func sectorsByName(ctx context.Context, db *sql.DB, names []string) ([]models.Sector, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM sectors WHERE name = ANY($1) ORDER BY name ASC", sectorColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load sectors: %w", err)
	}
	defer rows.Close()

	var sectors []models.Sector
	for rows.Next() {
		s, err := scanSector(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, *s)
	}
	return sectors, rows.Err()
}

func regionsByName(ctx context.Context, db *sql.DB, names []string) ([]models.Region, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM regions WHERE name = ANY($1) ORDER BY name ASC", regionColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load regions: %w", err)
	}
	defer rows.Close()

	var regions []models.Region
	for rows.Next() {
		reg, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, *reg)
	}
	return regions, rows.Err()
}

func campaignsByName(ctx context.Context, db *sql.DB, names []string) ([]models.Campaign, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM campaigns WHERE name = ANY($1) ORDER BY name ASC", campaignColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

func indicatorsByID(ctx context.Context, db *sql.DB, ids []string) ([]models.Indicator, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM indicators WHERE id = ANY($1) ORDER BY value ASC", indicatorColumns)
	rows, err := db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to load indicators: %w", err)
	}
	defer rows.Close()

	var indicators []models.Indicator
	for rows.Next() {
		ind, err := scanIndicator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, *ind)
	}
	return indicators, rows.Err()
}
