package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var campaignFilters = filterSet{
	"name":            {column: "name", kind: matchSubstring},
	"attack_group":    {column: "attack_groups", kind: matchContains},
	"status":          {column: "status", kind: matchExact},
	"severity":        {column: "severity", kind: matchExact},
	"technique":       {column: "techniques", kind: matchContains},
	"malware":         {column: "malware", kind: matchContains},
	"targeted_sector": {column: "target_sectors", kind: matchContains},
	"targeted_region": {column: "target_regions", kind: matchContains},
	"sectors":         {column: "target_sectors", kind: matchOverlap},
	"regions":         {column: "target_regions", kind: matchOverlap},
	"start_date":      {column: "start_date", kind: matchDateFrom},
	"end_date":        {column: "end_date", kind: matchDateTo},
}

const campaignColumns = `id, name, description, attack_groups, start_date, end_date,
	status, severity, techniques, malware, target_sectors, target_regions,
	indicator_ids, refs, created_at, updated_at`

// CampaignRepository handles campaign persistence.
type CampaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository.
func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create stores a new campaign and returns it with generated fields set.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	refs, err := marshalRefs(campaign.References)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO campaigns (id, name, description, attack_groups, start_date,
			end_date, status, severity, techniques, malware, target_sectors,
			target_regions, indicator_ids, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Description,
		pq.Array(campaign.AttackGroups), campaign.StartDate, campaign.EndDate,
		campaign.Status, campaign.Severity, pq.Array(campaign.Techniques),
		pq.Array(campaign.Malware), pq.Array(campaign.TargetSectors),
		pq.Array(campaign.TargetRegions), pq.Array(campaign.IndicatorIDs), refs,
	).Scan(&campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return campaign, nil
}

// GetByID retrieves a campaign by ID with its cross-references expanded.
func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := fmt.Sprintf("SELECT %s FROM campaigns WHERE id = $1", campaignColumns)
	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	if err := r.expand(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

// GetByName retrieves a campaign by its unique name.
func (r *CampaignRepository) GetByName(ctx context.Context, name string) (*models.Campaign, error) {
	query := fmt.Sprintf("SELECT %s FROM campaigns WHERE name = $1", campaignColumns)
	campaign, err := scanCampaign(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign by name: %w", err)
	}
	return campaign, nil
}

// Update replaces a campaign's mutable fields.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	refs, err := marshalRefs(campaign.References)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE campaigns
		SET name = $2, description = $3, attack_groups = $4, start_date = $5,
			end_date = $6, status = $7, severity = $8, techniques = $9,
			malware = $10, target_sectors = $11, target_regions = $12,
			indicator_ids = $13, refs = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Description,
		pq.Array(campaign.AttackGroups), campaign.StartDate, campaign.EndDate,
		campaign.Status, campaign.Severity, pq.Array(campaign.Techniques),
		pq.Array(campaign.Malware), pq.Array(campaign.TargetSectors),
		pq.Array(campaign.TargetRegions), pq.Array(campaign.IndicatorIDs), refs,
	).Scan(&campaign.CreatedAt, &campaign.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return campaign, nil
}

// Delete removes a campaign by ID.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of campaigns matching the recognized filters, plus the
// total match count. Campaigns sort newest first by start date.
func (r *CampaignRepository) List(ctx context.Context, q models.ListQuery) ([]models.Campaign, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := campaignFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of campaigns matching a structured search request.
func (r *CampaignRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Campaign, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"name", "description"})
	applyFacetOverlap(b, "attack_groups", req.AttackGroups)
	applyFacetOverlap(b, "techniques", req.Techniques)
	applyFacetOverlap(b, "malware", req.Malware)
	applyFacetOverlap(b, "target_sectors", req.Sectors)
	applyFacetOverlap(b, "target_regions", req.Regions)
	applyFacetAny(b, "severity", req.Severity)
	applyFacetAny(b, "status", req.Status)
	applyTimeframe(b, req.Timeframe, "start_date", "end_date")

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *CampaignRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.Campaign, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM campaigns %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM campaigns %s ORDER BY start_date DESC NULLS LAST, id ASC LIMIT %s OFFSET %s`,
		campaignColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read campaigns: %w", err)
	}
	return campaigns, total, nil
}

// Timeline returns dated campaigns matching the recognized filters, flattened
// for timeline visualization and sorted oldest first. Undated campaigns are
// skipped; an open-ended campaign ends at the current time.
func (r *CampaignRepository) Timeline(ctx context.Context, filters map[string]string) ([]models.TimelineEntry, error) {
	b := &whereBuilder{}
	if err := campaignFilters.apply(b, filters); err != nil {
		return nil, err
	}
	b.where("start_date IS NOT NULL")

	query := fmt.Sprintf(`SELECT %s FROM campaigns %s ORDER BY start_date ASC, id ASC`,
		campaignColumns, b.clause())
	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign timeline: %w", err)
	}
	defer rows.Close()

	entries := []models.TimelineEntry{}
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}

		entry := models.TimelineEntry{
			ID:          campaign.ID,
			Name:        campaign.Name,
			Description: campaign.Description,
			Start:       campaign.StartDate,
			End:         time.Now().UTC(),
			Status:      campaign.Status,
			Severity:    campaign.Severity,
		}
		if campaign.EndDate != nil {
			entry.End = *campaign.EndDate
		}

		if len(campaign.AttackGroups) > 0 {
			groups, err := groupsByName(ctx, r.db, campaign.AttackGroups[:1])
			if err != nil {
				return nil, err
			}
			if len(groups) > 0 {
				entry.AttackGroup = &models.TimelineGroup{
					ID:      groups[0].ID,
					Name:    groups[0].Name,
					Country: groups[0].CountryOfOrigin,
				}
			}
		}

		regions, err := regionsByName(ctx, r.db, campaign.TargetRegions)
		if err != nil {
			return nil, err
		}
		for _, reg := range regions {
			entry.Regions = append(entry.Regions, models.TimelineRegion{ID: reg.ID, Name: reg.Name})
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read campaign timeline: %w", err)
	}
	return entries, nil
}

// Upsert inserts or refreshes a campaign keyed by its unique name.
func (r *CampaignRepository) Upsert(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	refs, err := marshalRefs(campaign.References)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO campaigns (id, name, description, attack_groups, start_date,
			end_date, status, severity, techniques, malware, target_sectors,
			target_regions, indicator_ids, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			attack_groups = EXCLUDED.attack_groups,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status,
			techniques = EXCLUDED.techniques,
			malware = EXCLUDED.malware,
			refs = EXCLUDED.refs,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		campaign.ID, campaign.Name, campaign.Description,
		pq.Array(campaign.AttackGroups), campaign.StartDate, campaign.EndDate,
		campaign.Status, campaign.Severity, pq.Array(campaign.Techniques),
		pq.Array(campaign.Malware), pq.Array(campaign.TargetSectors),
		pq.Array(campaign.TargetRegions), pq.Array(campaign.IndicatorIDs), refs)
	if err != nil {
		return fmt.Errorf("failed to upsert campaign: %w", err)
	}
	return nil
}

func (r *CampaignRepository) expand(ctx context.Context, campaign *models.Campaign) error {
	groups, err := groupsByName(ctx, r.db, campaign.AttackGroups)
	if err != nil {
		return err
	}
	campaign.Groups = groups

	techniques, err := techniquesByMitreID(ctx, r.db, campaign.Techniques)
	if err != nil {
		return err
	}
	campaign.TechniquesUsed = techniques

	families, err := malwareByName(ctx, r.db, campaign.Malware)
	if err != nil {
		return err
	}
	campaign.MalwareUsed = families

	sectors, err := sectorsByName(ctx, r.db, campaign.TargetSectors)
	if err != nil {
		return err
	}
	campaign.TargetedSectors = sectors

	regions, err := regionsByName(ctx, r.db, campaign.TargetRegions)
	if err != nil {
		return err
	}
	campaign.TargetedRegions = regions

	indicators, err := indicatorsByID(ctx, r.db, campaign.IndicatorIDs)
	if err != nil {
		return err
	}
	campaign.IndicatorDocuments = indicators
	return nil
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var campaign models.Campaign
	var refs []byte
	err := row.Scan(
		&campaign.ID, &campaign.Name, &campaign.Description,
		pq.Array(&campaign.AttackGroups), &campaign.StartDate, &campaign.EndDate,
		&campaign.Status, &campaign.Severity, pq.Array(&campaign.Techniques),
		pq.Array(&campaign.Malware), pq.Array(&campaign.TargetSectors),
		pq.Array(&campaign.TargetRegions), pq.Array(&campaign.IndicatorIDs), &refs,
		&campaign.CreatedAt, &campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalRefs(refs, &campaign.References); err != nil {
		return nil, err
	}
	return &campaign, nil
}
