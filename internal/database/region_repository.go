package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var regionFilters = filterSet{
	"name":         {column: "name", kind: matchSubstring},
	"country":      {column: "countries", kind: matchContains},
	"threat_level": {column: "threat_level", kind: matchExact},
}

const regionColumns = `id, name, description, countries, threat_level,
	active_threats, common_targets, recent_campaigns, created_at, updated_at`

// RegionRepository handles region persistence.
type RegionRepository struct {
	db *sql.DB
}

// NewRegionRepository creates a new region repository.
func NewRegionRepository(db *sql.DB) *RegionRepository {
	return &RegionRepository{db: db}
}

// Create stores a new region and returns it with generated fields set.
func (r *RegionRepository) Create(ctx context.Context, region *models.Region) (*models.Region, error) {
	if region.ID == "" {
		region.ID = uuid.New().String()
	}

	query := `
		INSERT INTO regions (id, name, description, countries, threat_level,
			active_threats, common_targets, recent_campaigns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		region.ID, region.Name, region.Description, pq.Array(region.Countries),
		region.ThreatLevel, pq.Array(region.ActiveThreats),
		pq.Array(region.CommonTargets), pq.Array(region.RecentCampaigns),
	).Scan(&region.CreatedAt, &region.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create region: %w", err)
	}
	return region, nil
}

// GetByID retrieves a region by ID with its active groups expanded.
func (r *RegionRepository) GetByID(ctx context.Context, id string) (*models.Region, error) {
	query := fmt.Sprintf("SELECT %s FROM regions WHERE id = $1", regionColumns)
	region, err := scanRegion(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	if err := r.expand(ctx, region); err != nil {
		return nil, err
	}
	return region, nil
}

// GetByName retrieves a region by its unique name.
func (r *RegionRepository) GetByName(ctx context.Context, name string) (*models.Region, error) {
	query := fmt.Sprintf("SELECT %s FROM regions WHERE name = $1", regionColumns)
	region, err := scanRegion(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region by name: %w", err)
	}
	return region, nil
}

// Update replaces a region's mutable fields.
func (r *RegionRepository) Update(ctx context.Context, region *models.Region) (*models.Region, error) {
	query := `
		UPDATE regions
		SET name = $2, description = $3, countries = $4, threat_level = $5,
			active_threats = $6, common_targets = $7, recent_campaigns = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		region.ID, region.Name, region.Description, pq.Array(region.Countries),
		region.ThreatLevel, pq.Array(region.ActiveThreats),
		pq.Array(region.CommonTargets), pq.Array(region.RecentCampaigns),
	).Scan(&region.CreatedAt, &region.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update region: %w", err)
	}
	return region, nil
}

// Delete removes a region by ID.
func (r *RegionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM regions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete region: %w", err)
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

// List returns a page of regions matching the recognized filters, plus the
// total match count.
func (r *RegionRepository) List(ctx context.Context, q models.ListQuery) ([]models.Region, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := regionFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of regions matching a structured search request.
func (r *RegionRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Region, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"name", "description", "array_to_string(countries, ' ')"})
	applyFacetOverlap(b, "countries", req.Countries)
	applyFacetOverlap(b, "active_threats", req.AttackGroups)
	applyFacetAny(b, "name", req.Regions)

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *RegionRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.Region, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM regions %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count regions: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM regions %s ORDER BY name ASC, id ASC LIMIT %s OFFSET %s`,
		regionColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	regions := []models.Region{}
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, *region)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read regions: %w", err)
	}
	return regions, total, nil
}

// Upsert inserts or refreshes a region keyed by its unique name.
func (r *RegionRepository) Upsert(ctx context.Context, region *models.Region) error {
	if region.ID == "" {
		region.ID = uuid.New().String()
	}

	query := `
		INSERT INTO regions (id, name, description, countries, threat_level,
			active_threats, common_targets, recent_campaigns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			countries = EXCLUDED.countries,
			threat_level = EXCLUDED.threat_level,
			active_threats = EXCLUDED.active_threats,
			common_targets = EXCLUDED.common_targets,
			recent_campaigns = EXCLUDED.recent_campaigns,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		region.ID, region.Name, region.Description, pq.Array(region.Countries),
		region.ThreatLevel, pq.Array(region.ActiveThreats),
		pq.Array(region.CommonTargets), pq.Array(region.RecentCampaigns))
	if err != nil {
		return fmt.Errorf("failed to upsert region: %w", err)
	}
	return nil
}

func (r *RegionRepository) expand(ctx context.Context, region *models.Region) error {
	groups, err := groupsByName(ctx, r.db, region.ActiveThreats)
	if err != nil {
		return err
	}
	region.ActiveGroups = groups
	return nil
}

func scanRegion(row rowScanner) (*models.Region, error) {
	var region models.Region
	err := row.Scan(
		&region.ID, &region.Name, &region.Description, pq.Array(&region.Countries),
		&region.ThreatLevel, pq.Array(&region.ActiveThreats),
		pq.Array(&region.CommonTargets), pq.Array(&region.RecentCampaigns),
		&region.CreatedAt, &region.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &region, nil
}
