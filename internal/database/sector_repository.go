package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var sectorFilters = filterSet{
	"name": {column: "name", kind: matchSubstring},
	"code": {column: "code", kind: matchExact},
}

const sectorColumns = `id, name, code, description, sub_sectors, threat_level,
	created_at, updated_at`

// SectorRepository handles sector persistence.
type SectorRepository struct {
	db *sql.DB
}

// NewSectorRepository creates a new sector repository.
func NewSectorRepository(db *sql.DB) *SectorRepository {
	return &SectorRepository{db: db}
}

// Create stores a new sector and returns it with generated fields set.
func (r *SectorRepository) Create(ctx context.Context, sector *models.Sector) (*models.Sector, error) {
	if sector.ID == "" {
		sector.ID = uuid.New().String()
	}

	query := `
		INSERT INTO sectors (id, name, code, description, sub_sectors, threat_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		sector.ID, sector.Name, sector.Code, sector.Description,
		pq.Array(sector.SubSectors), sector.ThreatLevel,
	).Scan(&sector.CreatedAt, &sector.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create sector: %w", err)
	}
	return sector, nil
}

// GetByID retrieves a sector by ID with its threat groups expanded.
func (r *SectorRepository) GetByID(ctx context.Context, id string) (*models.Sector, error) {
	query := fmt.Sprintf("SELECT %s FROM sectors WHERE id = $1", sectorColumns)
	sector, err := scanSector(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}
	if err := r.expand(ctx, sector); err != nil {
		return nil, err
	}
	return sector, nil
}

// expand attaches the groups targeting this sector, derived from their target
// sector lists.
func (r *SectorRepository) expand(ctx context.Context, sector *models.Sector) error {
	query := fmt.Sprintf("SELECT %s FROM attack_groups WHERE $1 = ANY(target_sectors) ORDER BY name ASC", attackGroupColumns)
	rows, err := r.db.QueryContext(ctx, query, sector.Name)
	if err != nil {
		return fmt.Errorf("failed to load threat groups: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		g, err := scanAttackGroup(rows)
		if err != nil {
			return fmt.Errorf("failed to scan threat group: %w", err)
		}
		sector.ThreatGroups = append(sector.ThreatGroups, *g)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read threat groups: %w", err)
	}
	return nil
}

// GetByName retrieves a sector by its unique name.
func (r *SectorRepository) GetByName(ctx context.Context, name string) (*models.Sector, error) {
	query := fmt.Sprintf("SELECT %s FROM sectors WHERE name = $1", sectorColumns)
	sector, err := scanSector(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sector by name: %w", err)
	}
	return sector, nil
}

// Update replaces a sector's mutable fields.
func (r *SectorRepository) Update(ctx context.Context, sector *models.Sector) (*models.Sector, error) {
	query := `
		UPDATE sectors
		SET name = $2, code = $3, description = $4, sub_sectors = $5,
			threat_level = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		sector.ID, sector.Name, sector.Code, sector.Description,
		pq.Array(sector.SubSectors), sector.ThreatLevel,
	).Scan(&sector.CreatedAt, &sector.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update sector: %w", err)
	}
	return sector, nil
}

// Delete removes a sector by ID.
func (r *SectorRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sectors WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete sector: %w", err)
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

// List returns a page of sectors matching the recognized filters, plus the
// total match count.
func (r *SectorRepository) List(ctx context.Context, q models.ListQuery) ([]models.Sector, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := sectorFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of sectors matching a structured search request.
func (r *SectorRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Sector, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"name", "description", "array_to_string(sub_sectors, ' ')"})
	applyFacetAny(b, "name", req.Sectors)

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *SectorRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.Sector, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sectors %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sectors: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM sectors %s ORDER BY name ASC, id ASC LIMIT %s OFFSET %s`,
		sectorColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	sectors := []models.Sector{}
	for rows.Next() {
		sector, err := scanSector(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, *sector)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read sectors: %w", err)
	}
	return sectors, total, nil
}

// Upsert inserts or refreshes a sector keyed by its unique name.
func (r *SectorRepository) Upsert(ctx context.Context, sector *models.Sector) error {
	if sector.ID == "" {
		sector.ID = uuid.New().String()
	}

	query := `
		INSERT INTO sectors (id, name, code, description, sub_sectors, threat_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			code = EXCLUDED.code,
			description = EXCLUDED.description,
			sub_sectors = EXCLUDED.sub_sectors,
			threat_level = EXCLUDED.threat_level,
			updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		sector.ID, sector.Name, sector.Code, sector.Description,
		pq.Array(sector.SubSectors), sector.ThreatLevel)
	if err != nil {
		return fmt.Errorf("failed to upsert sector: %w", err)
	}
	return nil
}

func scanSector(row rowScanner) (*models.Sector, error) {
	var sector models.Sector
	err := row.Scan(
		&sector.ID, &sector.Name, &sector.Code, &sector.Description,
		pq.Array(&sector.SubSectors), &sector.ThreatLevel,
		&sector.CreatedAt, &sector.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sector, nil
}
