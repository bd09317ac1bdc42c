package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var malwareFilters = filterSet{
	"name":      {column: "name", kind: matchSubstring},
	"alias":     {column: "aliases", kind: matchSubstringArray},
	"type":      {column: "type", kind: matchExact},
	"group":     {column: "associated_groups", kind: matchContains},
	"technique": {column: "techniques", kind: matchContains},
	"platform":  {column: "target_platforms", kind: matchContains},
}

const malwareColumns = `id, name, aliases, type, description, associated_groups,
	techniques, target_platforms, capabilities, threat_level, refs, created_at, updated_at`

// MalwareRepository handles malware family persistence.
type MalwareRepository struct {
	db *sql.DB
}

// NewMalwareRepository creates a new malware repository.
func NewMalwareRepository(db *sql.DB) *MalwareRepository {
	return &MalwareRepository{db: db}
}

// Create stores a new malware family and returns it with generated fields set.
func (r *MalwareRepository) Create(ctx context.Context, malware *models.Malware) (*models.Malware, error) {
	if malware.ID == "" {
		malware.ID = uuid.New().String()
	}
	refs, err := marshalRefs(malware.References)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO malware (id, name, aliases, type, description,
			associated_groups, techniques, target_platforms, capabilities,
			threat_level, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		malware.ID, malware.Name, pq.Array(malware.Aliases), malware.Type,
		malware.Description, pq.Array(malware.AssociatedGroups),
		pq.Array(malware.Techniques), pq.Array(malware.TargetPlatforms),
		pq.Array(malware.Capabilities), malware.ThreatLevel, refs,
	).Scan(&malware.CreatedAt, &malware.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create malware: %w", err)
	}
	return malware, nil
}

// GetByID retrieves a malware family by ID.
func (r *MalwareRepository) GetByID(ctx context.Context, id string) (*models.Malware, error) {
	query := fmt.Sprintf("SELECT %s FROM malware WHERE id = $1", malwareColumns)
	malware, err := scanMalware(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get malware: %w", err)
	}
	return malware, nil
}

// GetByName retrieves a malware family by its unique name.
func (r *MalwareRepository) GetByName(ctx context.Context, name string) (*models.Malware, error) {
	query := fmt.Sprintf("SELECT %s FROM malware WHERE name = $1", malwareColumns)
	malware, err := scanMalware(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get malware by name: %w", err)
	}
	return malware, nil
}

// Update replaces a malware family's mutable fields.
func (r *MalwareRepository) Update(ctx context.Context, malware *models.Malware) (*models.Malware, error) {
	refs, err := marshalRefs(malware.References)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE malware
		SET name = $2, aliases = $3, type = $4, description = $5,
			associated_groups = $6, techniques = $7, target_platforms = $8,
			capabilities = $9, threat_level = $10, refs = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		malware.ID, malware.Name, pq.Array(malware.Aliases), malware.Type,
		malware.Description, pq.Array(malware.AssociatedGroups),
		pq.Array(malware.Techniques), pq.Array(malware.TargetPlatforms),
		pq.Array(malware.Capabilities), malware.ThreatLevel, refs,
	).Scan(&malware.CreatedAt, &malware.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update malware: %w", err)
	}
	return malware, nil
}

// Delete removes a malware family by ID.
func (r *MalwareRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM malware WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete malware: %w", err)
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

// List returns a page of malware families matching the recognized filters,
// plus the total match count.
func (r *MalwareRepository) List(ctx context.Context, q models.ListQuery) ([]models.Malware, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := malwareFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of malware families matching a structured search
// request.
func (r *MalwareRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Malware, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"name", "description", "array_to_string(aliases, ' ')"})
	applyFacetOverlap(b, "associated_groups", req.AttackGroups)
	applyFacetOverlap(b, "techniques", req.Techniques)
	applyFacetAny(b, "name", req.Malware)

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *MalwareRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.Malware, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM malware %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count malware: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM malware %s ORDER BY name ASC, id ASC LIMIT %s OFFSET %s`,
		malwareColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list malware: %w", err)
	}
	defer rows.Close()

	families := []models.Malware{}
	for rows.Next() {
		malware, err := scanMalware(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan malware: %w", err)
		}
		families = append(families, *malware)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read malware: %w", err)
	}
	return families, total, nil
}

// Upsert inserts or refreshes a malware family keyed by its unique name.
func (r *MalwareRepository) Upsert(ctx context.Context, malware *models.Malware) error {
	if malware.ID == "" {
		malware.ID = uuid.New().String()
	}
	refs, err := marshalRefs(malware.References)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO malware (id, name, aliases, type, description,
			associated_groups, techniques, target_platforms, capabilities,
			threat_level, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name) DO UPDATE SET
			aliases = EXCLUDED.aliases,
			type = EXCLUDED.type,
			description = EXCLUDED.description,
			techniques = EXCLUDED.techniques,
			target_platforms = EXCLUDED.target_platforms,
			refs = EXCLUDED.refs,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		malware.ID, malware.Name, pq.Array(malware.Aliases), malware.Type,
		malware.Description, pq.Array(malware.AssociatedGroups),
		pq.Array(malware.Techniques), pq.Array(malware.TargetPlatforms),
		pq.Array(malware.Capabilities), malware.ThreatLevel, refs)
	if err != nil {
		return fmt.Errorf("failed to upsert malware: %w", err)
	}
	return nil
}

func scanMalware(row rowScanner) (*models.Malware, error) {
	var malware models.Malware
	var refs []byte
	err := row.Scan(
		&malware.ID, &malware.Name, pq.Array(&malware.Aliases), &malware.Type,
		&malware.Description, pq.Array(&malware.AssociatedGroups),
		pq.Array(&malware.Techniques), pq.Array(&malware.TargetPlatforms),
		pq.Array(&malware.Capabilities), &malware.ThreatLevel, &refs,
		&malware.CreatedAt, &malware.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalRefs(refs, &malware.References); err != nil {
		return nil, err
	}
	return &malware, nil
}
