package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var techniqueFilters = filterSet{
	"mitre_id": {column: "mitre_id", kind: matchExact},
	"name":     {column: "name", kind: matchSubstring},
	"tactic":   {column: "tactics", kind: matchContains},
	"platform": {column: "platforms", kind: matchContains},
	"severity": {column: "severity", kind: matchExact},
}

const techniqueColumns = `id, mitre_id, name, description, tactics, platforms,
	data_sources, mitigations, detection, severity, refs, created_at, updated_at`

// TechniqueRepository handles technique persistence.
type TechniqueRepository struct {
	db *sql.DB
}

// NewTechniqueRepository creates a new technique repository.
func NewTechniqueRepository(db *sql.DB) *TechniqueRepository {
	return &TechniqueRepository{db: db}
}

// Create stores a new technique and returns it with generated fields set.
func (r *TechniqueRepository) Create(ctx context.Context, technique *models.Technique) (*models.Technique, error) {
	if technique.ID == "" {
		technique.ID = uuid.New().String()
	}
	refs, err := marshalRefs(technique.References)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO techniques (id, mitre_id, name, description, tactics,
			platforms, data_sources, mitigations, detection, severity, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		technique.ID, technique.MitreID, technique.Name, technique.Description,
		pq.Array(technique.Tactics), pq.Array(technique.Platforms),
		pq.Array(technique.DataSources), pq.Array(technique.Mitigations),
		technique.Detection, technique.Severity, refs,
	).Scan(&technique.CreatedAt, &technique.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create technique: %w", err)
	}
	return technique, nil
}

// GetByID retrieves a technique by ID.
func (r *TechniqueRepository) GetByID(ctx context.Context, id string) (*models.Technique, error) {
	query := fmt.Sprintf("SELECT %s FROM techniques WHERE id = $1", techniqueColumns)
	technique, err := scanTechnique(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technique: %w", err)
	}
	return technique, nil
}

// GetByMitreID retrieves a technique by its MITRE ATT&CK identifier.
func (r *TechniqueRepository) GetByMitreID(ctx context.Context, mitreID string) (*models.Technique, error) {
	query := fmt.Sprintf("SELECT %s FROM techniques WHERE mitre_id = $1", techniqueColumns)
	technique, err := scanTechnique(r.db.QueryRowContext(ctx, query, mitreID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get technique by MITRE id: %w", err)
	}
	return technique, nil
}

// Update replaces a technique's mutable fields.
func (r *TechniqueRepository) Update(ctx context.Context, technique *models.Technique) (*models.Technique, error) {
	refs, err := marshalRefs(technique.References)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE techniques
		SET mitre_id = $2, name = $3, description = $4, tactics = $5,
			platforms = $6, data_sources = $7, mitigations = $8, detection = $9,
			severity = $10, refs = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		technique.ID, technique.MitreID, technique.Name, technique.Description,
		pq.Array(technique.Tactics), pq.Array(technique.Platforms),
		pq.Array(technique.DataSources), pq.Array(technique.Mitigations),
		technique.Detection, technique.Severity, refs,
	).Scan(&technique.CreatedAt, &technique.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update technique: %w", err)
	}
	return technique, nil
}

// Delete removes a technique by ID.
func (r *TechniqueRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM techniques WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete technique: %w", err)
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

// List returns a page of techniques matching the recognized filters, plus the
// total match count.
func (r *TechniqueRepository) List(ctx context.Context, q models.ListQuery) ([]models.Technique, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := techniqueFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of techniques matching a structured search request.
// Technique facets match both the MITRE identifier and the name.
func (r *TechniqueRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Technique, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"mitre_id", "name", "description"})
	if len(req.Techniques) > 0 {
		placeholder := b.bind(pq.Array(req.Techniques))
		b.where(fmt.Sprintf("(mitre_id = ANY(%s) OR name = ANY(%s))", placeholder, placeholder))
	}
	applyFacetAny(b, "severity", req.Severity)

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *TechniqueRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.Technique, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM techniques %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count techniques: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM techniques %s ORDER BY mitre_id ASC, id ASC LIMIT %s OFFSET %s`,
		techniqueColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list techniques: %w", err)
	}
	defer rows.Close()

	techniques := []models.Technique{}
	for rows.Next() {
		technique, err := scanTechnique(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan technique: %w", err)
		}
		techniques = append(techniques, *technique)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read techniques: %w", err)
	}
	return techniques, total, nil
}

// Upsert inserts or refreshes a technique keyed by its MITRE identifier.
func (r *TechniqueRepository) Upsert(ctx context.Context, technique *models.Technique) error {
	if technique.ID == "" {
		technique.ID = uuid.New().String()
	}
	refs, err := marshalRefs(technique.References)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO techniques (id, mitre_id, name, description, tactics,
			platforms, data_sources, mitigations, detection, severity, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (mitre_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			tactics = EXCLUDED.tactics,
			platforms = EXCLUDED.platforms,
			data_sources = EXCLUDED.data_sources,
			mitigations = EXCLUDED.mitigations,
			detection = EXCLUDED.detection,
			refs = EXCLUDED.refs,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		technique.ID, technique.MitreID, technique.Name, technique.Description,
		pq.Array(technique.Tactics), pq.Array(technique.Platforms),
		pq.Array(technique.DataSources), pq.Array(technique.Mitigations),
		technique.Detection, technique.Severity, refs)
	if err != nil {
		return fmt.Errorf("failed to upsert technique: %w", err)
	}
	return nil
}

func scanTechnique(row rowScanner) (*models.Technique, error) {
	var technique models.Technique
	var refs []byte
	err := row.Scan(
		&technique.ID, &technique.MitreID, &technique.Name, &technique.Description,
		pq.Array(&technique.Tactics), pq.Array(&technique.Platforms),
		pq.Array(&technique.DataSources), pq.Array(&technique.Mitigations),
		&technique.Detection, &technique.Severity, &refs,
		&technique.CreatedAt, &technique.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalRefs(refs, &technique.References); err != nil {
		return nil, err
	}
	return &technique, nil
}
