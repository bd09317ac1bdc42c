package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// attackGroupFilters is the allow-list of list-endpoint filter parameters for
// attack groups.
var attackGroupFilters = filterSet{
	"name":              {column: "name", kind: matchSubstring},
	"aliases":           {column: "aliases", kind: matchSubstringArray},
	"country_of_origin": {column: "country_of_origin", kind: matchExact},
	"motivation":        {column: "motivations", kind: matchContains},
	"sector":            {column: "target_sectors", kind: matchContains},
	"region":            {column: "target_regions", kind: matchContains},
	"sectors":           {column: "target_sectors", kind: matchOverlap},
	"regions":           {column: "target_regions", kind: matchOverlap},
	"first_seen":        {column: "first_seen", kind: matchDateFrom},
	"last_seen":         {column: "last_seen", kind: matchDateTo},
}

const attackGroupColumns = `id, name, aliases, country_of_origin, description,
	first_seen, last_seen, motivations, target_sectors, target_regions,
	sophistication_level, threat_level, related_groups, refs, created_at, updated_at`

// AttackGroupRepository handles attack group persistence.
type AttackGroupRepository struct {
	db *sql.DB
}

// NewAttackGroupRepository creates a new attack group repository.
func NewAttackGroupRepository(db *sql.DB) *AttackGroupRepository {
	return &AttackGroupRepository{db: db}
}

// Create stores a new attack group and returns it with generated fields set.
func (r *AttackGroupRepository) Create(ctx context.Context, group *models.AttackGroup) (*models.AttackGroup, error) {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	refs, err := marshalRefs(group.References)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO attack_groups (id, name, aliases, country_of_origin, description,
			first_seen, last_seen, motivations, target_sectors, target_regions,
			sophistication_level, threat_level, related_groups, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		group.ID, group.Name, pq.Array(group.Aliases), group.CountryOfOrigin,
		group.Description, group.FirstSeen, group.LastSeen,
		pq.Array(group.Motivations), pq.Array(group.TargetSectors),
		pq.Array(group.TargetRegions), group.SophisticationLevel,
		group.ThreatLevel, pq.Array(group.RelatedGroups), refs,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create attack group: %w", err)
	}
	return group, nil
}

// GetByID retrieves an attack group by ID with its cross-references expanded.
func (r *AttackGroupRepository) GetByID(ctx context.Context, id string) (*models.AttackGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM attack_groups WHERE id = $1", attackGroupColumns)
	group, err := scanAttackGroup(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attack group: %w", err)
	}
	if err := r.expand(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// GetByName retrieves an attack group by its unique name.
func (r *AttackGroupRepository) GetByName(ctx context.Context, name string) (*models.AttackGroup, error) {
	query := fmt.Sprintf("SELECT %s FROM attack_groups WHERE name = $1", attackGroupColumns)
	group, err := scanAttackGroup(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attack group by name: %w", err)
	}
	return group, nil
}

// Update replaces an attack group's mutable fields.
func (r *AttackGroupRepository) Update(ctx context.Context, group *models.AttackGroup) (*models.AttackGroup, error) {
	refs, err := marshalRefs(group.References)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE attack_groups
		SET name = $2, aliases = $3, country_of_origin = $4, description = $5,
			first_seen = $6, last_seen = $7, motivations = $8, target_sectors = $9,
			target_regions = $10, sophistication_level = $11, threat_level = $12,
			related_groups = $13, refs = $14, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		group.ID, group.Name, pq.Array(group.Aliases), group.CountryOfOrigin,
		group.Description, group.FirstSeen, group.LastSeen,
		pq.Array(group.Motivations), pq.Array(group.TargetSectors),
		pq.Array(group.TargetRegions), group.SophisticationLevel,
		group.ThreatLevel, pq.Array(group.RelatedGroups), refs,
	).Scan(&group.CreatedAt, &group.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update attack group: %w", err)
	}
	return group, nil
}

// Delete removes an attack group by ID.
func (r *AttackGroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM attack_groups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete attack group: %w", err)
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

// List returns a page of attack groups matching the recognized filters, plus
// the total match count.
func (r *AttackGroupRepository) List(ctx context.Context, q models.ListQuery) ([]models.AttackGroup, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := attackGroupFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of attack groups matching a structured search request.
// Keywords match name, description and aliases; facet lists narrow by country,
// targeted sector/region and, via campaign and malware associations, by
// technique and malware family.
func (r *AttackGroupRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.AttackGroup, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"name", "description", "array_to_string(aliases, ' ')"})
	applyFacetAny(b, "country_of_origin", req.Countries)
	applyFacetOverlap(b, "target_sectors", req.Sectors)
	applyFacetOverlap(b, "target_regions", req.Regions)
	if len(req.Techniques) > 0 {
		b.where(fmt.Sprintf(
			"EXISTS (SELECT 1 FROM campaigns c WHERE attack_groups.name = ANY(c.attack_groups) AND c.techniques && %s)",
			b.bind(pq.Array(req.Techniques))))
	}
	if len(req.Malware) > 0 {
		b.where(fmt.Sprintf(
			"EXISTS (SELECT 1 FROM malware m WHERE attack_groups.name = ANY(m.associated_groups) AND m.name = ANY(%s))",
			b.bind(pq.Array(req.Malware))))
	}
	applyTimeframe(b, req.Timeframe, "first_seen", "last_seen")

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *AttackGroupRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.AttackGroup, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attack_groups %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attack groups: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM attack_groups %s ORDER BY name ASC, id ASC LIMIT %s OFFSET %s`,
		attackGroupColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attack groups: %w", err)
	}
	defer rows.Close()

	groups := []models.AttackGroup{}
	for rows.Next() {
		group, err := scanAttackGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attack group: %w", err)
		}
		groups = append(groups, *group)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read attack groups: %w", err)
	}
	return groups, total, nil
}

// Upsert inserts or refreshes an attack group keyed by its unique name. Used
// by the MITRE import; manual edits to description and refs survive only when
// the incoming record carries newer data.
func (r *AttackGroupRepository) Upsert(ctx context.Context, group *models.AttackGroup) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	refs, err := marshalRefs(group.References)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attack_groups (id, name, aliases, country_of_origin, description,
			first_seen, last_seen, motivations, target_sectors, target_regions,
			sophistication_level, threat_level, related_groups, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (name) DO UPDATE SET
			aliases = EXCLUDED.aliases,
			description = EXCLUDED.description,
			sophistication_level = EXCLUDED.sophistication_level,
			refs = EXCLUDED.refs,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		group.ID, group.Name, pq.Array(group.Aliases), group.CountryOfOrigin,
		group.Description, group.FirstSeen, group.LastSeen,
		pq.Array(group.Motivations), pq.Array(group.TargetSectors),
		pq.Array(group.TargetRegions), group.SophisticationLevel,
		group.ThreatLevel, pq.Array(group.RelatedGroups), refs)
	if err != nil {
		return fmt.Errorf("failed to upsert attack group: %w", err)
	}
	return nil
}

// expand attaches the group's cross-referenced records. Dangling names are
// tolerated and simply produce no expansion entry.
func (r *AttackGroupRepository) expand(ctx context.Context, group *models.AttackGroup) error {
	malwareQuery := fmt.Sprintf("SELECT %s FROM malware WHERE $1 = ANY(associated_groups) ORDER BY name ASC", malwareColumns)
	rows, err := r.db.QueryContext(ctx, malwareQuery, group.Name)
	if err != nil {
		return fmt.Errorf("failed to load associated malware: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMalware(rows)
		if err != nil {
			return fmt.Errorf("failed to scan associated malware: %w", err)
		}
		group.AssociatedMalware = append(group.AssociatedMalware, *m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read associated malware: %w", err)
	}

	techQuery := fmt.Sprintf(`
		SELECT DISTINCT ON (t.mitre_id) %s FROM techniques t
		JOIN campaigns c ON t.mitre_id = ANY(c.techniques)
		WHERE $1 = ANY(c.attack_groups)
		ORDER BY t.mitre_id ASC`, prefixColumns("t", techniqueColumns))
	techRows, err := r.db.QueryContext(ctx, techQuery, group.Name)
	if err != nil {
		return fmt.Errorf("failed to load known techniques: %w", err)
	}
	defer techRows.Close()
	for techRows.Next() {
		t, err := scanTechnique(techRows)
		if err != nil {
			return fmt.Errorf("failed to scan known technique: %w", err)
		}
		group.KnownTechniques = append(group.KnownTechniques, *t)
	}
	if err := techRows.Err(); err != nil {
		return fmt.Errorf("failed to read known techniques: %w", err)
	}

	sectors, err := sectorsByName(ctx, r.db, group.TargetSectors)
	if err != nil {
		return err
	}
	group.TargetedSectors = sectors

	regions, err := regionsByName(ctx, r.db, group.TargetRegions)
	if err != nil {
		return err
	}
	group.TargetedRegions = regions
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttackGroup(row rowScanner) (*models.AttackGroup, error) {
	var group models.AttackGroup
	var refs []byte
	err := row.Scan(
		&group.ID, &group.Name, pq.Array(&group.Aliases), &group.CountryOfOrigin,
		&group.Description, &group.FirstSeen, &group.LastSeen,
		pq.Array(&group.Motivations), pq.Array(&group.TargetSectors),
		pq.Array(&group.TargetRegions), &group.SophisticationLevel,
		&group.ThreatLevel, pq.Array(&group.RelatedGroups), &refs,
		&group.CreatedAt, &group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalRefs(refs, &group.References); err != nil {
		return nil, err
	}
	return &group, nil
}
