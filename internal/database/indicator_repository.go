package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

var indicatorFilters = filterSet{
	"type":       {column: "type", kind: matchExact},
	"status":     {column: "status", kind: matchExact},
	"confidence": {column: "confidence", kind: matchExact},
	"value":      {column: "value", kind: matchSubstring},
	"campaign":   {column: "campaigns", kind: matchContains},
	"malware":    {column: "malware", kind: matchContains},
	"first_seen": {column: "first_seen", kind: matchDateFrom},
	"last_seen":  {column: "last_seen", kind: matchDateTo},
}

const indicatorColumns = `id, type, value, description, first_seen, last_seen,
	campaigns, malware, confidence, status, refs, created_at, updated_at`

// IndicatorRepository handles indicator persistence.
type IndicatorRepository struct {
	db *sql.DB
}

// NewIndicatorRepository creates a new indicator repository.
func NewIndicatorRepository(db *sql.DB) *IndicatorRepository {
	return &IndicatorRepository{db: db}
}

// Create stores a new indicator and returns it with generated fields set.
func (r *IndicatorRepository) Create(ctx context.Context, indicator *models.Indicator) (*models.Indicator, error) {
	if indicator.ID == "" {
		indicator.ID = uuid.New().String()
	}
	refs, err := marshalRefs(indicator.References)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO indicators (id, type, value, description, first_seen,
			last_seen, campaigns, malware, confidence, status, refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		indicator.ID, indicator.Type, indicator.Value, indicator.Description,
		indicator.FirstSeen, indicator.LastSeen, pq.Array(indicator.Campaigns),
		pq.Array(indicator.Malware), indicator.Confidence, indicator.Status, refs,
	).Scan(&indicator.CreatedAt, &indicator.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create indicator: %w", err)
	}
	return indicator, nil
}

// GetByID retrieves an indicator by ID with its cross-references expanded.
func (r *IndicatorRepository) GetByID(ctx context.Context, id string) (*models.Indicator, error) {
	query := fmt.Sprintf("SELECT %s FROM indicators WHERE id = $1", indicatorColumns)
	indicator, err := scanIndicator(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator: %w", err)
	}
	if err := r.expand(ctx, indicator); err != nil {
		return nil, err
	}
	return indicator, nil
}

// GetByValue retrieves an indicator by its (type, value) identity.
func (r *IndicatorRepository) GetByValue(ctx context.Context, indicatorType models.IndicatorType, value string) (*models.Indicator, error) {
	query := fmt.Sprintf("SELECT %s FROM indicators WHERE type = $1 AND value = $2", indicatorColumns)
	indicator, err := scanIndicator(r.db.QueryRowContext(ctx, query, indicatorType, value))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get indicator by value: %w", err)
	}
	return indicator, nil
}

// Update replaces an indicator's mutable fields.
func (r *IndicatorRepository) Update(ctx context.Context, indicator *models.Indicator) (*models.Indicator, error) {
	refs, err := marshalRefs(indicator.References)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE indicators
		SET type = $2, value = $3, description = $4, first_seen = $5,
			last_seen = $6, campaigns = $7, malware = $8, confidence = $9,
			status = $10, refs = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		indicator.ID, indicator.Type, indicator.Value, indicator.Description,
		indicator.FirstSeen, indicator.LastSeen, pq.Array(indicator.Campaigns),
		pq.Array(indicator.Malware), indicator.Confidence, indicator.Status, refs,
	).Scan(&indicator.CreatedAt, &indicator.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update indicator: %w", err)
	}
	return indicator, nil
}

// Delete removes an indicator by ID.
func (r *IndicatorRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM indicators WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete indicator: %w", err)
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

// List returns a page of indicators matching the recognized filters, plus the
// total match count. Indicators sort newest first.
func (r *IndicatorRepository) List(ctx context.Context, q models.ListQuery) ([]models.Indicator, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	if err := indicatorFilters.apply(b, q.Filters); err != nil {
		return nil, 0, err
	}
	return r.page(ctx, b, q.Page, q.Limit)
}

// Search returns a page of indicators matching a structured search request.
func (r *IndicatorRepository) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Indicator, int, error) {
	q.Normalize()

	b := &whereBuilder{}
	applyKeywords(b, req.Keywords, []string{"value", "description"})
	applyFacetOverlap(b, "malware", req.Malware)
	applyFacetAny(b, "status", req.Status)
	applyTimeframe(b, req.Timeframe, "first_seen", "last_seen")

	return r.page(ctx, b, q.Page, q.Limit)
}

func (r *IndicatorRepository) page(ctx context.Context, b *whereBuilder, page, limit int) ([]models.Indicator, int, error) {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM indicators %s", b.clause())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count indicators: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM indicators %s ORDER BY created_at DESC, id ASC LIMIT %s OFFSET %s`,
		indicatorColumns, b.clause(), b.bind(limit), b.bind((page-1)*limit))

	rows, err := r.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list indicators: %w", err)
	}
	defer rows.Close()

	indicators := []models.Indicator{}
	for rows.Next() {
		indicator, err := scanIndicator(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, *indicator)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read indicators: %w", err)
	}
	return indicators, total, nil
}

func (r *IndicatorRepository) expand(ctx context.Context, indicator *models.Indicator) error {
	campaigns, err := campaignsByName(ctx, r.db, indicator.Campaigns)
	if err != nil {
		return err
	}
	indicator.CampaignDocuments = campaigns

	families, err := malwareByName(ctx, r.db, indicator.Malware)
	if err != nil {
		return err
	}
	indicator.MalwareDocuments = families
	return nil
}

func scanIndicator(row rowScanner) (*models.Indicator, error) {
	var indicator models.Indicator
	var refs []byte
	err := row.Scan(
		&indicator.ID, &indicator.Type, &indicator.Value, &indicator.Description,
		&indicator.FirstSeen, &indicator.LastSeen, pq.Array(&indicator.Campaigns),
		pq.Array(&indicator.Malware), &indicator.Confidence, &indicator.Status,
		&refs, &indicator.CreatedAt, &indicator.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalRefs(refs, &indicator.References); err != nil {
		return nil, err
	}
	return &indicator, nil
}
