package database

import (
	"encoding/json"
	"fmt"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// marshalRefs encodes references for a JSONB column. A nil slice is stored as
// an empty array so reads never produce null.
func marshalRefs(refs []models.Reference) ([]byte, error) {
	if refs == nil {
		refs = []models.Reference{}
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal references: %w", err)
	}
	return data, nil
}

// unmarshalRefs decodes a JSONB references column.
func unmarshalRefs(data []byte, refs *[]models.Reference) error {
	if len(data) == 0 {
		*refs = []models.Reference{}
		return nil
	}
	if err := json.Unmarshal(data, refs); err != nil {
		return fmt.Errorf("failed to unmarshal references: %w", err)
	}
	return nil
}
