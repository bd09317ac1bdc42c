package models

import "time"

// Timeframe bounds a search in time. Start constrains the record's start/first
// seen field, End constrains its end/last seen field; the two bounds are
// independent and apply to different columns.
type Timeframe struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// SearchRequest is the POST /search body shared by the catalog entities. Each
// endpoint consumes the subset of facets that applies to it; keywords match
// any of the entity's text fields, and a record matches if any keyword hits
// any field. Absent or empty lists contribute nothing, so the zero request
// matches every record.
type SearchRequest struct {
	Keywords     []string   `json:"keywords"`
	Countries    []string   `json:"countries"`
	AttackGroups []string   `json:"attack_groups"`
	Techniques   []string   `json:"techniques"`
	Sectors      []string   `json:"sectors"`
	Regions      []string   `json:"regions"`
	Malware      []string   `json:"malware"`
	Severity     []string   `json:"severity"`
	Status       []string   `json:"status"`
	Timeframe    *Timeframe `json:"timeframe,omitempty"`
}
