package models

import "time"

// Technique is an adversary technique keyed by its MITRE ATT&CK identifier
// (e.g. "T1566.001"). The identifier is owned by the external taxonomy.
type Technique struct {
	ID          string      `json:"id"`
	MitreID     string      `json:"mitre_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Tactics     []string    `json:"tactics"`
	Platforms   []string    `json:"platforms"`
	DataSources []string    `json:"data_sources"`
	Mitigations []string    `json:"mitigations"`
	Detection   string      `json:"detection,omitempty"`
	Severity    Severity    `json:"severity"`
	References  []Reference `json:"references"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
