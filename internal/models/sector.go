package models

import "time"

// Sector is an industry sector targeted by threat activity.
type Sector struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	SubSectors  []string  `json:"sub_sectors"`
	ThreatLevel int       `json:"threat_level"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Expanded cross-references, attached by the result projector. Groups
	// targeting this sector, derived from their target sector lists.
	ThreatGroups []AttackGroup `json:"threat_groups,omitempty"`
}
