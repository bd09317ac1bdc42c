package models

import "time"

// ThreatLevel grades the overall threat posture of a region.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// Valid reports whether the level is one of the recognized values.
func (t ThreatLevel) Valid() bool {
	switch t {
	case ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical:
		return true
	}
	return false
}

// Region is a geographic region. Active threats and recent campaigns are
// back-references by name.
type Region struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description,omitempty"`
	Countries       []string    `json:"countries"`
	ThreatLevel     ThreatLevel `json:"threat_level"`
	ActiveThreats   []string    `json:"active_threats"`
	CommonTargets   []string    `json:"common_targets"`
	RecentCampaigns []string    `json:"recent_campaigns"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	// Expanded cross-references, attached by the result projector.
	ActiveGroups []AttackGroup `json:"active_groups,omitempty"`
}
