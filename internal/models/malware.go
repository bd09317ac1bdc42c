package models

import "time"

// Malware is a tracked malware family. Associated groups are referenced by
// name, techniques by MITRE identifier.
type Malware struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Aliases          []string    `json:"aliases"`
	Type             string      `json:"type,omitempty"`
	Description      string      `json:"description"`
	AssociatedGroups []string    `json:"associated_groups"`
	Techniques       []string    `json:"techniques"`
	TargetPlatforms  []string    `json:"target_platforms"`
	Capabilities     []string    `json:"capabilities"`
	ThreatLevel      int         `json:"threat_level"`
	References       []Reference `json:"references"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
