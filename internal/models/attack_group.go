package models

import "time"

// SophisticationLevel classifies the tradecraft maturity of a threat actor group.
type SophisticationLevel string

const (
	SophisticationLow     SophisticationLevel = "low"
	SophisticationMedium  SophisticationLevel = "medium"
	SophisticationHigh    SophisticationLevel = "high"
	SophisticationUnknown SophisticationLevel = "unknown"
)

// Valid reports whether the level is one of the recognized values.
func (s SophisticationLevel) Valid() bool {
	switch s {
	case SophisticationLow, SophisticationMedium, SophisticationHigh, SophisticationUnknown:
		return true
	}
	return false
}

// AttackGroup is a tracked threat actor group (APT). Identity is the unique name;
// cross-entity associations are free-text names, not foreign keys.
type AttackGroup struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Aliases             []string            `json:"aliases"`
	CountryOfOrigin     string              `json:"country_of_origin,omitempty"`
	Description         string              `json:"description"`
	FirstSeen           *time.Time          `json:"first_seen,omitempty"`
	LastSeen            *time.Time          `json:"last_seen,omitempty"`
	Motivations         []string            `json:"motivations"`
	TargetSectors       []string            `json:"target_sectors"`
	TargetRegions       []string            `json:"target_regions"`
	SophisticationLevel SophisticationLevel `json:"sophistication_level"`
	ThreatLevel         int                 `json:"threat_level"`
	RelatedGroups       []string            `json:"related_groups"`
	References          []Reference         `json:"references"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`

	// Expanded cross-references, attached by the result projector.
	AssociatedMalware []Malware   `json:"associated_malware,omitempty"`
	KnownTechniques   []Technique `json:"known_techniques,omitempty"`
	TargetedSectors   []Sector    `json:"targeted_sectors,omitempty"`
	TargetedRegions   []Region    `json:"targeted_regions,omitempty"`
}
