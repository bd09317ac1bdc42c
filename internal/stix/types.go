// Package stix extracts catalog records from MITRE ATT&CK STIX 2.1 bundles.
package stix

import "time"

// Bundle is the top-level STIX document published by MITRE.
type Bundle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Objects []Object `json:"objects"`
}

// Object is the subset of STIX object fields the importer reads. One struct
// covers intrusion-set, attack-pattern, malware and relationship objects;
// fields irrelevant to a given type are simply zero.
type Object struct {
	Type        string     `json:"type"`
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Aliases     []string   `json:"aliases,omitempty"`
	FirstSeen   *time.Time `json:"first_seen,omitempty"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`

	PrimaryMotivation  string               `json:"primary_motivation,omitempty"`
	ExternalReferences []ExternalReference  `json:"external_references,omitempty"`
	KillChainPhases    []KillChainPhase     `json:"kill_chain_phases,omitempty"`

	XMitrePlatforms      []string `json:"x_mitre_platforms,omitempty"`
	XMitreDataSources    []string `json:"x_mitre_data_sources,omitempty"`
	XMitreDetection      string   `json:"x_mitre_detection,omitempty"`
	XMitreAliases        []string `json:"x_mitre_aliases,omitempty"`
	XMitreMalwareTypes   []string `json:"x_mitre_malware_types,omitempty"`
	XMitreSophistication string   `json:"x_mitre_sophistication,omitempty"`
	XMitreCountry        string   `json:"x_mitre_country,omitempty"`
	XMitreSectors        []string `json:"x_mitre_sectors,omitempty"`
	XMitreDeprecated     bool     `json:"x_mitre_deprecated,omitempty"`
	Revoked              bool     `json:"revoked,omitempty"`

	RelationshipType string `json:"relationship_type,omitempty"`
	SourceRef        string `json:"source_ref,omitempty"`
	TargetRef        string `json:"target_ref,omitempty"`
}

// ExternalReference is a STIX external citation. The mitre-attack source
// carries the ATT&CK identifier.
type ExternalReference struct {
	SourceName  string `json:"source_name"`
	ExternalID  string `json:"external_id,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// KillChainPhase names the tactic an attack pattern belongs to.
type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// MitreID returns the ATT&CK identifier from the object's external references,
// or "" when none is present.
func (o *Object) MitreID() string {
	for _, ref := range o.ExternalReferences {
		if ref.SourceName == "mitre-attack" {
			return ref.ExternalID
		}
	}
	return ""
}
