package models

import "time"

// CampaignStatus is the canonical lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignOngoing   CampaignStatus = "ongoing"
	CampaignCompleted CampaignStatus = "completed"
	CampaignPlanned   CampaignStatus = "planned"
	CampaignSuspended CampaignStatus = "suspended"
	CampaignUnknown   CampaignStatus = "unknown"
)

// Valid reports whether the status is one of the recognized values.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignOngoing, CampaignCompleted, CampaignPlanned, CampaignSuspended, CampaignUnknown:
		return true
	}
	return false
}

// Severity grades campaign impact.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the recognized values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Campaign is a named attack campaign. Attack groups, techniques, malware,
// sectors and regions are referenced by natural key; indicators are owned
// references by ID.
type Campaign struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	AttackGroups  []string       `json:"attack_groups"`
	StartDate     *time.Time     `json:"start_date,omitempty"`
	EndDate       *time.Time     `json:"end_date,omitempty"`
	Status        CampaignStatus `json:"status"`
	Severity      Severity       `json:"severity"`
	Techniques    []string       `json:"techniques"`
	Malware       []string       `json:"malware"`
	TargetSectors []string       `json:"target_sectors"`
	TargetRegions []string       `json:"target_regions"`
	IndicatorIDs  []string       `json:"indicator_ids"`
	References    []Reference    `json:"references"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Expanded cross-references, attached by the result projector.
	Groups             []AttackGroup `json:"attack_group_details,omitempty"`
	TechniquesUsed     []Technique   `json:"techniques_used,omitempty"`
	MalwareUsed        []Malware     `json:"malware_used,omitempty"`
	TargetedSectors    []Sector      `json:"targeted_sectors,omitempty"`
	TargetedRegions    []Region      `json:"targeted_regions,omitempty"`
	IndicatorDocuments []Indicator   `json:"indicators,omitempty"`
}

// TimelineEntry is the flattened shape served to timeline visualizations.
type TimelineEntry struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Start       *time.Time         `json:"start"`
	End         time.Time          `json:"end"`
	Status      CampaignStatus     `json:"status"`
	Severity    Severity           `json:"severity"`
	AttackGroup *TimelineGroup     `json:"attack_group"`
	Regions     []TimelineRegion   `json:"regions"`
}

// TimelineGroup is the abbreviated group embedded in a timeline entry.
type TimelineGroup struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

// TimelineRegion is the abbreviated region embedded in a timeline entry.
type TimelineRegion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
