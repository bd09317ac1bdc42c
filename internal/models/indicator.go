package models

import "time"

// IndicatorType classifies an observable artifact.
type IndicatorType string

const (
	IndicatorIP       IndicatorType = "ip"
	IndicatorDomain   IndicatorType = "domain"
	IndicatorHash     IndicatorType = "hash"
	IndicatorURL      IndicatorType = "url"
	IndicatorEmail    IndicatorType = "email"
	IndicatorFilePath IndicatorType = "filepath"
	IndicatorRegistry IndicatorType = "registry"
	IndicatorOther    IndicatorType = "other"
)

// Valid reports whether the type is one of the recognized values.
func (t IndicatorType) Valid() bool {
	switch t {
	case IndicatorIP, IndicatorDomain, IndicatorHash, IndicatorURL,
		IndicatorEmail, IndicatorFilePath, IndicatorRegistry, IndicatorOther:
		return true
	}
	return false
}

// Confidence grades how reliable an indicator is.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether the confidence is one of the recognized values.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// IndicatorStatus marks whether an indicator is still actionable.
type IndicatorStatus string

const (
	IndicatorActive        IndicatorStatus = "active"
	IndicatorInactive      IndicatorStatus = "inactive"
	IndicatorFalsePositive IndicatorStatus = "false_positive"
)

// Valid reports whether the status is one of the recognized values.
func (s IndicatorStatus) Valid() bool {
	switch s {
	case IndicatorActive, IndicatorInactive, IndicatorFalsePositive:
		return true
	}
	return false
}

// Indicator is an indicator of compromise. Identity is the (type, value) pair;
// campaign and malware associations are free-text names.
type Indicator struct {
	ID          string          `json:"id"`
	Type        IndicatorType   `json:"type"`
	Value       string          `json:"value"`
	Description string          `json:"description,omitempty"`
	FirstSeen   *time.Time      `json:"first_seen,omitempty"`
	LastSeen    *time.Time      `json:"last_seen,omitempty"`
	Campaigns   []string        `json:"campaigns"`
	Malware     []string        `json:"malware"`
	Confidence  Confidence      `json:"confidence"`
	Status      IndicatorStatus `json:"status"`
	References  []Reference     `json:"references"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Expanded cross-references, attached by the result projector.
	CampaignDocuments []Campaign `json:"campaign_details,omitempty"`
	MalwareDocuments  []Malware  `json:"malware_details,omitempty"`
}
