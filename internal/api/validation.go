package api

import (
	"fmt"
	"net/mail"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// Request validation. Each validator returns nil or a ValidationError carrying
// every failed field, so clients see the full list at once.

func validateAttackGroup(group *models.AttackGroup) error {
	ve := &models.ValidationError{}
	if group.Name == "" {
		ve.Add("name", "name is required")
	}
	if group.SophisticationLevel == "" {
		group.SophisticationLevel = models.SophisticationUnknown
	}
	if !group.SophisticationLevel.Valid() {
		ve.Add("sophistication_level", fmt.Sprintf("unrecognized value %q", group.SophisticationLevel))
	}
	if group.ThreatLevel < 0 || group.ThreatLevel > 10 {
		ve.Add("threat_level", "must be between 0 and 10")
	}
	if group.FirstSeen != nil && group.LastSeen != nil && group.LastSeen.Before(*group.FirstSeen) {
		ve.Add("last_seen", "must not precede first_seen")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateCampaign(campaign *models.Campaign) error {
	ve := &models.ValidationError{}
	if campaign.Name == "" {
		ve.Add("name", "name is required")
	}
	if campaign.Status == "" {
		campaign.Status = models.CampaignUnknown
	}
	if !campaign.Status.Valid() {
		ve.Add("status", fmt.Sprintf("unrecognized value %q", campaign.Status))
	}
	if campaign.Severity == "" {
		campaign.Severity = models.SeverityMedium
	}
	if !campaign.Severity.Valid() {
		ve.Add("severity", fmt.Sprintf("unrecognized value %q", campaign.Severity))
	}
	if campaign.StartDate != nil && campaign.EndDate != nil && campaign.EndDate.Before(*campaign.StartDate) {
		ve.Add("end_date", "must not precede start_date")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateTechnique(technique *models.Technique) error {
	ve := &models.ValidationError{}
	if technique.MitreID == "" {
		ve.Add("mitre_id", "mitre_id is required")
	}
	if technique.Name == "" {
		ve.Add("name", "name is required")
	}
	if technique.Severity == "" {
		technique.Severity = models.SeverityMedium
	}
	if !technique.Severity.Valid() {
		ve.Add("severity", fmt.Sprintf("unrecognized value %q", technique.Severity))
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateMalware(malware *models.Malware) error {
	ve := &models.ValidationError{}
	if malware.Name == "" {
		ve.Add("name", "name is required")
	}
	if malware.ThreatLevel < 0 || malware.ThreatLevel > 10 {
		ve.Add("threat_level", "must be between 0 and 10")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateIndicator(indicator *models.Indicator) error {
	ve := &models.ValidationError{}
	if indicator.Value == "" {
		ve.Add("value", "value is required")
	}
	if !indicator.Type.Valid() {
		ve.Add("type", fmt.Sprintf("unrecognized value %q", indicator.Type))
	}
	if indicator.Confidence == "" {
		indicator.Confidence = models.ConfidenceMedium
	}
	if !indicator.Confidence.Valid() {
		ve.Add("confidence", fmt.Sprintf("unrecognized value %q", indicator.Confidence))
	}
	if indicator.Status == "" {
		indicator.Status = models.IndicatorActive
	}
	if !indicator.Status.Valid() {
		ve.Add("status", fmt.Sprintf("unrecognized value %q", indicator.Status))
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateRegion(region *models.Region) error {
	ve := &models.ValidationError{}
	if region.Name == "" {
		ve.Add("name", "name is required")
	}
	if region.ThreatLevel == "" {
		region.ThreatLevel = models.ThreatMedium
	}
	if !region.ThreatLevel.Valid() {
		ve.Add("threat_level", fmt.Sprintf("unrecognized value %q", region.ThreatLevel))
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateSector(sector *models.Sector) error {
	ve := &models.ValidationError{}
	if sector.Name == "" {
		ve.Add("name", "name is required")
	}
	if sector.Code == "" {
		ve.Add("code", "code is required")
	}
	if sector.ThreatLevel < 0 || sector.ThreatLevel > 10 {
		ve.Add("threat_level", "must be between 0 and 10")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateRegistration(name, email, password string, role models.Role) error {
	ve := &models.ValidationError{}
	if name == "" {
		ve.Add("name", "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		ve.Add("email", "a valid email address is required")
	}
	if len(password) < 8 {
		ve.Add("password", "must be at least 8 characters")
	}
	if role != "" && !role.Valid() {
		ve.Add("role", fmt.Sprintf("unrecognized value %q", role))
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}
