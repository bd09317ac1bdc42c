package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	ve, ok := models.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	fields := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		fields = append(fields, f.Field)
	}
	return fields
}

func TestValidateAttackGroup(t *testing.T) {
	earlier := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		group := &models.AttackGroup{Name: "APT28", ThreatLevel: 8}
		require.NoError(t, validateAttackGroup(group))
		assert.Equal(t, models.SophisticationUnknown, group.SophisticationLevel)
	})

	t.Run("missing name", func(t *testing.T) {
		err := validateAttackGroup(&models.AttackGroup{})
		assert.Equal(t, []string{"name"}, fieldsOf(t, err))
	})

	t.Run("threat level out of range", func(t *testing.T) {
		err := validateAttackGroup(&models.AttackGroup{Name: "x", ThreatLevel: 11})
		assert.Equal(t, []string{"threat_level"}, fieldsOf(t, err))
	})

	t.Run("last seen before first seen", func(t *testing.T) {
		err := validateAttackGroup(&models.AttackGroup{Name: "x", FirstSeen: &later, LastSeen: &earlier})
		assert.Equal(t, []string{"last_seen"}, fieldsOf(t, err))
	})

	t.Run("bad sophistication", func(t *testing.T) {
		err := validateAttackGroup(&models.AttackGroup{Name: "x", SophisticationLevel: "elite"})
		assert.Equal(t, []string{"sophistication_level"}, fieldsOf(t, err))
	})
}

func TestValidateCampaign(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		campaign := &models.Campaign{Name: "Operation Test"}
		require.NoError(t, validateCampaign(campaign))
		assert.Equal(t, models.CampaignUnknown, campaign.Status)
		assert.Equal(t, models.SeverityMedium, campaign.Severity)
	})

	t.Run("end before start", func(t *testing.T) {
		start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, -6, 0)
		err := validateCampaign(&models.Campaign{Name: "x", StartDate: &start, EndDate: &end})
		assert.Equal(t, []string{"end_date"}, fieldsOf(t, err))
	})

	t.Run("bad status and severity", func(t *testing.T) {
		err := validateCampaign(&models.Campaign{Name: "x", Status: "paused", Severity: "extreme"})
		assert.Equal(t, []string{"status", "severity"}, fieldsOf(t, err))
	})
}

func TestValidateTechnique(t *testing.T) {
	t.Run("valid with default severity", func(t *testing.T) {
		technique := &models.Technique{MitreID: "T1566", Name: "Phishing"}
		require.NoError(t, validateTechnique(technique))
		assert.Equal(t, models.SeverityMedium, technique.Severity)
	})

	t.Run("missing identifiers", func(t *testing.T) {
		err := validateTechnique(&models.Technique{})
		assert.Equal(t, []string{"mitre_id", "name"}, fieldsOf(t, err))
	})
}

func TestValidateIndicator(t *testing.T) {
	t.Run("valid with defaults", func(t *testing.T) {
		indicator := &models.Indicator{Type: models.IndicatorIP, Value: "203.0.113.7"}
		require.NoError(t, validateIndicator(indicator))
		assert.Equal(t, models.ConfidenceMedium, indicator.Confidence)
		assert.Equal(t, models.IndicatorActive, indicator.Status)
	})

	t.Run("bad type", func(t *testing.T) {
		err := validateIndicator(&models.Indicator{Type: "magnet-link", Value: "x"})
		assert.Equal(t, []string{"type"}, fieldsOf(t, err))
	})

	t.Run("missing value", func(t *testing.T) {
		err := validateIndicator(&models.Indicator{Type: models.IndicatorDomain})
		assert.Equal(t, []string{"value"}, fieldsOf(t, err))
	})
}

func TestValidateRegion(t *testing.T) {
	region := &models.Region{Name: "Western Europe"}
	require.NoError(t, validateRegion(region))
	assert.Equal(t, models.ThreatMedium, region.ThreatLevel)

	err := validateRegion(&models.Region{Name: "x", ThreatLevel: "catastrophic"})
	assert.Equal(t, []string{"threat_level"}, fieldsOf(t, err))
}

func TestValidateSector(t *testing.T) {
	require.NoError(t, validateSector(&models.Sector{Name: "Energy", Code: "ENG"}))

	err := validateSector(&models.Sector{})
	assert.Equal(t, []string{"name", "code"}, fieldsOf(t, err))
}
