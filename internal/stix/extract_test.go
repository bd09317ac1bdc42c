package stix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

func testBundle() *Bundle {
	return &Bundle{
		Type: "bundle",
		ID:   "bundle--test",
		Objects: []Object{
			{
				Type:    "intrusion-set",
				ID:      "intrusion-set--g1",
				Name:    "APT28",
				Aliases: []string{"Fancy Bear"},
				Description: "Espionage group.",
				PrimaryMotivation:    "organizational-gain",
				XMitreSophistication: "advanced",
				ExternalReferences: []ExternalReference{
					{SourceName: "mitre-attack", ExternalID: "G0007", URL: "https://attack.mitre.org/groups/G0007"},
				},
			},
			{
				Type: "attack-pattern",
				ID:   "attack-pattern--t1",
				Name: "Spearphishing Attachment",
				KillChainPhases: []KillChainPhase{
					{KillChainName: "mitre-attack", PhaseName: "initial-access"},
				},
				XMitrePlatforms: []string{"Windows"},
				ExternalReferences: []ExternalReference{
					{SourceName: "mitre-attack", ExternalID: "T1566.001"},
				},
			},
			{
				Type:          "malware",
				ID:            "malware--m1",
				Name:          "X-Agent",
				XMitreAliases: []string{"CHOPSTICK"},
				XMitreMalwareTypes: []string{"backdoor"},
				XMitrePlatforms:    []string{"Windows", "Linux"},
			},
			// Group uses the malware, malware uses the technique.
			{Type: "relationship", ID: "relationship--r1", RelationshipType: "uses", SourceRef: "intrusion-set--g1", TargetRef: "malware--m1"},
			{Type: "relationship", ID: "relationship--r2", RelationshipType: "uses", SourceRef: "malware--m1", TargetRef: "attack-pattern--t1"},
			// Revoked objects are skipped.
			{Type: "intrusion-set", ID: "intrusion-set--g2", Name: "Retired Group", Revoked: true},
			{Type: "attack-pattern", ID: "attack-pattern--t2", Name: "Deprecated Technique", XMitreDeprecated: true,
				ExternalReferences: []ExternalReference{{SourceName: "mitre-attack", ExternalID: "T9999"}}},
		},
	}
}

func TestExtractGroups(t *testing.T) {
	catalog := Extract(testBundle())

	require.Len(t, catalog.Groups, 1)
	group := catalog.Groups[0]
	assert.Equal(t, "APT28", group.Name)
	assert.Equal(t, []string{"Fancy Bear"}, group.Aliases)
	assert.Equal(t, "Unknown", group.CountryOfOrigin)
	assert.Equal(t, []string{"organizational-gain"}, group.Motivations)
	assert.Equal(t, models.SophisticationHigh, group.SophisticationLevel)
	assert.Equal(t, importedGroupThreatLevel, group.ThreatLevel)
	require.Len(t, group.References, 1)
	assert.Equal(t, "mitre-attack", group.References[0].Source)
}

func TestExtractTechniques(t *testing.T) {
	catalog := Extract(testBundle())

	require.Len(t, catalog.Techniques, 1)
	technique := catalog.Techniques[0]
	assert.Equal(t, "T1566.001", technique.MitreID)
	assert.Equal(t, "Spearphishing Attachment", technique.Name)
	assert.Equal(t, []string{"initial-access"}, technique.Tactics)
	assert.Equal(t, []string{"Windows"}, technique.Platforms)
	assert.Equal(t, models.SeverityMedium, technique.Severity)
}

func TestExtractMalwareResolvesRelationships(t *testing.T) {
	catalog := Extract(testBundle())

	require.Len(t, catalog.Malware, 1)
	malware := catalog.Malware[0]
	assert.Equal(t, "X-Agent", malware.Name)
	assert.Equal(t, []string{"CHOPSTICK"}, malware.Aliases)
	assert.Equal(t, "backdoor", malware.Type)
	assert.Equal(t, []string{"APT28"}, malware.AssociatedGroups)
	assert.Equal(t, []string{"T1566.001"}, malware.Techniques)
	assert.Equal(t, importedMalwareThreatLevel, malware.ThreatLevel)
}

func TestExtractDeduplicatesAcrossBundles(t *testing.T) {
	first := testBundle()
	second := &Bundle{Objects: []Object{
		{Type: "intrusion-set", ID: "intrusion-set--dup", Name: "APT28", Description: "duplicate from a later bundle"},
		{Type: "intrusion-set", ID: "intrusion-set--new", Name: "APT29"},
	}}

	catalog := Extract(first, second)
	require.Len(t, catalog.Groups, 2)
	// The first bundle's record wins.
	assert.Equal(t, "Espionage group.", catalog.Groups[0].Description)
	assert.Equal(t, "APT29", catalog.Groups[1].Name)
}

func TestMapSophistication(t *testing.T) {
	tests := map[string]models.SophisticationLevel{
		"minimal":      models.SophisticationLow,
		"intermediate": models.SophisticationMedium,
		"Advanced":     models.SophisticationHigh,
		"strategic":    models.SophisticationHigh,
		"":             models.SophisticationUnknown,
		"bizarre":      models.SophisticationUnknown,
	}
	for input, want := range tests {
		assert.Equal(t, want, mapSophistication(input), "input %q", input)
	}
}

func TestMitreID(t *testing.T) {
	obj := Object{ExternalReferences: []ExternalReference{
		{SourceName: "capec", ExternalID: "CAPEC-163"},
		{SourceName: "mitre-attack", ExternalID: "T1566"},
	}}
	assert.Equal(t, "T1566", obj.MitreID())

	assert.Equal(t, "", (&Object{}).MitreID())
}
