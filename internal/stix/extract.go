package stix

import (
	"strings"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// Default threat grades for imported records. MITRE tracks only groups and
// families notable enough to catalog, so both start high and analysts adjust.
const (
	importedGroupThreatLevel   = 8
	importedMalwareThreatLevel = 7
)

// Catalog holds the records extracted from one or more bundles, deduplicated
// by natural key.
type Catalog struct {
	Groups     []models.AttackGroup
	Techniques []models.Technique
	Malware    []models.Malware
}

// Extract pulls attack groups, techniques and malware families out of the
// given bundles. Later duplicates of the same name or MITRE identifier are
// dropped, so bundle order decides which domain wins.
func Extract(bundles ...*Bundle) Catalog {
	var catalog Catalog

	seenGroups := map[string]bool{}
	seenTechniques := map[string]bool{}
	seenMalware := map[string]bool{}

	for _, bundle := range bundles {
		index := indexObjects(bundle)

		for _, obj := range bundle.Objects {
			if obj.Revoked || obj.XMitreDeprecated {
				continue
			}
			switch obj.Type {
			case "intrusion-set":
				if obj.Name == "" || seenGroups[obj.Name] {
					continue
				}
				seenGroups[obj.Name] = true
				catalog.Groups = append(catalog.Groups, extractGroup(obj))
			case "attack-pattern":
				mitreID := obj.MitreID()
				if mitreID == "" || seenTechniques[mitreID] {
					continue
				}
				seenTechniques[mitreID] = true
				catalog.Techniques = append(catalog.Techniques, extractTechnique(obj, mitreID))
			case "malware":
				if obj.Name == "" || seenMalware[obj.Name] {
					continue
				}
				seenMalware[obj.Name] = true
				catalog.Malware = append(catalog.Malware, extractMalware(obj, bundle, index))
			}
		}
	}

	return catalog
}

// bundleIndex resolves STIX object ids without rescanning the object list per
// relationship.
type bundleIndex struct {
	byID map[string]*Object
}

func indexObjects(bundle *Bundle) bundleIndex {
	idx := bundleIndex{byID: make(map[string]*Object, len(bundle.Objects))}
	for i := range bundle.Objects {
		idx.byID[bundle.Objects[i].ID] = &bundle.Objects[i]
	}
	return idx
}

func extractGroup(obj Object) models.AttackGroup {
	var motivations []string
	if obj.PrimaryMotivation != "" {
		motivations = []string{obj.PrimaryMotivation}
	}

	country := obj.XMitreCountry
	if country == "" {
		country = "Unknown"
	}

	return models.AttackGroup{
		Name:                obj.Name,
		Aliases:             obj.Aliases,
		CountryOfOrigin:     country,
		Description:         obj.Description,
		FirstSeen:           obj.FirstSeen,
		LastSeen:            obj.LastSeen,
		Motivations:         motivations,
		TargetSectors:       obj.XMitreSectors,
		SophisticationLevel: mapSophistication(obj.XMitreSophistication),
		ThreatLevel:         importedGroupThreatLevel,
		References:          extractReferences(obj),
	}
}

func extractTechnique(obj Object, mitreID string) models.Technique {
	var tactics []string
	for _, phase := range obj.KillChainPhases {
		tactics = append(tactics, phase.PhaseName)
	}

	return models.Technique{
		MitreID:     mitreID,
		Name:        obj.Name,
		Description: obj.Description,
		Tactics:     tactics,
		Platforms:   obj.XMitrePlatforms,
		DataSources: obj.XMitreDataSources,
		Detection:   obj.XMitreDetection,
		Severity:    models.SeverityMedium,
		References:  extractReferences(obj),
	}
}

func extractMalware(obj Object, bundle *Bundle, index bundleIndex) models.Malware {
	var techniques, groups []string

	// "uses" relationships link this family to its techniques (as source) and
	// to the intrusion sets that deploy it (as target).
	for _, rel := range bundle.Objects {
		if rel.Type != "relationship" || rel.RelationshipType != "uses" {
			continue
		}
		if rel.SourceRef == obj.ID {
			if target, ok := index.byID[rel.TargetRef]; ok && target.Type == "attack-pattern" {
				if mitreID := target.MitreID(); mitreID != "" {
					techniques = append(techniques, mitreID)
				}
			}
		}
		if rel.TargetRef == obj.ID {
			if source, ok := index.byID[rel.SourceRef]; ok && source.Type == "intrusion-set" {
				groups = append(groups, source.Name)
			}
		}
	}

	malwareType := "Unknown"
	if len(obj.XMitreMalwareTypes) > 0 {
		malwareType = strings.Join(obj.XMitreMalwareTypes, ", ")
	}

	return models.Malware{
		Name:             obj.Name,
		Aliases:          obj.XMitreAliases,
		Type:             malwareType,
		Description:      obj.Description,
		AssociatedGroups: groups,
		Techniques:       techniques,
		TargetPlatforms:  obj.XMitrePlatforms,
		ThreatLevel:      importedMalwareThreatLevel,
		References:       extractReferences(obj),
	}
}

func extractReferences(obj Object) []models.Reference {
	refs := make([]models.Reference, 0, len(obj.ExternalReferences))
	for _, ref := range obj.ExternalReferences {
		refs = append(refs, models.Reference{
			URL:         ref.URL,
			Source:      ref.SourceName,
			Description: ref.Description,
		})
	}
	return refs
}

// mapSophistication folds MITRE's free-form sophistication vocabulary onto the
// catalog's grading.
func mapSophistication(raw string) models.SophisticationLevel {
	switch strings.ToLower(raw) {
	case "minimal", "none", "low":
		return models.SophisticationLow
	case "intermediate", "medium":
		return models.SophisticationMedium
	case "advanced", "expert", "innovator", "strategic", "high":
		return models.SophisticationHigh
	default:
		return models.SophisticationUnknown
	}
}
