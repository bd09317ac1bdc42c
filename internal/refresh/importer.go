// Package refresh imports the MITRE ATT&CK catalog and keeps it current.
package refresh

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/cyberthreat-atlas/atlas/internal/models"
	"github.com/cyberthreat-atlas/atlas/internal/stix"
)

// BundleFetcher downloads STIX bundles.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, url string) (*stix.Bundle, error)
}

// GroupStore upserts imported attack groups.
type GroupStore interface {
	Upsert(ctx context.Context, group *models.AttackGroup) error
}

// TechniqueStore upserts imported techniques.
type TechniqueStore interface {
	Upsert(ctx context.Context, technique *models.Technique) error
}

// MalwareStore upserts imported malware families.
type MalwareStore interface {
	Upsert(ctx context.Context, malware *models.Malware) error
}

// Importer pulls the ATT&CK bundles and merges them into the catalog.
type Importer struct {
	fetcher    BundleFetcher
	groups     GroupStore
	techniques TechniqueStore
	malware    MalwareStore
	urls       []string
	logger     *slog.Logger
}

// NewImporter creates an importer over the given stores. When urls is empty
// the official ATT&CK bundle set is used.
func NewImporter(fetcher BundleFetcher, groups GroupStore, techniques TechniqueStore, malware MalwareStore, urls []string, logger *slog.Logger) *Importer {
	if len(urls) == 0 {
		urls = stix.DefaultBundleURLs()
	}
	return &Importer{
		fetcher:    fetcher,
		groups:     groups,
		techniques: techniques,
		malware:    malware,
		urls:       urls,
		logger:     logger,
	}
}

// Run fetches every configured bundle and upserts the extracted records.
// Existing records keyed by the same name or MITRE identifier are refreshed,
// so repeated runs converge instead of duplicating.
func (i *Importer) Run(ctx context.Context) error {
	bundles := make([]*stix.Bundle, 0, len(i.urls))
	for _, url := range i.urls {
		i.logger.Info("fetching ATT&CK bundle", "url", url)
		bundle, err := i.fetcher.FetchBundle(ctx, url)
		if err != nil {
			return fmt.Errorf("bundle fetch failed: %w", err)
		}
		bundles = append(bundles, bundle)
	}

	catalog := stix.Extract(bundles...)
	i.logger.Info("extracted ATT&CK catalog",
		"groups", len(catalog.Groups),
		"techniques", len(catalog.Techniques),
		"malware", len(catalog.Malware),
	)

	for idx := range catalog.Groups {
		if err := i.groups.Upsert(ctx, &catalog.Groups[idx]); err != nil {
			return fmt.Errorf("failed to upsert group %q: %w", catalog.Groups[idx].Name, err)
		}
	}
	for idx := range catalog.Techniques {
		if err := i.techniques.Upsert(ctx, &catalog.Techniques[idx]); err != nil {
			return fmt.Errorf("failed to upsert technique %q: %w", catalog.Techniques[idx].MitreID, err)
		}
	}
	for idx := range catalog.Malware {
		if err := i.malware.Upsert(ctx, &catalog.Malware[idx]); err != nil {
			return fmt.Errorf("failed to upsert malware %q: %w", catalog.Malware[idx].Name, err)
		}
	}

	i.logger.Info("ATT&CK import completed")
	return nil
}
