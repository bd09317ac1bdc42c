package stix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Official ATT&CK STIX bundle locations.
const (
	EnterpriseAttackURL = "https://raw.githubusercontent.com/mitre-attack/attack-stix-data/master/enterprise-attack/enterprise-attack.json"
	MobileAttackURL     = "https://raw.githubusercontent.com/mitre-attack/attack-stix-data/master/mobile-attack/mobile-attack.json"
	ICSAttackURL        = "https://raw.githubusercontent.com/mitre-attack/attack-stix-data/master/ics-attack/ics-attack.json"
)

// DefaultBundleURLs lists the bundles a full import fetches, enterprise first
// so its records win deduplication.
func DefaultBundleURLs() []string {
	return []string{EnterpriseAttackURL, MobileAttackURL, ICSAttackURL}
}

// Client downloads STIX bundles over HTTP.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a bundle client. The bundles are tens of megabytes, so the
// timeout is generous.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// FetchBundle downloads and decodes one STIX bundle.
func (c *Client) FetchBundle(ctx context.Context, url string) (*Bundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build bundle request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bundle %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching bundle %s", resp.StatusCode, url)
	}

	var bundle Bundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("failed to decode bundle %s: %w", url, err)
	}
	return &bundle, nil
}
