package refresh

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/models"
	"github.com/cyberthreat-atlas/atlas/internal/stix"
)

type fakeFetcher struct {
	bundles map[string]*stix.Bundle
	err     error
}

func (f *fakeFetcher) FetchBundle(ctx context.Context, url string) (*stix.Bundle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bundles[url], nil
}

type recordingStores struct {
	groups     []string
	techniques []string
	malware    []string
}

type groupRecorder struct{ s *recordingStores }

func (r groupRecorder) Upsert(ctx context.Context, g *models.AttackGroup) error {
	r.s.groups = append(r.s.groups, g.Name)
	return nil
}

type techniqueRecorder struct{ s *recordingStores }

func (r techniqueRecorder) Upsert(ctx context.Context, t *models.Technique) error {
	r.s.techniques = append(r.s.techniques, t.MitreID)
	return nil
}

type malwareRecorder struct{ s *recordingStores }

func (r malwareRecorder) Upsert(ctx context.Context, m *models.Malware) error {
	r.s.malware = append(r.s.malware, m.Name)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestImporterRun(t *testing.T) {
	bundle := &stix.Bundle{Objects: []stix.Object{
		{Type: "intrusion-set", ID: "intrusion-set--1", Name: "APT28"},
		{Type: "attack-pattern", ID: "attack-pattern--1", Name: "Phishing",
			ExternalReferences: []stix.ExternalReference{{SourceName: "mitre-attack", ExternalID: "T1566"}}},
		{Type: "malware", ID: "malware--1", Name: "X-Agent"},
	}}
	fetcher := &fakeFetcher{bundles: map[string]*stix.Bundle{"https://example.com/bundle.json": bundle}}

	stores := &recordingStores{}
	importer := NewImporter(fetcher, groupRecorder{stores}, techniqueRecorder{stores}, malwareRecorder{stores},
		[]string{"https://example.com/bundle.json"}, discardLogger())

	require.NoError(t, importer.Run(context.Background()))
	assert.Equal(t, []string{"APT28"}, stores.groups)
	assert.Equal(t, []string{"T1566"}, stores.techniques)
	assert.Equal(t, []string{"X-Agent"}, stores.malware)
}

func TestImporterRunPropagatesFetchErrors(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("network down")}
	stores := &recordingStores{}
	importer := NewImporter(fetcher, groupRecorder{stores}, techniqueRecorder{stores}, malwareRecorder{stores},
		[]string{"https://example.com/bundle.json"}, discardLogger())

	err := importer.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, stores.groups)
}

func TestImporterDefaultsToOfficialBundles(t *testing.T) {
	importer := NewImporter(&fakeFetcher{}, nil, nil, nil, nil, discardLogger())
	assert.Equal(t, stix.DefaultBundleURLs(), importer.urls)
}

func TestServiceStartStop(t *testing.T) {
	bundle := &stix.Bundle{}
	fetcher := &fakeFetcher{bundles: map[string]*stix.Bundle{"u": bundle}}
	stores := &recordingStores{}
	importer := NewImporter(fetcher, groupRecorder{stores}, techniqueRecorder{stores}, malwareRecorder{stores},
		[]string{"u"}, discardLogger())

	svc := NewService(importer, time.Hour, discardLogger())

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	svc.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestServiceStopsOnContextCancel(t *testing.T) {
	importer := NewImporter(&fakeFetcher{bundles: map[string]*stix.Bundle{"u": {}}},
		groupRecorder{&recordingStores{}}, techniqueRecorder{&recordingStores{}}, malwareRecorder{&recordingStores{}},
		[]string{"u"}, discardLogger())
	svc := NewService(importer, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop on context cancellation")
	}
}
