package models

import "testing"

func TestListQueryNormalize(t *testing.T) {
	tests := []struct {
		name      string
		query     ListQuery
		wantPage  int
		wantLimit int
	}{
		{name: "zero values get defaults", query: ListQuery{}, wantPage: 1, wantLimit: 10},
		{name: "negative page", query: ListQuery{Page: -3, Limit: 20}, wantPage: 1, wantLimit: 20},
		{name: "limit above ceiling is clamped", query: ListQuery{Page: 2, Limit: 500}, wantPage: 2, wantLimit: 100},
		{name: "valid values pass through", query: ListQuery{Page: 7, Limit: 25}, wantPage: 7, wantLimit: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.query
			q.Normalize()
			if q.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", q.Page, tt.wantPage)
			}
			if q.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", q.Limit, tt.wantLimit)
			}
		})
	}
}

func TestListQueryOffset(t *testing.T) {
	q := ListQuery{Page: 3, Limit: 10}
	if got := q.Offset(); got != 20 {
		t.Errorf("Offset() = %d, want 20", got)
	}

	q = ListQuery{Page: 1, Limit: 25}
	if got := q.Offset(); got != 0 {
		t.Errorf("Offset() = %d, want 0", got)
	}
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		limit     int
		wantPages int
	}{
		{name: "exact multiple", total: 40, page: 1, limit: 10, wantPages: 4},
		{name: "partial final page", total: 41, page: 1, limit: 10, wantPages: 5},
		{name: "empty result", total: 0, page: 1, limit: 10, wantPages: 0},
		{name: "single record", total: 1, page: 1, limit: 10, wantPages: 1},
		{name: "page past the end is preserved", total: 5, page: 9, limit: 10, wantPages: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)
			if p.Total != tt.total {
				t.Errorf("Total = %d, want %d", p.Total, tt.total)
			}
			if p.Page != tt.page {
				t.Errorf("Page = %d, want %d", p.Page, tt.page)
			}
			if p.Pages != tt.wantPages {
				t.Errorf("Pages = %d, want %d", p.Pages, tt.wantPages)
			}
		})
	}
}

func TestEnumValidity(t *testing.T) {
	if !CampaignOngoing.Valid() || CampaignStatus("finished").Valid() {
		t.Error("campaign status validity mismatch")
	}
	if !SeverityCritical.Valid() || Severity("extreme").Valid() {
		t.Error("severity validity mismatch")
	}
	if !IndicatorHash.Valid() || IndicatorType("md5").Valid() {
		t.Error("indicator type validity mismatch")
	}
	if !RoleAnalyst.Valid() || Role("superuser").Valid() {
		t.Error("role validity mismatch")
	}
	if !SophisticationUnknown.Valid() || SophisticationLevel("elite").Valid() {
		t.Error("sophistication validity mismatch")
	}
	if !ThreatCritical.Valid() || ThreatLevel("severe").Valid() {
		t.Error("threat level validity mismatch")
	}
}
