package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

func TestWhereBuilderEmptyClauseMatchesAll(t *testing.T) {
	b := &whereBuilder{}
	assert.Equal(t, "", b.clause())
	assert.Empty(t, b.args)
}

func TestWhereBuilderBindNumbersPlaceholders(t *testing.T) {
	b := &whereBuilder{}
	assert.Equal(t, "$1", b.bind("a"))
	assert.Equal(t, "$2", b.bind("b"))
	b.where("x = $1")
	b.where("y = $2")
	assert.Equal(t, "WHERE x = $1 AND y = $2", b.clause())
}

func TestFilterSetApplyTranslatesMatchKinds(t *testing.T) {
	fs := filterSet{
		"name":              {column: "name", kind: matchSubstring},
		"aliases":           {column: "aliases", kind: matchSubstringArray},
		"country_of_origin": {column: "country_of_origin", kind: matchExact},
		"sector":            {column: "target_sectors", kind: matchContains},
		"status":            {column: "status", kind: matchMembership},
		"regions":           {column: "target_regions", kind: matchOverlap},
		"first_seen":        {column: "first_seen", kind: matchDateFrom},
	}

	b := &whereBuilder{}
	err := fs.apply(b, map[string]string{
		"name":              "bear",
		"aliases":           "fancy",
		"country_of_origin": "Russia",
		"sector":            "Energy",
		"status":            "ongoing,planned",
		"regions":           "Western Europe, North America",
		"first_seen":        "2016-01-01",
	})
	require.NoError(t, err)

	clause := b.clause()
	assert.Contains(t, clause, "name ILIKE")
	assert.Contains(t, clause, "array_to_string(aliases, ' ') ILIKE")
	assert.Contains(t, clause, "country_of_origin =")
	assert.Contains(t, clause, "ANY(target_sectors)")
	assert.Contains(t, clause, "status = ANY(")
	assert.Contains(t, clause, "target_regions &&")
	assert.Contains(t, clause, "first_seen >=")
	assert.Len(t, b.args, 7)
	assert.Contains(t, b.args, "%bear%")
	assert.Contains(t, b.args, "Russia")
}

// The attack group allow-list must recognize the documented parameter names;
// a misspelled key would be silently ignored and match every record.
func TestAttackGroupFiltersRecognizeDocumentedParams(t *testing.T) {
	b := &whereBuilder{}
	require.NoError(t, attackGroupFilters.apply(b, map[string]string{
		"aliases":           "bear",
		"country_of_origin": "Russia",
	}))

	assert.Equal(t,
		"WHERE array_to_string(aliases, ' ') ILIKE $1 AND country_of_origin = $2",
		b.clause())
	assert.Equal(t, []interface{}{"%bear%", "Russia"}, b.args)
}

func TestFilterSetEscapesLikeMetacharacters(t *testing.T) {
	fs := filterSet{"name": {column: "name", kind: matchSubstring}}

	b := &whereBuilder{}
	require.NoError(t, fs.apply(b, map[string]string{"name": "100%_done"}))
	assert.Equal(t, []interface{}{`%100\%\_done%`}, b.args)

	b = &whereBuilder{}
	applyKeywords(b, []string{"50%"}, []string{"name"})
	assert.Equal(t, []interface{}{`%50\%%`}, b.args)
}

func TestFilterSetApplyIgnoresUnknownAndEmptyParams(t *testing.T) {
	fs := filterSet{"name": {column: "name", kind: matchSubstring}}

	b := &whereBuilder{}
	err := fs.apply(b, map[string]string{
		"bogus": "value",
		"page":  "3",
		"name":  "",
	})
	require.NoError(t, err)
	assert.Equal(t, "", b.clause())
}

func TestFilterSetApplyIsDeterministic(t *testing.T) {
	fs := filterSet{
		"a": {column: "col_a", kind: matchExact},
		"b": {column: "col_b", kind: matchExact},
		"c": {column: "col_c", kind: matchExact},
	}
	params := map[string]string{"c": "3", "a": "1", "b": "2"}

	b1 := &whereBuilder{}
	require.NoError(t, fs.apply(b1, params))
	for i := 0; i < 20; i++ {
		b2 := &whereBuilder{}
		require.NoError(t, fs.apply(b2, params))
		assert.Equal(t, b1.clause(), b2.clause())
		assert.Equal(t, b1.args, b2.args)
	}
	assert.Equal(t, "WHERE col_a = $1 AND col_b = $2 AND col_c = $3", b1.clause())
}

func TestFilterSetApplyRejectsBadDates(t *testing.T) {
	fs := filterSet{"first_seen": {column: "first_seen", kind: matchDateFrom}}

	b := &whereBuilder{}
	err := fs.apply(b, map[string]string{"first_seen": "not-a-date"})
	require.Error(t, err)

	ve, ok := models.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %T", err)
	require.Len(t, ve.Fields, 1)
	assert.Equal(t, "first_seen", ve.Fields[0].Field)
}

func TestFilterSetApplyAcceptsRFC3339Dates(t *testing.T) {
	fs := filterSet{"last_seen": {column: "last_seen", kind: matchDateTo}}

	b := &whereBuilder{}
	require.NoError(t, fs.apply(b, map[string]string{"last_seen": "2021-06-01T12:30:00Z"}))
	assert.Equal(t, "WHERE last_seen <= $1", b.clause())

	want, _ := time.Parse(time.RFC3339, "2021-06-01T12:30:00Z")
	assert.Equal(t, want, b.args[0])
}

func TestApplyKeywordsBuildsDisjunction(t *testing.T) {
	b := &whereBuilder{}
	applyKeywords(b, []string{"bear", "phishing"}, []string{"name", "description"})

	clause := b.clause()
	// Any keyword matching any column is enough.
	assert.Equal(t,
		"WHERE ((name ILIKE $1 OR description ILIKE $2) OR (name ILIKE $3 OR description ILIKE $4))",
		clause)
	assert.Equal(t, []interface{}{"%bear%", "%bear%", "%phishing%", "%phishing%"}, b.args)
}

func TestApplyKeywordsNoKeywordsAddsNothing(t *testing.T) {
	b := &whereBuilder{}
	applyKeywords(b, nil, []string{"name"})
	assert.Equal(t, "", b.clause())
}

func TestApplyFacetsSkipEmptyLists(t *testing.T) {
	b := &whereBuilder{}
	applyFacetAny(b, "country_of_origin", nil)
	applyFacetOverlap(b, "target_sectors", []string{})
	assert.Equal(t, "", b.clause())

	applyFacetAny(b, "country_of_origin", []string{"Russia", "China"})
	applyFacetOverlap(b, "target_sectors", []string{"Energy"})
	clause := b.clause()
	assert.Contains(t, clause, "country_of_origin = ANY($1)")
	assert.Contains(t, clause, "target_sectors && $2")
}

func TestApplyTimeframeBoundsSeparateColumns(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	b := &whereBuilder{}
	applyTimeframe(b, &models.Timeframe{Start: &start, End: &end}, "start_date", "end_date")
	assert.Equal(t, "WHERE start_date >= $1 AND end_date <= $2", b.clause())

	b = &whereBuilder{}
	applyTimeframe(b, &models.Timeframe{Start: &start}, "start_date", "end_date")
	assert.Equal(t, "WHERE start_date >= $1", b.clause())

	b = &whereBuilder{}
	applyTimeframe(b, nil, "start_date", "end_date")
	assert.Equal(t, "", b.clause())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
	assert.Equal(t, []string{"solo"}, splitList("solo"))
	assert.Empty(t, splitList(", ,"))
}

func TestPrefixColumns(t *testing.T) {
	assert.Equal(t, "t.id, t.name", prefixColumns("t", "id, name"))
}
