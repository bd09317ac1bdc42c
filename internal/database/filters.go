package database

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cyberthreat-atlas/atlas/internal/models"
	"github.com/lib/pq"
)

// matchKind selects how a filter parameter is translated into SQL.
type matchKind int

const (
	// matchSubstring: case-insensitive substring match against a text column.
	matchSubstring matchKind = iota
	// matchSubstringArray: case-insensitive substring match against the
	// joined elements of a text[] column.
	matchSubstringArray
	// matchExact: case-sensitive equality against a scalar column.
	matchExact
	// matchContains: the parameter value must be an element of a text[] column.
	matchContains
	// matchMembership: comma-split parameter, scalar column must equal one of
	// the values.
	matchMembership
	// matchOverlap: comma-split parameter, text[] column must share at least
	// one element with the values.
	matchOverlap
	// matchDateFrom / matchDateTo: inclusive lower/upper bound on a date
	// column. Unparseable dates fail validation.
	matchDateFrom
	matchDateTo
)

// fieldRule binds one recognized query parameter to a column and a match kind.
type fieldRule struct {
	column string
	kind   matchKind
}

// filterSet is the allow-list of recognized filter parameters for one list
// endpoint. Parameters not present in the set are silently ignored; present
// parameters combine with logical AND.
type filterSet map[string]fieldRule

// whereBuilder accumulates SQL conditions and their positional arguments.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

// bind appends an argument and returns its placeholder.
func (b *whereBuilder) bind(arg interface{}) string {
	b.args = append(b.args, arg)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) where(cond string) {
	b.conditions = append(b.conditions, cond)
}

// clause renders the WHERE clause, or an empty string when no condition was
// added — the empty predicate matches every row.
func (b *whereBuilder) clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.conditions, " AND ")
}

// apply translates the recognized parameters into conditions on b. Parameter
// keys are processed in sorted order so generated SQL is deterministic.
func (fs filterSet) apply(b *whereBuilder, params map[string]string) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rule, ok := fs[key]
		value := params[key]
		if !ok || value == "" {
			continue
		}

		switch rule.kind {
		case matchSubstring:
			b.where(fmt.Sprintf("%s ILIKE %s", rule.column, b.bind(likePattern(value))))
		case matchSubstringArray:
			b.where(fmt.Sprintf("array_to_string(%s, ' ') ILIKE %s", rule.column, b.bind(likePattern(value))))
		case matchExact:
			b.where(fmt.Sprintf("%s = %s", rule.column, b.bind(value)))
		case matchContains:
			b.where(fmt.Sprintf("%s = ANY(%s)", b.bind(value), rule.column))
		case matchMembership:
			values := splitList(value)
			if len(values) == 0 {
				continue
			}
			b.where(fmt.Sprintf("%s = ANY(%s)", rule.column, b.bind(pq.Array(values))))
		case matchOverlap:
			values := splitList(value)
			if len(values) == 0 {
				continue
			}
			b.where(fmt.Sprintf("%s && %s", rule.column, b.bind(pq.Array(values))))
		case matchDateFrom, matchDateTo:
			t, err := parseDate(value)
			if err != nil {
				ve := &models.ValidationError{}
				ve.Add(key, fmt.Sprintf("invalid date %q", value))
				return ve
			}
			op := ">="
			if rule.kind == matchDateTo {
				op = "<="
			}
			b.where(fmt.Sprintf("%s %s %s", rule.column, op, b.bind(t)))
		}
	}

	return nil
}

// prefixColumns qualifies every column in a comma-separated select list with a
// table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds the ILIKE pattern for a substring match, escaping pattern
// metacharacters so the value is matched literally.
func likePattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// splitList splits a comma-joined parameter, dropping empty elements.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate accepts plain dates and RFC 3339 timestamps.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// applyKeywords adds the keyword disjunction for a search request: one clause
// per keyword, each an OR across the given column expressions, the clauses
// themselves OR-combined. A record matches if any keyword matches any field —
// deliberately not an all-keywords-required search.
func applyKeywords(b *whereBuilder, keywords []string, columns []string) {
	if len(keywords) == 0 {
		return
	}
	clauses := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		pattern := likePattern(kw)
		fields := make([]string, 0, len(columns))
		for _, col := range columns {
			fields = append(fields, fmt.Sprintf("%s ILIKE %s", col, b.bind(pattern)))
		}
		clauses = append(clauses, "("+strings.Join(fields, " OR ")+")")
	}
	b.where("(" + strings.Join(clauses, " OR ") + ")")
}

// applyFacetAny adds a set-membership facet against a scalar column.
func applyFacetAny(b *whereBuilder, column string, values []string) {
	if len(values) == 0 {
		return
	}
	b.where(fmt.Sprintf("%s = ANY(%s)", column, b.bind(pq.Array(values))))
}

// applyFacetOverlap adds a set-membership facet against a text[] column.
func applyFacetOverlap(b *whereBuilder, column string, values []string) {
	if len(values) == 0 {
		return
	}
	b.where(fmt.Sprintf("%s && %s", column, b.bind(pq.Array(values))))
}

// applyTimeframe adds the independent start/end bounds of a search timeframe.
// Start bounds startCol and End bounds endCol; they are separate predicates on
// separate columns, not a single range check.
func applyTimeframe(b *whereBuilder, tf *models.Timeframe, startCol, endCol string) {
	if tf == nil {
		return
	}
	if tf.Start != nil {
		b.where(fmt.Sprintf("%s >= %s", startCol, b.bind(*tf.Start)))
	}
	if tf.End != nil {
		b.where(fmt.Sprintf("%s <= %s", endCol, b.bind(*tf.End)))
	}
}
