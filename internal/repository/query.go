package repository

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/prepwise/internal/domain"
)

// table describes how a collection maps onto SQL. Empty column names mean
// the collection does not carry that dimension.
type table struct {
	name        string
	columns     []string
	textColumns []string
	tags        string
	difficulty  string
	company     string
	category    string
	label       string
	author      string
	fields      map[string]bool
}

func (t table) selectList() string {
	return strings.Join(t.columns, ", ")
}

func (t table) has(field string) bool {
	return t.fields[field]
}

type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(format string, args ...any) {
	b.conds = append(b.conds, fmt.Sprintf(format, args...))
}

func (b *queryBuilder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// escapeLike escapes LIKE metacharacters so terms match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func (b *queryBuilder) applyTerms(t table, terms []string) {
	if len(terms) == 0 {
		return
	}
	patterns := make([]string, len(terms))
	for i, term := range terms {
		patterns[i] = "%" + escapeLike(strings.ToLower(term)) + "%"
	}
	p := b.arg(patterns)

	ors := make([]string, 0, len(t.textColumns)+1)
	for _, col := range t.textColumns {
		ors = append(ors, fmt.Sprintf("%s ILIKE ANY(%s)", col, p))
	}
	if t.tags != "" {
		ors = append(ors, fmt.Sprintf("array_to_string(%s, ' ') ILIKE ANY(%s)", t.tags, p))
	}
	b.where("(%s)", strings.Join(ors, " OR "))
}

func (b *queryBuilder) tagsOverlap(t table, values []string) {
	b.where("EXISTS (SELECT 1 FROM unnest(%s) AS tag WHERE lower(tag) = ANY(%s))", t.tags, b.arg(lowerAll(values)))
}

// applyFilters adds request filters. Dimensions the table does not carry
// are skipped.
func (b *queryBuilder) applyFilters(t table, f domain.SearchFilters) {
	if len(f.Tags) > 0 && t.tags != "" {
		b.tagsOverlap(t, f.Tags)
	}
	if len(f.Difficulties) > 0 && t.difficulty != "" {
		b.where("lower(%s) = ANY(%s)", t.difficulty, b.arg(lowerAll(f.Difficulties)))
	}
	if len(f.Companies) > 0 && t.company != "" {
		b.where("lower(%s) = ANY(%s)", t.company, b.arg(lowerAll(f.Companies)))
	}
	if f.DateRange != nil {
		if !f.DateRange.Start.IsZero() {
			b.where("created_at >= %s", b.arg(f.DateRange.Start))
		}
		if !f.DateRange.End.IsZero() {
			b.where("created_at <= %s", b.arg(f.DateRange.End))
		}
	}
}

// applyCriteria adds typed criteria. Unlike request filters, a criterion on
// a column the table lacks is an error.
func (b *queryBuilder) applyCriteria(t table, c domain.Criteria) error {
	b.applyTerms(t, c.Terms)
	b.applyFilters(t, c.Filters)

	unsupported := func(criterion string) error {
		return fmt.Errorf("%s does not support criterion %s", t.name, criterion)
	}

	if c.Difficulty != "" {
		if t.difficulty == "" {
			return unsupported("difficulty")
		}
		b.where("lower(%s) = %s", t.difficulty, b.arg(strings.ToLower(c.Difficulty)))
	}
	if len(c.Categories) > 0 {
		if t.category == "" {
			return unsupported("categories")
		}
		b.where("lower(%s) = ANY(%s)", t.category, b.arg(lowerAll(c.Categories)))
	}
	if len(c.TagsAny) > 0 {
		if t.tags == "" {
			return unsupported("tags")
		}
		b.tagsOverlap(t, c.TagsAny)
	}
	if len(c.NamesIn) > 0 {
		if t.label == "" {
			return unsupported("names")
		}
		b.where("lower(%s) = ANY(%s)", t.label, b.arg(lowerAll(c.NamesIn)))
	}
	if c.ExcludeAuthorID != "" {
		if t.author == "" {
			return unsupported("exclude_author")
		}
		b.where("%s IS DISTINCT FROM %s", t.author, b.arg(c.ExcludeAuthorID))
	}
	if c.HasAcceptedAnswer != nil {
		if !t.has("has_accepted_answer") {
			return unsupported("has_accepted_answer")
		}
		b.where("has_accepted_answer = %s", b.arg(*c.HasAcceptedAnswer))
	}
	if c.CreatedWithin != nil {
		b.where("created_at BETWEEN %s AND %s", b.arg(c.CreatedWithin.Start), b.arg(c.CreatedWithin.End))
	}

	mins := []struct {
		column string
		value  int
	}{
		{"upvotes", c.MinUpvotes},
		{"views", c.MinViews},
		{"access_count", c.MinAccessCount},
	}
	for _, m := range mins {
		if m.value == 0 {
			continue
		}
		if !t.has(m.column) {
			return unsupported("min_" + m.column)
		}
		b.where("%s >= %s", m.column, b.arg(m.value))
	}

	if c.EngagementAny != nil && !c.EngagementAny.IsZero() {
		e := c.EngagementAny
		var ors []string
		for _, m := range []struct {
			column string
			value  int
		}{
			{"views", e.MinViews},
			{"upvotes", e.MinUpvotes},
			{"answer_count", e.MinAnswers},
		} {
			if m.value == 0 {
				continue
			}
			if !t.has(m.column) {
				return unsupported("engagement_" + m.column)
			}
			ors = append(ors, fmt.Sprintf("%s >= %s", m.column, b.arg(m.value)))
		}
		b.where("(%s)", strings.Join(ors, " OR "))
	}
	return nil
}

// orderBy renders a whitelisted ORDER BY. id is always the final tiebreak.
func orderBy(t table, sort []domain.SortField) (string, error) {
	parts := make([]string, 0, len(sort)+1)
	for _, s := range sort {
		if !t.has(s.Field) {
			return "", fmt.Errorf("%s cannot sort by %q", t.name, s.Field)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, s.Field+" "+dir)
	}
	if len(parts) == 0 {
		parts = append(parts, "created_at DESC")
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}
