package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxFilterValues      = 20
	maxFilterValueLength = 64
)

// DateRange restricts results by creation time. Zero bounds are open.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls inside the range.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// SearchFilters holds per-request filter criteria.
// An empty dimension means no restriction on that dimension.
type SearchFilters struct {
	Kinds        []ItemKind `json:"kinds,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Difficulties []string   `json:"difficulties,omitempty"`
	Companies    []string   `json:"companies,omitempty"`
	DateRange    *DateRange `json:"date_range,omitempty"`
}

// IncludesKind reports whether the kinds dimension admits kind.
func (f SearchFilters) IncludesKind(kind ItemKind) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Normalize lower-cases and trims values, dropping blanks and duplicates.
func (f SearchFilters) Normalize() SearchFilters {
	out := SearchFilters{
		Tags:         normalizeValues(f.Tags),
		Difficulties: normalizeValues(f.Difficulties),
		Companies:    normalizeValues(f.Companies),
	}
	kinds := make([]string, len(f.Kinds))
	for i, k := range f.Kinds {
		kinds[i] = string(k)
	}
	for _, k := range normalizeValues(kinds) {
		out.Kinds = append(out.Kinds, ItemKind(k))
	}
	if f.DateRange != nil && (!f.DateRange.Start.IsZero() || !f.DateRange.End.IsZero()) {
		dr := *f.DateRange
		out.DateRange = &dr
	}
	return out
}

// Validate rejects malformed filter values with ErrInvalidFilter.
func (f SearchFilters) Validate() error {
	for _, k := range f.Kinds {
		if !k.IsValid() {
			return InvalidFilterf("unknown kind %q", k)
		}
	}
	for _, d := range f.Difficulties {
		if !PreparationLevel(d).IsValid() {
			return InvalidFilterf("unknown difficulty %q", d)
		}
	}
	dims := map[string][]string{
		"tags":         f.Tags,
		"difficulties": f.Difficulties,
		"companies":    f.Companies,
	}
	for name, values := range dims {
		if len(values) > maxFilterValues {
			return InvalidFilterf("too many %s (max %d)", name, maxFilterValues)
		}
		for _, v := range values {
			if utf8.RuneCountInString(v) > maxFilterValueLength {
				return InvalidFilterf("%s value too long (max %d characters)", name, maxFilterValueLength)
			}
		}
	}
	if len(f.Kinds) > len(ItemKinds) {
		return InvalidFilterf("too many kinds")
	}
	if f.DateRange != nil && !f.DateRange.Start.IsZero() && !f.DateRange.End.IsZero() &&
		f.DateRange.Start.After(f.DateRange.End) {
		return InvalidFilterf("date range start %s is after end %s",
			f.DateRange.Start.Format(time.RFC3339), f.DateRange.End.Format(time.RFC3339))
	}
	return nil
}

func normalizeValues(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func anyContainsFold(values []string, candidates []string) bool {
	for _, c := range candidates {
		if containsFold(values, c) {
			return true
		}
	}
	return false
}
