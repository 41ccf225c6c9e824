package service

import (
	"strings"

	"github.com/cloo-solutions/prepwise/internal/domain"
)

// BuildSuggestions returns up to limit advisory query refinements: tags from
// the first sourceResults ranked items that contain, or are contained in, the
// query, followed by popular terms containing the query.
func BuildSuggestions(query string, ranked []domain.SearchableItem, popular []string, sourceResults, limit int) []string {
	suggestions := []string{}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return suggestions
	}

	seen := make(map[string]struct{})
	add := func(s string) bool {
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
		suggestions = append(suggestions, s)
		return len(suggestions) < limit
	}

	if sourceResults > len(ranked) {
		sourceResults = len(ranked)
	}
	for _, item := range ranked[:sourceResults] {
		for _, tag := range item.Tags() {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t == "" {
				continue
			}
			if strings.Contains(t, q) || strings.Contains(q, t) {
				if !add(t) {
					return suggestions
				}
			}
		}
	}

	for _, term := range popular {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" || !strings.Contains(t, q) {
			continue
		}
		if !add(t) {
			return suggestions
		}
	}

	return suggestions
}
