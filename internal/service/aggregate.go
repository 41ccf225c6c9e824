package service

import (
	"cmp"
	"slices"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/pagination"
)

// Aggregate concatenates candidates in collection order and stable-sorts them
// by score descending, so ties keep collection order. It returns the full
// ranked list; callers page it with pagination.Slice.
func Aggregate(candidates map[domain.ItemKind][]domain.SearchableItem) []domain.SearchableItem {
	total := 0
	for _, items := range candidates {
		total += len(items)
	}

	ranked := make([]domain.SearchableItem, 0, total)
	for _, kind := range domain.ItemKinds {
		ranked = append(ranked, candidates[kind]...)
	}

	slices.SortStableFunc(ranked, func(a, b domain.SearchableItem) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return ranked
}

// Paginate returns the [offset, offset+limit) window of ranked.
func Paginate(ranked []domain.SearchableItem, limit, offset int) []domain.SearchableItem {
	return pagination.Slice(ranked, offset, limit)
}
