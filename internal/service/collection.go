package service

import (
	"context"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/ranking"
)

// CollectionSearcher finds and scores candidates in a single collection.
type CollectionSearcher interface {
	Kind() domain.ItemKind
	Search(ctx context.Context, terms []string, filters domain.SearchFilters) ([]domain.SearchableItem, error)
	Count(ctx context.Context, terms []string, filters domain.SearchFilters) (int, error)
}

type collectionSearcher[T domain.Record] struct {
	kind  domain.ItemKind
	store CollectionStore[T]
	limit int
	score ranking.ScoreFn
}

// NewCollectionSearcher wraps a store as a searcher returning at most limit candidates.
func NewCollectionSearcher[T domain.Record](kind domain.ItemKind, store CollectionStore[T], limit int, score ranking.ScoreFn) CollectionSearcher {
	if score == nil {
		score = ranking.DefaultScorer
	}
	return &collectionSearcher[T]{
		kind:  kind,
		store: store,
		limit: limit,
		score: score,
	}
}

// NewCollectionSearchers builds one searcher per configured store, in collection order.
func NewCollectionSearchers(stores Stores, catalog *ranking.Catalog) []CollectionSearcher {
	w := catalog.Weights.Search
	score := catalog.Scorer()

	var searchers []CollectionSearcher
	if stores.Questions != nil {
		searchers = append(searchers, NewCollectionSearcher(domain.ItemKindQuestion, stores.Questions, w.CollectionLimit, score))
	}
	if stores.Experiences != nil {
		searchers = append(searchers, NewCollectionSearcher(domain.ItemKindExperience, stores.Experiences, w.CollectionLimit, score))
	}
	if stores.Materials != nil {
		searchers = append(searchers, NewCollectionSearcher(domain.ItemKindMaterial, stores.Materials, w.CollectionLimit, score))
	}
	if stores.Companies != nil {
		searchers = append(searchers, NewCollectionSearcher(domain.ItemKindCompany, stores.Companies, w.CompanyLimit, score))
	}
	if stores.Users != nil {
		searchers = append(searchers, NewCollectionSearcher(domain.ItemKindUser, stores.Users, w.UserLimit, score))
	}
	return searchers
}

func (s *collectionSearcher[T]) Kind() domain.ItemKind {
	return s.kind
}

// Search returns candidates that satisfy filters and, for a non-empty term
// list, carry a positive score. Filter-only matches score 0.
func (s *collectionSearcher[T]) Search(ctx context.Context, terms []string, filters domain.SearchFilters) ([]domain.SearchableItem, error) {
	records, err := s.store.FindByTextAndFilters(ctx, terms, filters, s.limit)
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	items := make([]domain.SearchableItem, 0, len(records))
	for _, rec := range records {
		if len(items) == s.limit {
			break
		}
		if !rec.MatchesFilters(filters) {
			continue
		}
		item := rec.Project()
		if len(terms) > 0 {
			item.Score = s.score(rec.SearchableText(), terms)
			if item.Score <= 0 {
				continue
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Count returns the uncapped number of matches in the store.
func (s *collectionSearcher[T]) Count(ctx context.Context, terms []string, filters domain.SearchFilters) (int, error) {
	n, err := s.store.CountMatching(ctx, domain.CriteriaForSearch(terms, filters))
	if err != nil {
		return 0, domain.Unavailable(err)
	}
	return n, nil
}
