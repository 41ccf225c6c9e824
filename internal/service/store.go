package service

import (
	"context"

	"github.com/cloo-solutions/prepwise/internal/domain"
)

// CollectionStore is the read-only document store interface for one collection.
type CollectionStore[T domain.Record] interface {
	FindByTextAndFilters(ctx context.Context, terms []string, filters domain.SearchFilters, limit int) ([]T, error)
	FindByFieldCriteria(ctx context.Context, criteria domain.Criteria, sort []domain.SortField, limit int) ([]T, error)
	CountMatching(ctx context.Context, criteria domain.Criteria) (int, error)
}

// Stores groups the per-collection stores.
type Stores struct {
	Questions   CollectionStore[domain.Question]
	Experiences CollectionStore[domain.Experience]
	Materials   CollectionStore[domain.Material]
	Companies   CollectionStore[domain.Company]
	Users       CollectionStore[domain.User]
}

// ProfileStore loads personalization snapshots. Missing users yield domain.ErrUserNotFound.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}
