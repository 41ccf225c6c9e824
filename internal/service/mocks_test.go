package service

import (
	"context"
	"sync"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of CollectionStore
type MockStore[T domain.Record] struct {
	mock.Mock
}

func (m *MockStore[T]) FindByTextAndFilters(ctx context.Context, terms []string, filters domain.SearchFilters, limit int) ([]T, error) {
	args := m.Called(ctx, terms, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockStore[T]) FindByFieldCriteria(ctx context.Context, criteria domain.Criteria, sort []domain.SortField, limit int) ([]T, error) {
	args := m.Called(ctx, criteria, sort, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockStore[T]) CountMatching(ctx context.Context, criteria domain.Criteria) (int, error) {
	args := m.Called(ctx, criteria)
	return args.Int(0), args.Error(1)
}

// MockProfileStore is a mock implementation of ProfileStore
type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

// MockSearchSink is a mock implementation of SearchSink
type MockSearchSink struct {
	mock.Mock
	name string
}

func (m *MockSearchSink) Name() string {
	return m.name
}

func (m *MockSearchSink) RecordSearch(ctx context.Context, search TrackedSearch) error {
	args := m.Called(ctx, search)
	return args.Error(0)
}

// MockHistoryReader is a mock implementation of SearchHistoryReader
type MockHistoryReader struct {
	mock.Mock
}

func (m *MockHistoryReader) RecentSearches(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]HistoryEntry), args.Error(1)
}

// MockFeedbackRecorder is a mock implementation of SearchFeedbackRecorder
type MockFeedbackRecorder struct {
	mock.Mock
}

func (m *MockFeedbackRecorder) RecordSearchSelection(ctx context.Context, searchID, selectedID string, kind domain.ItemKind) error {
	args := m.Called(ctx, searchID, selectedID, kind)
	return args.Error(0)
}

// recordingTracker captures tracked searches synchronously.
type recordingTracker struct {
	mu       sync.Mutex
	searches []TrackedSearch
}

func (r *recordingTracker) TrackSearch(_ context.Context, search TrackedSearch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, search)
}

func (r *recordingTracker) tracked() []TrackedSearch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TrackedSearch(nil), r.searches...)
}

// emptyStores returns stores that match nothing for any call.
func emptyStores() (Stores, *MockStore[domain.Question], *MockStore[domain.Experience], *MockStore[domain.Material], *MockStore[domain.Company], *MockStore[domain.User]) {
	q := new(MockStore[domain.Question])
	e := new(MockStore[domain.Experience])
	m := new(MockStore[domain.Material])
	c := new(MockStore[domain.Company])
	u := new(MockStore[domain.User])
	return Stores{Questions: q, Experiences: e, Materials: m, Companies: c, Users: u}, q, e, m, c, u
}
