package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	levelSort    = []domain.SortField{domain.Desc(domain.SortAccessCount)}
	focusSort    = []domain.SortField{domain.Desc(domain.SortHasAcceptedAnswer), domain.Desc(domain.SortUpvotes)}
	defaultQSort = []domain.SortField{domain.Desc(domain.SortUpvotes)}
)

func beginnerProfile() *domain.UserProfile {
	return &domain.UserProfile{
		UserID:           "u1",
		FocusAreas:       []string{"coding"},
		PreparationLevel: domain.PreparationBeginner,
	}
}

func defaultMaterialCriteria() domain.Criteria {
	return domain.Criteria{Difficulty: string(domain.PreparationBeginner)}
}

func defaultQuestionCriteria() domain.Criteria {
	return domain.Criteria{HasAcceptedAnswer: domain.BoolPtr(true), MinUpvotes: 5}
}

func TestRecommendationService_BeginnerMaterialsRankFirst(t *testing.T) {
	catalog := ranking.DefaultCatalog()
	stores, q, _, m, _, _ := emptyStores()
	profiles := new(MockProfileStore)
	profiles.On("GetProfile", mock.Anything, "u1").Return(beginnerProfile(), nil)

	m1 := domain.Material{ID: "m1", Name: "Arrays 101", Category: "data-structures", Difficulty: "beginner", AccessCount: 40}
	m2 := domain.Material{ID: "m2", Name: "Intro to recursion", Category: "algorithms", Difficulty: "beginner", AccessCount: 10}
	m3 := domain.Material{ID: "m3", Name: "Resume tips", Category: "career", Difficulty: "beginner", AccessCount: 5}

	m.On("FindByFieldCriteria", mock.Anything, domain.Criteria{
		Difficulty: "beginner",
		Categories: catalog.PreparationCategories,
	}, levelSort, 3).Return([]domain.Material{m1, m2}, nil)
	m.On("FindByFieldCriteria", mock.Anything, defaultMaterialCriteria(), levelSort, 5).
		Return([]domain.Material{m1, m2, m3}, nil)

	q.On("FindByFieldCriteria", mock.Anything, domain.Criteria{
		TagsAny:         []string{"coding"},
		ExcludeAuthorID: "u1",
	}, focusSort, 2).Return([]domain.Question{
		{ID: "q1", Title: "Two pointers", Tags: []string{"coding"}, Upvotes: 4},
	}, nil)
	q.On("FindByFieldCriteria", mock.Anything, defaultQuestionCriteria(), defaultQSort, 5).
		Return([]domain.Question{{ID: "q9", Title: "LRU cache", HasAcceptedAnswer: true, Upvotes: 7}}, nil)

	svc := NewRecommendationService(stores, profiles, catalog, nil, nil)
	items := svc.Recommend(context.Background(), "u1", 5)

	require.Len(t, items, 5)
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	assert.Equal(t, []string{"m1", "m2", "q1", "q9", "m3"}, ids)

	assert.Equal(t, 140.0, items[0].Score)
	assert.Equal(t, 110.0, items[1].Score)
	assert.Equal(t, 94.0, items[2].Score)
	assert.Equal(t, "Matches your focus areas", items[2].Reason)
	assert.Equal(t, 82.0, items[3].Score)
	assert.Equal(t, 80.0, items[4].Score)
	assert.Contains(t, items[0].Reason, "beginner")
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Score, items[i].Score)
	}
	for _, item := range items {
		assert.Nil(t, item.Metadata["fallback"])
	}
}

func TestRecommendationService_TargetCompanies(t *testing.T) {
	stores, q, _, m, c, _ := emptyStores()
	profiles := new(MockProfileStore)
	profiles.On("GetProfile", mock.Anything, "u2").Return(&domain.UserProfile{
		UserID:           "u2",
		TargetCompanies:  []string{"Acme"},
		PreparationLevel: domain.PreparationAdvanced,
	}, nil)

	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Material{}, nil)
	q.On("FindByFieldCriteria", mock.Anything, mock.MatchedBy(func(c domain.Criteria) bool {
		return len(c.TagsAny) > 0
	}), focusSort, 2).Return([]domain.Question{
		{ID: "own", AuthorID: "u2", Tags: []string{"acme"}, Upvotes: 50},
		{ID: "q2", AuthorID: "someone", Tags: []string{"acme"}, Upvotes: 1, HasAcceptedAnswer: true},
	}, nil)
	q.On("FindByFieldCriteria", mock.Anything, defaultQuestionCriteria(), defaultQSort, 3).Return([]domain.Question{}, nil)
	c.On("FindByFieldCriteria", mock.Anything, domain.Criteria{NamesIn: []string{"Acme"}}, []domain.SortField(nil), 2).
		Return([]domain.Company{{ID: "c1", Name: "Acme"}}, nil)

	svc := NewRecommendationService(stores, profiles, nil, nil, nil)
	items := svc.Recommend(context.Background(), "u2", 3)

	require.Len(t, items, 2)
	assert.Equal(t, "c1", items[0].ID)
	assert.Equal(t, 95.0, items[0].Score)
	assert.Equal(t, "One of your target companies", items[0].Reason)
	assert.Equal(t, "q2", items[1].ID, "own questions are excluded")
	assert.Equal(t, 91.0, items[1].Score)
}

func TestRecommendationService_AnonymousUsesDefaults(t *testing.T) {
	stores, q, _, m, _, _ := emptyStores()
	m.On("FindByFieldCriteria", mock.Anything, defaultMaterialCriteria(), levelSort, 10).
		Return([]domain.Material{{ID: "m1", Difficulty: "beginner", AccessCount: 3}}, nil)
	q.On("FindByFieldCriteria", mock.Anything, defaultQuestionCriteria(), defaultQSort, 10).
		Return([]domain.Question{
			{ID: "q1", HasAcceptedAnswer: true, Upvotes: 12},
			{ID: "q2", HasAcceptedAnswer: false, Upvotes: 30},
		}, nil)

	profiles := new(MockProfileStore)
	svc := NewRecommendationService(stores, profiles, nil, nil, nil)
	items := svc.Recommend(context.Background(), "", 0)

	require.Len(t, items, 2)
	assert.Equal(t, "q1", items[0].ID)
	assert.Equal(t, 87.0, items[0].Score)
	assert.Equal(t, "m1", items[1].ID)
	assert.Equal(t, 80.0, items[1].Score)
	profiles.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestRecommendationService_MissingProfileFallsBackToDefaults(t *testing.T) {
	stores, q, _, m, _, _ := emptyStores()
	m.On("FindByFieldCriteria", mock.Anything, defaultMaterialCriteria(), levelSort, 4).
		Return([]domain.Material{{ID: "m1", AccessCount: 3}}, nil)
	q.On("FindByFieldCriteria", mock.Anything, defaultQuestionCriteria(), defaultQSort, 4).
		Return([]domain.Question{}, nil)

	profiles := new(MockProfileStore)
	profiles.On("GetProfile", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

	svc := NewRecommendationService(stores, profiles, nil, nil, nil)
	items := svc.Recommend(context.Background(), "ghost", 4)

	require.Len(t, items, 1)
	assert.Equal(t, "m1", items[0].ID)
}

func TestRecommendationService_TotalFailureServesFallback(t *testing.T) {
	stores, q, _, m, c, _ := emptyStores()
	storeErr := errors.New("connection refused")
	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)
	q.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)
	c.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)

	profiles := new(MockProfileStore)
	profiles.On("GetProfile", mock.Anything, "u1").Return(nil, storeErr)

	metrics := NewMetrics()
	svc := NewRecommendationService(stores, profiles, nil, metrics, nil)
	items := svc.Recommend(context.Background(), "u1", 10)

	require.Len(t, items, 2)
	assert.Equal(t, ranking.DefaultCatalog().RecommendationFallback(), items)
	assert.Equal(t, 1.0, counterVecValue(t, metrics.fallbacks, FeedRecommendations))
}

func TestRecommendationService_EmptyStoresServeFallback(t *testing.T) {
	stores, q, _, m, _, _ := emptyStores()
	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Material{}, nil)
	q.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Question{}, nil)

	svc := NewRecommendationService(stores, nil, nil, nil, nil)
	items := svc.Recommend(context.Background(), "", 1)

	require.Len(t, items, 1, "fallback is truncated to the requested limit")
	assert.Equal(t, true, items[0].Metadata["fallback"])
}

func TestRecommendationService_LimitStopsEarlyTiers(t *testing.T) {
	catalog := ranking.DefaultCatalog()
	stores, q, _, m, _, _ := emptyStores()
	profiles := new(MockProfileStore)
	profiles.On("GetProfile", mock.Anything, "u1").Return(beginnerProfile(), nil)

	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, levelSort, 3).Return([]domain.Material{
		{ID: "m1", AccessCount: 9},
		{ID: "m2", AccessCount: 8},
		{ID: "m3", AccessCount: 7},
	}, nil)

	svc := NewRecommendationService(stores, profiles, catalog, nil, nil)
	items := svc.Recommend(context.Background(), "u1", 2)

	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].ID)
	assert.Equal(t, "m2", items[1].ID)
	q.AssertNotCalled(t, "FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
