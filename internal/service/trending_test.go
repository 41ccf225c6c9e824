package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var trendingNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestTrendingService(stores Stores, metrics *Metrics) *TrendingService {
	svc := NewTrendingService(stores, ranking.DefaultCatalog(), metrics, nil)
	svc.now = func() time.Time { return trendingNow }
	return svc
}

func isHotCriteria(c domain.Criteria) bool {
	return c.EngagementAny != nil
}

func isBackfillCriteria(c domain.Criteria) bool {
	return c.EngagementAny == nil
}

func TestTrendingService_TiersAndBackfill(t *testing.T) {
	stores, q, e, m, _, _ := emptyStores()
	day := domain.Last24h(trendingNow)
	week := domain.Last7d(trendingNow)

	hot := domain.Question{ID: "q1", Title: "Hot one", Views: 100, Upvotes: 2, AnswerCount: 1, CreatedAt: trendingNow.Add(-time.Hour)}
	q.On("FindByFieldCriteria", mock.Anything, domain.Criteria{
		CreatedWithin: &day,
		EngagementAny: &domain.EngagementThreshold{MinViews: 50, MinUpvotes: 3, MinAnswers: 2},
	}, []domain.SortField{
		domain.Desc(domain.SortViews),
		domain.Desc(domain.SortUpvotes),
		domain.Desc(domain.SortCreatedAt),
	}, 3).Return([]domain.Question{hot}, nil)

	q.On("FindByFieldCriteria", mock.Anything, domain.Criteria{CreatedWithin: &week}, []domain.SortField{
		domain.Desc(domain.SortUpvotes),
		domain.Desc(domain.SortViews),
	}, 8).Return([]domain.Question{
		hot,
		{ID: "q2", Views: 10, Upvotes: 3},
		{ID: "q3", Views: 5},
		{ID: "q4", Views: 1},
	}, nil)

	e.On("FindByFieldCriteria", mock.Anything, domain.Criteria{CreatedWithin: &week, MinUpvotes: 2},
		[]domain.SortField{domain.Desc(domain.SortUpvotes)}, 2).
		Return([]domain.Experience{{ID: "e1", Upvotes: 4}}, nil)

	m.On("FindByFieldCriteria", mock.Anything, domain.Criteria{MinAccessCount: 10},
		[]domain.SortField{domain.Desc(domain.SortAccessCount)}, 2).
		Return([]domain.Material{{ID: "m1", AccessCount: 20}}, nil)

	metrics := NewMetrics()
	items := newTestTrendingService(stores, metrics).Trending(context.Background())

	require.Len(t, items, 5)
	type row struct {
		id    string
		score float64
		trend domain.TrendTag
	}
	var got []row
	for _, item := range items {
		got = append(got, row{item.ID, item.Score, item.Trend})
	}
	assert.Equal(t, []row{
		{"q1", 150, domain.TrendHot},
		{"e1", 150, domain.TrendRising},
		{"m1", 50, domain.TrendPopular},
		{"q2", 40, domain.TrendRecent},
		{"q3", 5, domain.TrendRecent},
	}, got)
	assert.Equal(t, 5.0, gaugeValue(t, metrics.trendingItems))
}

func TestTrendingService_TruncatesToSix(t *testing.T) {
	stores, q, e, m, _, _ := emptyStores()
	q.On("FindByFieldCriteria", mock.Anything, mock.MatchedBy(isHotCriteria), mock.Anything, 3).
		Return([]domain.Question{{ID: "q1", Views: 60}, {ID: "q2", Views: 55}, {ID: "q3", Views: 51}}, nil)
	e.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, 2).
		Return([]domain.Experience{{ID: "e1", Upvotes: 3}, {ID: "e2", Upvotes: 2}}, nil)
	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, 2).
		Return([]domain.Material{{ID: "m1", AccessCount: 500}, {ID: "m2", AccessCount: 12}}, nil)

	items := newTestTrendingService(stores, nil).Trending(context.Background())

	require.Len(t, items, 6)
	assert.Equal(t, "m1", items[0].ID)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Score, items[i].Score)
	}
	q.AssertNotCalled(t, "FindByFieldCriteria", mock.Anything, mock.MatchedBy(isBackfillCriteria), mock.Anything, mock.Anything)
}

func TestTrendingService_NothingEligibleServesFallback(t *testing.T) {
	stores, q, e, m, _, _ := emptyStores()
	q.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Question{}, nil)
	e.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Experience{}, nil)
	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Material{}, nil)

	metrics := NewMetrics()
	items := newTestTrendingService(stores, metrics).Trending(context.Background())

	require.Len(t, items, 2)
	assert.Equal(t, ranking.DefaultCatalog().TrendingFallback(), items)
	assert.Equal(t, 1.0, counterVecValue(t, metrics.fallbacks, FeedTrending))
}

func TestTrendingService_TotalFailureServesFallback(t *testing.T) {
	stores, q, e, m, _, _ := emptyStores()
	storeErr := errors.New("timeout")
	q.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)
	e.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)
	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, storeErr)

	metrics := NewMetrics()
	items := newTestTrendingService(stores, metrics).Trending(context.Background())

	require.Len(t, items, 2)
	assert.NotEmpty(t, items[0].Trend)
	assert.Equal(t, 2.0, counterVecValue(t, metrics.collectionFailures, "question", "trending"))
}

func TestTrendingService_PartialFailureKeepsLiveItems(t *testing.T) {
	stores, q, e, m, _, _ := emptyStores()
	q.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	e.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.Experience{{ID: "e1", Upvotes: 2}}, nil)
	m.On("FindByFieldCriteria", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Material{}, nil)

	items := newTestTrendingService(stores, nil).Trending(context.Background())

	require.Len(t, items, 1)
	assert.Equal(t, "e1", items[0].ID)
	assert.Equal(t, 100.0, items[0].Score)
	assert.Equal(t, "/experiences/e1", items[0].URL)
}
