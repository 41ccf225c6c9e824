package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty", "", []string{}},
		{"whitespace", "   \t\n", []string{}},
		{"short tokens dropped", "js go c", []string{}},
		{"lower-cased and ordered", "React  Hooks in JS", []string{"react", "hooks"}},
		{"duplicates kept", "graph graph", []string{"graph", "graph"}},
		{"multibyte counted by rune", "äöü ab", []string{"äöü"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.query))
		})
	}
}

func newTestSearchService(stores Stores, tracker SearchTracker, metrics *Metrics) *SearchService {
	catalog := ranking.DefaultCatalog()
	cfg := DefaultSearchServiceConfig()
	cfg.CollectionTimeout = 500 * time.Millisecond
	return NewSearchService(NewCollectionSearchers(stores, catalog), catalog, tracker, metrics, slog.Default(), cfg)
}

func expectText[T domain.Record](store *MockStore[T], records []T, err error) {
	store.On("FindByTextAndFilters", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(records, err)
	store.On("CountMatching", mock.Anything, mock.Anything).Return(len(records), nil).Maybe()
}

func closuresQuestion() domain.Question {
	return domain.Question{
		ID:        "q1",
		Title:     "Explain closures in JavaScript",
		Content:   "What is a closure and when would you use one?",
		Tags:      []string{"javascript", "closures"},
		Upvotes:   3,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestSearchService_ClosuresQuestionFoundWithSuggestion(t *testing.T) {
	stores, q, e, m, c, u := emptyStores()
	expectText(q, []domain.Question{closuresQuestion()}, nil)
	expectText(e, []domain.Experience{}, nil)
	expectText(m, []domain.Material{}, nil)
	expectText(c, []domain.Company{}, nil)
	expectText(u, []domain.User{}, nil)

	tracker := &recordingTracker{}
	svc := newTestSearchService(stores, tracker, nil)

	out, err := svc.Search(context.Background(), SearchInput{Query: "javascript"})
	require.NoError(t, err)

	require.Len(t, out.Results, 1)
	assert.Equal(t, "q1", out.Results[0].ID)
	assert.Greater(t, out.Results[0].Score, 0.0)
	assert.Equal(t, 1, out.Total)
	assert.Contains(t, out.Suggestions, "javascript")
	assert.Equal(t, 1, out.KindCounts[domain.ItemKindQuestion])
	assert.NotEmpty(t, out.SearchID)

	q.AssertCalled(t, "FindByTextAndFilters", mock.Anything, []string{"javascript"}, domain.SearchFilters{}, 50)
	c.AssertCalled(t, "FindByTextAndFilters", mock.Anything, []string{"javascript"}, domain.SearchFilters{}, 20)

	tracked := tracker.tracked()
	require.Len(t, tracked, 1)
	assert.Equal(t, out.SearchID, tracked[0].ID)
	assert.Equal(t, "javascript", tracked[0].Query)
	assert.Equal(t, 1, tracked[0].Total)
}

func TestSearchService_FailingCollectionDegrades(t *testing.T) {
	stores, q, e, m, c, u := emptyStores()
	expectText(q, []domain.Question{{ID: "q1", Title: "React hooks explained", Tags: []string{"react"}}}, nil)
	expectText(e, []domain.Experience{{ID: "e1", Title: "Frontend onsite", Content: "Lots of React questions"}}, nil)
	expectText(m, nil, errors.New("connection refused"))
	expectText(c, []domain.Company{{ID: "c1", Name: "Reactive Inc", Description: "We build react tooling"}}, nil)
	expectText(u, []domain.User{}, nil)

	metrics := NewMetrics()
	svc := newTestSearchService(stores, nil, metrics)

	out, err := svc.Search(context.Background(), SearchInput{Query: "react"})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Total)
	assert.Len(t, out.Results, 3)
	for _, item := range out.Results {
		assert.NotEqual(t, domain.ItemKindMaterial, item.Kind)
	}
	_, hasMaterials := out.KindCounts[domain.ItemKindMaterial]
	assert.False(t, hasMaterials)
	assert.Equal(t, 1.0, counterVecValue(t, metrics.collectionFailures, "material", "search"))
}

func TestSearchService_SlowCollectionTimesOut(t *testing.T) {
	stores, q, e, m, c, u := emptyStores()
	expectText(q, []domain.Question{closuresQuestion()}, nil)
	e.On("FindByTextAndFilters", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)
	expectText(m, []domain.Material{}, nil)
	expectText(c, []domain.Company{}, nil)
	expectText(u, []domain.User{}, nil)

	catalog := ranking.DefaultCatalog()
	cfg := DefaultSearchServiceConfig()
	cfg.CollectionTimeout = 20 * time.Millisecond
	svc := NewSearchService(NewCollectionSearchers(stores, catalog), catalog, nil, nil, nil, cfg)

	out, err := svc.Search(context.Background(), SearchInput{Query: "closures"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
}

func TestSearchService_CallerCancellation(t *testing.T) {
	stores, q, e, m, c, u := emptyStores()
	for _, store := range []*mock.Mock{&q.Mock, &e.Mock, &m.Mock, &c.Mock, &u.Mock} {
		store.On("FindByTextAndFilters", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, context.Canceled).Maybe()
	}

	tracker := &recordingTracker{}
	svc := newTestSearchService(stores, tracker, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := svc.Search(ctx, SearchInput{Query: "anything"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Empty(t, tracker.tracked())
}

func TestSearchService_InvalidFilterRejectedBeforeFanOut(t *testing.T) {
	stores, q, _, _, _, _ := emptyStores()
	svc := newTestSearchService(stores, nil, nil)

	_, err := svc.Search(context.Background(), SearchInput{
		Query:   "graphs",
		Filters: domain.SearchFilters{Difficulties: []string{"impossible"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	q.AssertNotCalled(t, "FindByTextAndFilters", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchService_OffsetPastEnd(t *testing.T) {
	questions := make([]domain.Question, 5)
	for i := range questions {
		questions[i] = domain.Question{ID: string(rune('a' + i)), Title: "binary search trees"}
	}

	stores, q, e, m, c, u := emptyStores()
	expectText(q, questions, nil)
	expectText(e, []domain.Experience{}, nil)
	expectText(m, []domain.Material{}, nil)
	expectText(c, []domain.Company{}, nil)
	expectText(u, []domain.User{}, nil)

	svc := newTestSearchService(stores, nil, nil)

	out, err := svc.Search(context.Background(), SearchInput{Query: "binary", Offset: 1000})
	require.NoError(t, err)
	assert.Equal(t, []domain.SearchableItem{}, out.Results)
	assert.Equal(t, 5, out.Total)
}

func TestSearchService_ShortTokensBehaveLikeEmptyQuery(t *testing.T) {
	material := domain.Material{ID: "m1", Name: "JS crash course", Tags: []string{"javascript"}, Difficulty: "beginner"}
	filters := domain.SearchFilters{Kinds: []domain.ItemKind{domain.ItemKindMaterial}, Tags: []string{"javascript"}}

	run := func(query string) *SearchOutput {
		m := new(MockStore[domain.Material])
		expectText(m, []domain.Material{material}, nil)
		catalog := ranking.DefaultCatalog()
		svc := NewSearchService(NewCollectionSearchers(Stores{Materials: m}, catalog), catalog, nil, nil, nil, DefaultSearchServiceConfig())

		out, err := svc.Search(context.Background(), SearchInput{Query: query, Filters: filters})
		require.NoError(t, err)
		m.AssertCalled(t, "FindByTextAndFilters", mock.Anything, []string{}, filters, 50)
		return out
	}

	short := run("js")
	empty := run("")

	assert.Equal(t, empty.Results, short.Results)
	assert.Equal(t, empty.Total, short.Total)
	require.Len(t, short.Results, 1)
	assert.Equal(t, 0.0, short.Results[0].Score)
}

func TestSearchService_KindsFilterSelectsCollections(t *testing.T) {
	stores, q, _, m, _, _ := emptyStores()
	expectText(m, []domain.Material{{ID: "m1", Name: "Dynamic programming patterns"}}, nil)

	svc := newTestSearchService(stores, nil, nil)

	out, err := svc.Search(context.Background(), SearchInput{
		Query:   "dynamic",
		Filters: domain.SearchFilters{Kinds: []domain.ItemKind{domain.ItemKindMaterial}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Total)
	q.AssertNotCalled(t, "FindByTextAndFilters", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchService_OrderingProperties(t *testing.T) {
	stores, q, e, m, c, u := emptyStores()
	expectText(q, []domain.Question{
		{ID: "q1", Title: "graph basics"},
		{ID: "q2", Title: "graph graph graph traversal"},
		{ID: "q3", Title: "unrelated"},
	}, nil)
	expectText(e, []domain.Experience{{ID: "e1", Title: "graph heavy onsite", Content: "graph"}}, nil)
	expectText(m, []domain.Material{{ID: "m1", Name: "graph theory", Category: "graph"}}, nil)
	expectText(c, []domain.Company{}, nil)
	expectText(u, []domain.User{}, nil)

	svc := newTestSearchService(stores, nil, nil)
	input := SearchInput{Query: "graph", Limit: 3}

	first, err := svc.Search(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, 4, first.Total, "zero-score item is dropped")
	assert.LessOrEqual(t, len(first.Results), 3)
	assert.GreaterOrEqual(t, first.Total, len(first.Results))
	for i, item := range first.Results {
		assert.Greater(t, item.Score, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, first.Results[i-1].Score, item.Score)
		}
	}
	assert.Equal(t, "q2", first.Results[0].ID)

	// e1 and m1 tie; collection order puts the experience first.
	assert.Equal(t, "e1", first.Results[1].ID)
	assert.Equal(t, "m1", first.Results[2].ID)

	ids := func(out *SearchOutput) []string {
		var out2 []string
		for _, item := range out.Results {
			out2 = append(out2, item.ID)
		}
		return out2
	}
	assert.Equal(t, ids(first), ids(second))
}

func TestAggregate(t *testing.T) {
	candidates := map[domain.ItemKind][]domain.SearchableItem{
		domain.ItemKindCompany:  {{ID: "c1", Kind: domain.ItemKindCompany, Score: 1}},
		domain.ItemKindQuestion: {{ID: "q1", Kind: domain.ItemKindQuestion, Score: 1}, {ID: "q2", Kind: domain.ItemKindQuestion, Score: 2}},
		domain.ItemKindMaterial: {{ID: "m1", Kind: domain.ItemKindMaterial, Score: 0}},
	}

	ranked := Aggregate(candidates)
	require.Len(t, ranked, 4)
	assert.Equal(t, []string{"q2", "q1", "c1", "m1"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID, ranked[3].ID})

	assert.Equal(t, []domain.SearchableItem{}, Paginate(ranked, 20, 4))
	assert.Len(t, Paginate(ranked, 2, 1), 2)
	assert.Empty(t, Aggregate(nil))
}

func TestBuildSuggestions(t *testing.T) {
	ranked := []domain.SearchableItem{
		{ID: "1", Metadata: map[string]any{"tags": []string{"JavaScript", "closures"}}},
		{ID: "2", Metadata: map[string]any{"tags": []string{"java"}}},
		{ID: "3"},
	}
	popular := []string{"javascript", "python", "javascript testing"}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"blank query", "  ", 5, []string{}},
		{"tags both directions and popular terms", "javascript", 5, []string{"javascript", "java", "javascript testing"}},
		{"cap applies", "javascript", 2, []string{"javascript", "java"}},
		{"no match", "haskell", 5, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSuggestions(tt.query, ranked, popular, 10, tt.limit))
		})
	}
}
