//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedTime = time.Date(2026, 5, 30, 12, 0, 0, 0, time.UTC)

func seedCollections(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	statements := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO questions (id, title, content, tags, difficulty, company, author_id, upvotes, views, answer_count, has_accepted_answer, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			[]any{"q1", "Explain JavaScript closures", "Scope and lexical environments", []string{"javascript"}, "beginner", "Acme", "u1", 10, 120, 3, true, seedTime}},
		{`INSERT INTO questions (id, title, content, tags, difficulty, company, author_id, upvotes, views, answer_count, has_accepted_answer, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			[]any{"q2", "Design a rate limiter", "Token bucket and 100% burst", []string{"System-Design"}, "advanced", "Globex", nil, 4, 30, 1, false, seedTime.Add(-48 * time.Hour)}},
		{`INSERT INTO experiences (id, title, content, company, role, tags, outcome, difficulty, author_id, upvotes, views, comment_count, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			[]any{"e1", "Onsite at Acme", "Closures came up twice", "Acme", "backend", []string{"javascript"}, "offer", "intermediate", "u2", 6, 40, 2, seedTime}},
		{`INSERT INTO materials (id, name, description, category, tags, difficulty, access_count, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			[]any{"m1", "Arrays 101", "Intro to arrays", "data-structures", []string{"arrays"}, "beginner", 40, seedTime}},
		{`INSERT INTO materials (id, name, description, category, tags, difficulty, access_count, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			[]any{"m2", "Resume tips", "Career advice", "career", []string{}, "beginner", 90, seedTime}},
		{`INSERT INTO companies (id, name, description, industry, location, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{"c1", "Acme", "Rockets and anvils", "manufacturing", "Remote", seedTime}},
		{`INSERT INTO users (id, name, username, bio, focus_areas, target_companies, preparation_level, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			[]any{"u1", "Ada", "ada", "Loves javascript", []string{"javascript"}, []string{"Acme"}, "beginner", seedTime}},
	}
	for _, st := range statements {
		_, err := pool.Exec(ctx, st.sql, st.args...)
		require.NoError(t, err)
	}
}

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	seedCollections(ctx, t, pool)
	return pool
}

func TestCollectionRepository_FindByTextAndFilters(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)

	questions := NewQuestionRepository(pool)

	found, err := questions.FindByTextAndFilters(ctx, []string{"closures"}, domain.SearchFilters{}, 50)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "q1", found[0].ID)
	assert.Equal(t, "u1", found[0].AuthorID)
	assert.Equal(t, []string{"javascript"}, found[0].Tags)

	found, err = questions.FindByTextAndFilters(ctx, []string{"100%"}, domain.SearchFilters{}, 50)
	require.NoError(t, err)
	require.Len(t, found, 1, "LIKE metacharacters match literally")
	assert.Equal(t, "q2", found[0].ID)
	assert.Empty(t, found[0].AuthorID)

	found, err = questions.FindByTextAndFilters(ctx, nil, domain.SearchFilters{Tags: []string{"system-design"}}, 50)
	require.NoError(t, err)
	require.Len(t, found, 1, "tag filter is case-insensitive")
	assert.Equal(t, "q2", found[0].ID)

	found, err = questions.FindByTextAndFilters(ctx, nil, domain.SearchFilters{}, 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "q1", found[0].ID, "newest first")

	companies := NewCompanyRepository(pool)
	cs, err := companies.FindByTextAndFilters(ctx, nil, domain.SearchFilters{
		Companies: []string{"acme"},
		Tags:      []string{"ignored"},
	}, 20)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Acme", cs[0].Name)
}

func TestCollectionRepository_FindByFieldCriteria(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)

	materials := NewMaterialRepository(pool)
	ms, err := materials.FindByFieldCriteria(ctx, domain.Criteria{
		Difficulty: "beginner",
		Categories: []string{"data-structures", "algorithms"},
	}, []domain.SortField{domain.Desc(domain.SortAccessCount)}, 3)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "m1", ms[0].ID)

	ms, err = materials.FindByFieldCriteria(ctx, domain.Criteria{MinAccessCount: 10},
		[]domain.SortField{domain.Desc(domain.SortAccessCount)}, 0)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "m2", ms[0].ID)

	questions := NewQuestionRepository(pool)
	qs, err := questions.FindByFieldCriteria(ctx, domain.Criteria{
		TagsAny:         []string{"javascript", "system-design"},
		ExcludeAuthorID: "u1",
	}, []domain.SortField{domain.Desc(domain.SortHasAcceptedAnswer), domain.Desc(domain.SortUpvotes)}, 2)
	require.NoError(t, err)
	require.Len(t, qs, 1, "authorless rows survive the author exclusion")
	assert.Equal(t, "q2", qs[0].ID)

	window := domain.Last24h(seedTime.Add(time.Hour))
	qs, err = questions.FindByFieldCriteria(ctx, domain.Criteria{
		CreatedWithin: &window,
		EngagementAny: &domain.EngagementThreshold{MinViews: 50, MinUpvotes: 3, MinAnswers: 2},
	}, []domain.SortField{domain.Desc(domain.SortViews)}, 3)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, "q1", qs[0].ID)

	companies := NewCompanyRepository(pool)
	cs, err := companies.FindByFieldCriteria(ctx, domain.Criteria{NamesIn: []string{"ACME"}}, nil, 2)
	require.NoError(t, err)
	require.Len(t, cs, 1)

	_, err = materials.FindByFieldCriteria(ctx, domain.Criteria{}, []domain.SortField{domain.Desc(domain.SortUpvotes)}, 1)
	assert.Error(t, err)
}

func TestCollectionRepository_CountMatching(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)

	stores := NewStores(pool)
	count, err := stores.Questions.CountMatching(ctx, domain.CriteriaForSearch(nil, domain.SearchFilters{}))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = stores.Experiences.CountMatching(ctx, domain.CriteriaForSearch([]string{"closures"}, domain.SearchFilters{
		Companies: []string{"acme"},
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	users, err := stores.Users.FindByTextAndFilters(ctx, []string{"ada"}, domain.SearchFilters{Difficulties: []string{"beginner"}}, 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.PreparationBeginner, users[0].PreparationLevel)
}

func TestProfileRepository_GetProfile(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewProfileRepository(pool)

	profile, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript"}, profile.FocusAreas)
	assert.Equal(t, []string{"Acme"}, profile.TargetCompanies)
	assert.Equal(t, domain.PreparationBeginner, profile.PreparationLevel)

	_, err = repo.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
