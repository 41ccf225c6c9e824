package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/cloo-solutions/prepwise/internal/telemetry"
)

// Recommendation reasons.
const (
	reasonFocusAreas      = "Matches your focus areas"
	reasonTargetCompany   = "One of your target companies"
	reasonPopularBeginner = "Popular with people getting started"
	reasonPopularAnswered = "Popular question with an accepted answer"
)

// RecommendationService builds personalized recommendation lists.
type RecommendationService struct {
	stores   Stores
	profiles ProfileStore
	catalog  *ranking.Catalog
	metrics  *Metrics
	logger   *slog.Logger
}

// NewRecommendationService creates a new RecommendationService.
func NewRecommendationService(stores Stores, profiles ProfileStore, catalog *ranking.Catalog, metrics *Metrics, logger *slog.Logger) *RecommendationService {
	if catalog == nil {
		catalog = ranking.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationService{
		stores:   stores,
		profiles: profiles,
		catalog:  catalog,
		metrics:  metrics,
		logger:   logger,
	}
}

// Recommend returns up to limit items ranked from the user's profile. It never
// fails: store errors shrink individual tiers, and an empty or wholly failed
// computation yields the catalog fallback list.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, limit int) []domain.RecommendationItem {
	ctx, span := telemetry.StartSpan(ctx, "RecommendationService.Recommend", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "recommend",
	})
	defer span.End()

	w := s.catalog.Weights.Recommend
	if limit <= 0 {
		limit = w.DefaultLimit
	}
	if limit > w.MaxLimit {
		limit = w.MaxLimit
	}

	s.metrics.incRecommendations()

	profile := s.loadProfile(ctx, userID)
	b := &recommendationBuilder{limit: limit, seen: make(map[string]struct{})}

	if profile != nil {
		s.levelMaterials(ctx, b, profile)
		s.focusQuestions(ctx, b, profile)
		s.targetCompanies(ctx, b, profile)
	}
	if !b.full() {
		s.defaultFill(ctx, b)
	}

	if len(b.items) == 0 || b.totalFailure() {
		s.metrics.incFallback(FeedRecommendations)
		telemetry.AddBreadcrumb(ctx, "recommend", "serving fallback recommendations")
		fallback := s.catalog.RecommendationFallback()
		if len(fallback) > limit {
			fallback = fallback[:limit]
		}
		return fallback
	}

	slices.SortStableFunc(b.items, func(a, c domain.RecommendationItem) int {
		return cmp.Compare(c.Score, a.Score)
	})
	if len(b.items) > limit {
		b.items = b.items[:limit]
	}
	return b.items
}

func (s *RecommendationService) loadProfile(ctx context.Context, userID string) *domain.UserProfile {
	if userID == "" || s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.WarnContext(ctx, "failed to load user profile",
				"user_id", userID,
				"error", err)
		}
		return nil
	}
	return profile
}

// levelMaterials recommends materials at the user's preparation level.
func (s *RecommendationService) levelMaterials(ctx context.Context, b *recommendationBuilder, profile *domain.UserProfile) {
	w := s.catalog.Weights.Recommend
	if s.stores.Materials == nil || !profile.PreparationLevel.IsValid() || b.full() {
		return
	}

	materials, err := s.stores.Materials.FindByFieldCriteria(ctx, domain.Criteria{
		Difficulty: string(profile.PreparationLevel),
		Categories: s.catalog.PreparationCategories,
	}, []domain.SortField{domain.Desc(domain.SortAccessCount)}, w.LevelMaterialCap)
	if b.record(err) {
		s.tierFailed(ctx, domain.ItemKindMaterial, "level_materials", err)
		return
	}

	reason := fmt.Sprintf("Matches your %s preparation level", profile.PreparationLevel)
	for _, m := range capped(materials, w.LevelMaterialCap) {
		if !b.add(m.Project(), w.LevelMaterialBase+float64(m.AccessCount), reason) {
			return
		}
	}
}

// focusQuestions recommends questions tagged with the user's interests.
func (s *RecommendationService) focusQuestions(ctx context.Context, b *recommendationBuilder, profile *domain.UserProfile) {
	w := s.catalog.Weights.Recommend
	interests := profile.Interests()
	if s.stores.Questions == nil || len(interests) == 0 || b.full() {
		return
	}

	questions, err := s.stores.Questions.FindByFieldCriteria(ctx, domain.Criteria{
		TagsAny:         interests,
		ExcludeAuthorID: profile.UserID,
	}, []domain.SortField{
		domain.Desc(domain.SortHasAcceptedAnswer),
		domain.Desc(domain.SortUpvotes),
	}, w.FocusQuestionCap)
	if b.record(err) {
		s.tierFailed(ctx, domain.ItemKindQuestion, "focus_questions", err)
		return
	}

	for _, q := range capped(questions, w.FocusQuestionCap) {
		if q.AuthorID != "" && q.AuthorID == profile.UserID {
			continue
		}
		if !b.add(q.Project(), w.FocusQuestionBase+float64(q.Upvotes), reasonFocusAreas) {
			return
		}
	}
}

// targetCompanies recommends the companies the user is preparing for.
func (s *RecommendationService) targetCompanies(ctx context.Context, b *recommendationBuilder, profile *domain.UserProfile) {
	w := s.catalog.Weights.Recommend
	if s.stores.Companies == nil || len(profile.TargetCompanies) == 0 || b.full() {
		return
	}

	companies, err := s.stores.Companies.FindByFieldCriteria(ctx, domain.Criteria{
		NamesIn: profile.TargetCompanies,
	}, nil, w.TargetCompanyCap)
	if b.record(err) {
		s.tierFailed(ctx, domain.ItemKindCompany, "target_companies", err)
		return
	}

	for _, c := range capped(companies, w.TargetCompanyCap) {
		if !b.add(c.Project(), w.TargetCompanyBase, reasonTargetCompany) {
			return
		}
	}
}

type scoredRecommendation struct {
	item       domain.SearchableItem
	score      float64
	engagement int
	reason     string
}

// defaultFill tops the list up with popular beginner materials and well
// received answered questions, highest engagement first.
func (s *RecommendationService) defaultFill(ctx context.Context, b *recommendationBuilder) {
	w := s.catalog.Weights.Recommend
	var pool []scoredRecommendation

	if s.stores.Materials != nil {
		materials, err := s.stores.Materials.FindByFieldCriteria(ctx, domain.Criteria{
			Difficulty: string(domain.PreparationBeginner),
		}, []domain.SortField{domain.Desc(domain.SortAccessCount)}, b.limit)
		if b.record(err) {
			s.tierFailed(ctx, domain.ItemKindMaterial, "default_materials", err)
		}
		for _, m := range materials {
			pool = append(pool, scoredRecommendation{
				item:       m.Project(),
				score:      w.DefaultMaterialBase,
				engagement: m.AccessCount,
				reason:     reasonPopularBeginner,
			})
		}
	}

	if s.stores.Questions != nil {
		questions, err := s.stores.Questions.FindByFieldCriteria(ctx, domain.Criteria{
			HasAcceptedAnswer: domain.BoolPtr(true),
			MinUpvotes:        w.DefaultQuestionMinUpvotes,
		}, []domain.SortField{domain.Desc(domain.SortUpvotes)}, b.limit)
		if b.record(err) {
			s.tierFailed(ctx, domain.ItemKindQuestion, "default_questions", err)
		}
		for _, q := range questions {
			if !q.HasAcceptedAnswer || q.Upvotes < w.DefaultQuestionMinUpvotes {
				continue
			}
			pool = append(pool, scoredRecommendation{
				item:       q.Project(),
				score:      w.DefaultQuestionBase + float64(q.Upvotes),
				engagement: q.Upvotes,
				reason:     reasonPopularAnswered,
			})
		}
	}

	slices.SortStableFunc(pool, func(a, c scoredRecommendation) int {
		return cmp.Compare(c.engagement, a.engagement)
	})
	for _, r := range pool {
		if !b.add(r.item, r.score, r.reason) {
			return
		}
	}
}

func (s *RecommendationService) tierFailed(ctx context.Context, kind domain.ItemKind, tier string, err error) {
	s.logger.WarnContext(ctx, "recommendation tier failed",
		"tier", tier,
		"kind", kind,
		"error", err)
	s.metrics.incCollectionFailure(kind, "recommend")
	telemetry.AddBreadcrumb(ctx, "recommend", "tier "+tier+" failed")
}

// recommendationBuilder accumulates deduplicated items up to a limit and
// tracks store call outcomes.
type recommendationBuilder struct {
	limit    int
	items    []domain.RecommendationItem
	seen     map[string]struct{}
	calls    int
	failures int
}

func (b *recommendationBuilder) full() bool {
	return len(b.items) >= b.limit
}

// add appends item unless already present. It reports whether more items fit.
func (b *recommendationBuilder) add(item domain.SearchableItem, score float64, reason string) bool {
	if b.full() {
		return false
	}
	key := item.Key()
	if _, ok := b.seen[key]; !ok {
		b.seen[key] = struct{}{}
		item.Score = score
		b.items = append(b.items, domain.RecommendationItem{SearchableItem: item, Reason: reason})
	}
	return !b.full()
}

// record counts a store call and reports whether it failed.
func (b *recommendationBuilder) record(err error) bool {
	b.calls++
	if err != nil {
		b.failures++
		return true
	}
	return false
}

func (b *recommendationBuilder) totalFailure() bool {
	return b.calls > 0 && b.failures == b.calls
}

func capped[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
