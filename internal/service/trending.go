package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/cloo-solutions/prepwise/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// Trending reasons.
const (
	reasonHot     = "Hot in the last 24 hours"
	reasonRising  = "Rising this week"
	reasonPopular = "Popular study material"
	reasonRecent  = "Recently asked"
)

// TrendingService computes the global trending feed.
type TrendingService struct {
	stores  Stores
	catalog *ranking.Catalog
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewTrendingService creates a new TrendingService.
func NewTrendingService(stores Stores, catalog *ranking.Catalog, metrics *Metrics, logger *slog.Logger) *TrendingService {
	if catalog == nil {
		catalog = ranking.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TrendingService{
		stores:  stores,
		catalog: catalog,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Trending returns up to MaxItems trending items. It never fails: when no tier
// produces anything, or every store call fails, the catalog fallback feed is
// returned.
func (s *TrendingService) Trending(ctx context.Context) []domain.TrendingItem {
	ctx, span := telemetry.StartSpan(ctx, "TrendingService.Trending", telemetry.SpanAttributes{
		Operation: "trending",
	})
	defer span.End()

	now := s.now().UTC()
	w := s.catalog.Weights.Trending

	var calls, failures atomic.Int32
	track := func(kind domain.ItemKind, tier string, err error) bool {
		calls.Add(1)
		if err == nil {
			return true
		}
		failures.Add(1)
		s.tierFailed(ctx, kind, tier, err)
		return false
	}

	var hot, rising, popular []domain.TrendingItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hot = s.hotQuestions(gctx, now, w, track)
		return nil
	})
	g.Go(func() error {
		rising = s.risingExperiences(gctx, now, w, track)
		return nil
	})
	g.Go(func() error {
		popular = s.popularMaterials(gctx, w, track)
		return nil
	})
	_ = g.Wait()

	items := make([]domain.TrendingItem, 0, w.MaxItems)
	items = append(items, hot...)
	items = append(items, rising...)
	items = append(items, popular...)

	if len(items) < w.BackfillTarget {
		items = s.backfill(ctx, now, w, items, track)
	}

	if len(items) == 0 || (calls.Load() > 0 && failures.Load() == calls.Load()) {
		s.metrics.incFallback(FeedTrending)
		telemetry.AddBreadcrumb(ctx, "trending", "serving fallback trending feed")
		fallback := s.catalog.TrendingFallback()
		s.metrics.setTrendingItems(len(fallback))
		return fallback
	}

	slices.SortStableFunc(items, func(a, b domain.TrendingItem) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(items) > w.MaxItems {
		items = items[:w.MaxItems]
	}
	s.metrics.setTrendingItems(len(items))
	return items
}

type tierTracker func(kind domain.ItemKind, tier string, err error) bool

// hotQuestions picks questions from the last 24 hours with notable engagement.
func (s *TrendingService) hotQuestions(ctx context.Context, now time.Time, w ranking.TrendingWeights, track tierTracker) []domain.TrendingItem {
	if s.stores.Questions == nil || w.HotCap <= 0 {
		return nil
	}
	window := domain.Last24h(now)
	questions, err := s.stores.Questions.FindByFieldCriteria(ctx, domain.Criteria{
		CreatedWithin: &window,
		EngagementAny: &domain.EngagementThreshold{
			MinViews:   w.HotMinViews,
			MinUpvotes: w.HotMinUpvotes,
			MinAnswers: w.HotMinAnswers,
		},
	}, []domain.SortField{
		domain.Desc(domain.SortViews),
		domain.Desc(domain.SortUpvotes),
		domain.Desc(domain.SortCreatedAt),
	}, w.HotCap)
	if !track(domain.ItemKindQuestion, "hot_questions", err) {
		return nil
	}

	items := make([]domain.TrendingItem, 0, w.HotCap)
	for _, q := range capped(questions, w.HotCap) {
		score := float64(q.Views) + w.HotUpvoteWeight*float64(q.Upvotes) + w.HotAnswerWeight*float64(q.AnswerCount)
		items = append(items, trendingItem(q.Project(), score, reasonHot, domain.TrendHot))
	}
	return items
}

// risingExperiences picks well-voted experiences from the last 7 days.
func (s *TrendingService) risingExperiences(ctx context.Context, now time.Time, w ranking.TrendingWeights, track tierTracker) []domain.TrendingItem {
	if s.stores.Experiences == nil || w.RisingCap <= 0 {
		return nil
	}
	window := domain.Last7d(now)
	experiences, err := s.stores.Experiences.FindByFieldCriteria(ctx, domain.Criteria{
		CreatedWithin: &window,
		MinUpvotes:    w.RisingMinUpvotes,
	}, []domain.SortField{domain.Desc(domain.SortUpvotes)}, w.RisingCap)
	if !track(domain.ItemKindExperience, "rising_experiences", err) {
		return nil
	}

	items := make([]domain.TrendingItem, 0, w.RisingCap)
	for _, e := range capped(experiences, w.RisingCap) {
		score := w.RisingUpvoteWeight*float64(e.Upvotes) + w.RisingBase
		items = append(items, trendingItem(e.Project(), score, reasonRising, domain.TrendRising))
	}
	return items
}

// popularMaterials picks the most accessed materials.
func (s *TrendingService) popularMaterials(ctx context.Context, w ranking.TrendingWeights, track tierTracker) []domain.TrendingItem {
	if s.stores.Materials == nil || w.PopularCap <= 0 {
		return nil
	}
	materials, err := s.stores.Materials.FindByFieldCriteria(ctx, domain.Criteria{
		MinAccessCount: w.PopularMinAccess,
	}, []domain.SortField{domain.Desc(domain.SortAccessCount)}, w.PopularCap)
	if !track(domain.ItemKindMaterial, "popular_materials", err) {
		return nil
	}

	items := make([]domain.TrendingItem, 0, w.PopularCap)
	for _, m := range capped(materials, w.PopularCap) {
		score := float64(m.AccessCount) + w.PopularBase
		items = append(items, trendingItem(m.Project(), score, reasonPopular, domain.TrendPopular))
	}
	return items
}

// backfill tops the feed up to BackfillTarget with recent questions not
// already present.
func (s *TrendingService) backfill(ctx context.Context, now time.Time, w ranking.TrendingWeights, items []domain.TrendingItem, track tierTracker) []domain.TrendingItem {
	if s.stores.Questions == nil {
		return items
	}
	window := domain.Last7d(now)
	questions, err := s.stores.Questions.FindByFieldCriteria(ctx, domain.Criteria{
		CreatedWithin: &window,
	}, []domain.SortField{
		domain.Desc(domain.SortUpvotes),
		domain.Desc(domain.SortViews),
	}, w.BackfillTarget+len(items))
	if !track(domain.ItemKindQuestion, "recent_questions", err) {
		return items
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.Key()] = struct{}{}
	}
	for _, q := range questions {
		if len(items) >= w.BackfillTarget {
			break
		}
		item := q.Project()
		if _, ok := seen[item.Key()]; ok {
			continue
		}
		seen[item.Key()] = struct{}{}
		score := float64(q.Views) + w.RecentUpvoteWeight*float64(q.Upvotes)
		items = append(items, trendingItem(item, score, reasonRecent, domain.TrendRecent))
	}
	return items
}

func (s *TrendingService) tierFailed(ctx context.Context, kind domain.ItemKind, tier string, err error) {
	s.logger.WarnContext(ctx, "trending tier failed",
		"tier", tier,
		"kind", kind,
		"error", err)
	s.metrics.incCollectionFailure(kind, "trending")
	telemetry.AddBreadcrumb(ctx, "trending", "tier "+tier+" failed")
}

func trendingItem(item domain.SearchableItem, score float64, reason string, trend domain.TrendTag) domain.TrendingItem {
	item.Score = score
	return domain.TrendingItem{SearchableItem: item, Reason: reason, Trend: trend}
}
