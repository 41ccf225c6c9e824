package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/pagination"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/cloo-solutions/prepwise/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SearchInput represents input for search operation
type SearchInput struct {
	Query   string
	Filters domain.SearchFilters
	UserID  string
	Limit   int
	Offset  int
}

// SearchOutput represents output from search operation
type SearchOutput struct {
	SearchID    string
	Results     []domain.SearchableItem
	Total       int
	Suggestions []string
	KindCounts  map[domain.ItemKind]int
}

// SearchTracker receives completed searches. Implementations must not block.
type SearchTracker interface {
	TrackSearch(ctx context.Context, search TrackedSearch)
}

// SearchServiceConfig controls search behavior.
type SearchServiceConfig struct {
	CollectionTimeout time.Duration
	DefaultLimit      int
	MaxLimit          int
	CountMatches      bool
}

// DefaultSearchServiceConfig returns the default service configuration.
func DefaultSearchServiceConfig() SearchServiceConfig {
	return SearchServiceConfig{
		CollectionTimeout: 2 * time.Second,
		DefaultLimit:      pagination.DefaultLimit,
		MaxLimit:          pagination.MaxLimit,
		CountMatches:      true,
	}
}

// SearchService runs free-text queries across every collection.
type SearchService struct {
	searchers []CollectionSearcher
	catalog   *ranking.Catalog
	tracker   SearchTracker
	metrics   *Metrics
	logger    *slog.Logger
	cfg       SearchServiceConfig
}

// NewSearchService creates a new SearchService. tracker and metrics may be nil.
func NewSearchService(
	searchers []CollectionSearcher,
	catalog *ranking.Catalog,
	tracker SearchTracker,
	metrics *Metrics,
	logger *slog.Logger,
	cfg SearchServiceConfig,
) *SearchService {
	if catalog == nil {
		catalog = ranking.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CollectionTimeout <= 0 {
		cfg.CollectionTimeout = DefaultSearchServiceConfig().CollectionTimeout
	}
	return &SearchService{
		searchers: searchers,
		catalog:   catalog,
		tracker:   tracker,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Search tokenizes the query, fans out to every applicable collection and
// returns the ranked page. Only invalid filters and caller cancellation are
// returned as errors; collection failures shrink the result set instead.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "SearchService.Search", telemetry.SpanAttributes{
		UserID:    input.UserID,
		Operation: "search",
	})
	defer span.End()

	start := time.Now()

	filters := input.Filters.Normalize()
	if err := filters.Validate(); err != nil {
		s.metrics.observeSearch("invalid", 0)
		return nil, err
	}

	limit := pagination.NormalizeLimit(input.Limit, s.cfg.DefaultLimit, s.cfg.MaxLimit)
	offset := pagination.NormalizeOffset(input.Offset)
	terms := Tokenize(input.Query)

	candidates, counts, err := s.fanOut(ctx, terms, filters)
	if err != nil {
		s.metrics.observeSearch("canceled", 0)
		return nil, err
	}

	ranked := Aggregate(candidates)
	w := s.catalog.Weights.Search
	out := &SearchOutput{
		SearchID:    uuid.NewString(),
		Results:     Paginate(ranked, limit, offset),
		Total:       len(ranked),
		Suggestions: BuildSuggestions(input.Query, ranked, s.catalog.PopularTerms, w.SuggestionSourceResults, w.SuggestionLimit),
		KindCounts:  counts,
	}

	elapsed := time.Since(start)
	s.metrics.observeSearch("ok", elapsed.Seconds())
	span.SetData("search_id", out.SearchID)
	span.SetData("terms", len(terms))
	span.SetData("total", out.Total)

	if s.tracker != nil {
		s.tracker.TrackSearch(ctx, TrackedSearch{
			ID:        out.SearchID,
			UserID:    input.UserID,
			Query:     input.Query,
			Terms:     terms,
			Filters:   filters,
			Results:   out.Results,
			Total:     out.Total,
			Limit:     limit,
			Offset:    offset,
			Duration:  elapsed,
			CreatedAt: start.UTC(),
		})
	}

	return out, nil
}

// fanOut runs every applicable collection searcher concurrently. A failing or
// slow collection contributes nothing; only caller cancellation is an error.
func (s *SearchService) fanOut(ctx context.Context, terms []string, filters domain.SearchFilters) (map[domain.ItemKind][]domain.SearchableItem, map[domain.ItemKind]int, error) {
	var active []CollectionSearcher
	for _, searcher := range s.searchers {
		if filters.IncludesKind(searcher.Kind()) {
			active = append(active, searcher)
		}
	}

	results := make([][]domain.SearchableItem, len(active))
	counts := make([]int, len(active))
	counted := make([]bool, len(active))

	g, gctx := errgroup.WithContext(ctx)
	for i, searcher := range active {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.cfg.CollectionTimeout)
			defer cancel()

			items, err := searcher.Search(cctx, terms, filters)
			if err != nil {
				if ctx.Err() == nil {
					s.collectionFailed(ctx, searcher.Kind(), "search", err)
				}
				return nil
			}
			results[i] = items

			if !s.cfg.CountMatches {
				return nil
			}
			n, err := searcher.Count(cctx, terms, filters)
			if err != nil {
				if ctx.Err() == nil {
					s.collectionFailed(ctx, searcher.Kind(), "count", err)
				}
				return nil
			}
			counts[i] = n
			counted[i] = true
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	candidates := make(map[domain.ItemKind][]domain.SearchableItem, len(active))
	kindCounts := make(map[domain.ItemKind]int, len(active))
	for i, searcher := range active {
		candidates[searcher.Kind()] = results[i]
		if counted[i] {
			kindCounts[searcher.Kind()] = max(counts[i], len(results[i]))
		}
	}
	return candidates, kindCounts, nil
}

func (s *SearchService) collectionFailed(ctx context.Context, kind domain.ItemKind, operation string, err error) {
	s.logger.WarnContext(ctx, "collection search failed",
		"kind", kind,
		"operation", operation,
		"error", err)
	s.metrics.incCollectionFailure(kind, operation)
	telemetry.AddBreadcrumb(ctx, "search", "collection "+string(kind)+" "+operation+" failed")
}
