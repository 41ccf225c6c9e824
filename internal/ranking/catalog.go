package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// SearchWeights bounds the search path.
type SearchWeights struct {
	TermWeightDivisor       float64 `koanf:"term_weight_divisor"`
	CollectionLimit         int     `koanf:"collection_limit"`
	CompanyLimit            int     `koanf:"company_limit"`
	UserLimit               int     `koanf:"user_limit"`
	SuggestionLimit         int     `koanf:"suggestion_limit"`
	SuggestionSourceResults int     `koanf:"suggestion_source_results"`
}

// RecommendWeights defines tier base scores and caps for recommendations.
// Base scores must keep the order
// LevelMaterial > TargetCompany > FocusQuestion > DefaultMaterial > DefaultQuestion.
type RecommendWeights struct {
	LevelMaterialBase         float64 `koanf:"level_material_base"`
	TargetCompanyBase         float64 `koanf:"target_company_base"`
	FocusQuestionBase         float64 `koanf:"focus_question_base"`
	DefaultMaterialBase       float64 `koanf:"default_material_base"`
	DefaultQuestionBase       float64 `koanf:"default_question_base"`
	LevelMaterialCap          int     `koanf:"level_material_cap"`
	FocusQuestionCap          int     `koanf:"focus_question_cap"`
	TargetCompanyCap          int     `koanf:"target_company_cap"`
	DefaultQuestionMinUpvotes int     `koanf:"default_question_min_upvotes"`
	DefaultLimit              int     `koanf:"default_limit"`
	MaxLimit                  int     `koanf:"max_limit"`
}

// TrendingWeights defines windows, thresholds and multipliers for the trending feed.
type TrendingWeights struct {
	HotCap             int     `koanf:"hot_cap"`
	HotMinViews        int     `koanf:"hot_min_views"`
	HotMinUpvotes      int     `koanf:"hot_min_upvotes"`
	HotMinAnswers      int     `koanf:"hot_min_answers"`
	HotUpvoteWeight    float64 `koanf:"hot_upvote_weight"`
	HotAnswerWeight    float64 `koanf:"hot_answer_weight"`
	RisingCap          int     `koanf:"rising_cap"`
	RisingMinUpvotes   int     `koanf:"rising_min_upvotes"`
	RisingUpvoteWeight float64 `koanf:"rising_upvote_weight"`
	RisingBase         float64 `koanf:"rising_base"`
	PopularCap         int     `koanf:"popular_cap"`
	PopularMinAccess   int     `koanf:"popular_min_access"`
	PopularBase        float64 `koanf:"popular_base"`
	BackfillTarget     int     `koanf:"backfill_target"`
	RecentUpvoteWeight float64 `koanf:"recent_upvote_weight"`
	MaxItems           int     `koanf:"max_items"`
}

// Weights holds every tunable ranking constant.
type Weights struct {
	Search    SearchWeights    `koanf:"search"`
	Recommend RecommendWeights `koanf:"recommend"`
	Trending  TrendingWeights  `koanf:"trending"`
}

// DefaultWeights returns the built-in ranking constants.
func DefaultWeights() Weights {
	return Weights{
		Search: SearchWeights{
			TermWeightDivisor:       DefaultTermWeightDivisor,
			CollectionLimit:         50,
			CompanyLimit:            20,
			UserLimit:               20,
			SuggestionLimit:         5,
			SuggestionSourceResults: 10,
		},
		Recommend: RecommendWeights{
			LevelMaterialBase:         100,
			TargetCompanyBase:         95,
			FocusQuestionBase:         90,
			DefaultMaterialBase:       80,
			DefaultQuestionBase:       75,
			LevelMaterialCap:          3,
			FocusQuestionCap:          2,
			TargetCompanyCap:          2,
			DefaultQuestionMinUpvotes: 5,
			DefaultLimit:              10,
			MaxLimit:                  50,
		},
		Trending: TrendingWeights{
			HotCap:             3,
			HotMinViews:        50,
			HotMinUpvotes:      3,
			HotMinAnswers:      2,
			HotUpvoteWeight:    20,
			HotAnswerWeight:    10,
			RisingCap:          2,
			RisingMinUpvotes:   2,
			RisingUpvoteWeight: 25,
			RisingBase:         50,
			PopularCap:         2,
			PopularMinAccess:   10,
			PopularBase:        30,
			BackfillTarget:     5,
			RecentUpvoteWeight: 10,
			MaxItems:           6,
		},
	}
}

// Validate checks that limits are positive, caps and thresholds are
// non-negative, and tier base scores keep their order.
func (w Weights) Validate() error {
	var errs []error
	if w.Search.TermWeightDivisor <= 0 {
		errs = append(errs, errors.New("search.term_weight_divisor must be positive"))
	}
	positive := map[string]int{
		"search.collection_limit":          w.Search.CollectionLimit,
		"search.company_limit":             w.Search.CompanyLimit,
		"search.user_limit":                w.Search.UserLimit,
		"search.suggestion_limit":          w.Search.SuggestionLimit,
		"search.suggestion_source_results": w.Search.SuggestionSourceResults,
		"recommend.default_limit":          w.Recommend.DefaultLimit,
		"recommend.max_limit":              w.Recommend.MaxLimit,
		"trending.max_items":               w.Trending.MaxItems,
	}
	for _, name := range slices.Sorted(maps.Keys(positive)) {
		if positive[name] <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	nonNegative := map[string]int{
		"recommend.level_material_cap":           w.Recommend.LevelMaterialCap,
		"recommend.focus_question_cap":           w.Recommend.FocusQuestionCap,
		"recommend.target_company_cap":           w.Recommend.TargetCompanyCap,
		"recommend.default_question_min_upvotes": w.Recommend.DefaultQuestionMinUpvotes,
		"trending.hot_cap":                       w.Trending.HotCap,
		"trending.hot_min_views":                 w.Trending.HotMinViews,
		"trending.hot_min_upvotes":               w.Trending.HotMinUpvotes,
		"trending.hot_min_answers":               w.Trending.HotMinAnswers,
		"trending.rising_cap":                    w.Trending.RisingCap,
		"trending.rising_min_upvotes":            w.Trending.RisingMinUpvotes,
		"trending.popular_cap":                   w.Trending.PopularCap,
		"trending.popular_min_access":            w.Trending.PopularMinAccess,
		"trending.backfill_target":               w.Trending.BackfillTarget,
	}
	for _, name := range slices.Sorted(maps.Keys(nonNegative)) {
		if nonNegative[name] < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	r := w.Recommend
	if !(r.LevelMaterialBase > r.TargetCompanyBase &&
		r.TargetCompanyBase > r.FocusQuestionBase &&
		r.FocusQuestionBase > r.DefaultMaterialBase &&
		r.DefaultMaterialBase > r.DefaultQuestionBase) {
		errs = append(errs, fmt.Errorf(
			"recommendation base scores must be strictly decreasing: level_material(%.0f) > target_company(%.0f) > focus_question(%.0f) > default_material(%.0f) > default_question(%.0f)",
			r.LevelMaterialBase, r.TargetCompanyBase, r.FocusQuestionBase, r.DefaultMaterialBase, r.DefaultQuestionBase))
	}
	if r.DefaultLimit > r.MaxLimit {
		errs = append(errs, errors.New("recommend.default_limit must not exceed recommend.max_limit"))
	}
	if w.Trending.BackfillTarget > w.Trending.MaxItems {
		errs = append(errs, errors.New("trending.backfill_target must not exceed trending.max_items"))
	}
	return errors.Join(errs...)
}

// FallbackItem is a static catalog entry served when live computation fails.
type FallbackItem struct {
	ID          string  `koanf:"id"`
	Kind        string  `koanf:"kind"`
	Title       string  `koanf:"title"`
	Description string  `koanf:"description"`
	URL         string  `koanf:"url"`
	Reason      string  `koanf:"reason"`
	Trend       string  `koanf:"trend"`
	Score       float64 `koanf:"score"`
}

func (f FallbackItem) searchable() domain.SearchableItem {
	kind := domain.ItemKind(f.Kind)
	url := f.URL
	if url == "" && kind.IsValid() {
		url = domain.ItemURL(kind, f.ID)
	}
	return domain.SearchableItem{
		ID:          f.ID,
		Kind:        kind,
		Title:       f.Title,
		Description: f.Description,
		URL:         url,
		Score:       f.Score,
		Metadata:    map[string]any{"fallback": true},
	}
}

// Catalog is the injected configuration data used by the ranking engines.
type Catalog struct {
	PopularTerms            []string       `koanf:"popular_terms"`
	PreparationCategories   []string       `koanf:"preparation_categories"`
	FallbackRecommendations []FallbackItem `koanf:"fallback_recommendations"`
	FallbackTrending        []FallbackItem `koanf:"fallback_trending"`
	Weights                 Weights        `koanf:"weights"`
}

// DefaultCatalog returns the compiled-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		PopularTerms: []string{
			"javascript",
			"python",
			"react",
			"system design",
			"algorithms",
			"data structures",
			"behavioral",
			"sql",
			"dynamic programming",
			"machine learning",
		},
		PreparationCategories: []string{
			"interview-prep",
			"data-structures",
			"algorithms",
			"system-design",
			"behavioral",
			"coding-practice",
		},
		FallbackRecommendations: []FallbackItem{
			{
				ID:          "getting-started",
				Kind:        string(domain.ItemKindMaterial),
				Title:       "Interview Preparation Guide",
				Description: "A structured plan covering coding, system design and behavioral rounds.",
				URL:         "/materials/getting-started",
				Reason:      "Popular with new members",
				Score:       50,
			},
			{
				ID:          "top-questions",
				Kind:        string(domain.ItemKindQuestion),
				Title:       "Most Asked Coding Questions",
				Description: "The questions candidates report seeing most often.",
				URL:         "/questions?sort=popular",
				Reason:      "Frequently asked in interviews",
				Score:       40,
			},
		},
		FallbackTrending: []FallbackItem{
			{
				ID:          "system-design-basics",
				Kind:        string(domain.ItemKindMaterial),
				Title:       "System Design Fundamentals",
				Description: "Scalability, caching and data modeling essentials.",
				URL:         "/materials/system-design-basics",
				Reason:      "Consistently popular",
				Trend:       string(domain.TrendPopular),
				Score:       50,
			},
			{
				ID:          "recent-experiences",
				Kind:        string(domain.ItemKindExperience),
				Title:       "Recent Interview Experiences",
				Description: "Fresh write-ups from candidates across the industry.",
				URL:         "/experiences?sort=recent",
				Reason:      "Latest from the community",
				Trend:       string(domain.TrendRecent),
				Score:       40,
			},
		},
		Weights: DefaultWeights(),
	}
}

// Validate checks catalog entries and weights.
func (c *Catalog) Validate() error {
	var errs []error
	if err := c.Weights.Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, item := range c.FallbackRecommendations {
		if err := validateFallback(item); err != nil {
			errs = append(errs, fmt.Errorf("fallback_recommendations[%d]: %w", i, err))
		}
	}
	for i, item := range c.FallbackTrending {
		if err := validateFallback(item); err != nil {
			errs = append(errs, fmt.Errorf("fallback_trending[%d]: %w", i, err))
		}
		if !domain.TrendTag(item.Trend).IsValid() {
			errs = append(errs, fmt.Errorf("fallback_trending[%d]: unknown trend %q", i, item.Trend))
		}
	}
	if len(c.FallbackRecommendations) == 0 {
		errs = append(errs, errors.New("fallback_recommendations must not be empty"))
	}
	if len(c.FallbackTrending) == 0 {
		errs = append(errs, errors.New("fallback_trending must not be empty"))
	}
	return errors.Join(errs...)
}

func validateFallback(item FallbackItem) error {
	if item.ID == "" || item.Title == "" {
		return errors.New("id and title are required")
	}
	if !domain.ItemKind(item.Kind).IsValid() {
		return fmt.Errorf("unknown kind %q", item.Kind)
	}
	if item.Score < 0 {
		return errors.New("score must not be negative")
	}
	return nil
}

// RecommendationFallback returns a fresh copy of the static recommendation feed.
func (c *Catalog) RecommendationFallback() []domain.RecommendationItem {
	out := make([]domain.RecommendationItem, 0, len(c.FallbackRecommendations))
	for _, f := range c.FallbackRecommendations {
		out = append(out, domain.RecommendationItem{SearchableItem: f.searchable(), Reason: f.Reason})
	}
	return out
}

// TrendingFallback returns a fresh copy of the static trending feed.
func (c *Catalog) TrendingFallback() []domain.TrendingItem {
	out := make([]domain.TrendingItem, 0, len(c.FallbackTrending))
	for _, f := range c.FallbackTrending {
		out = append(out, domain.TrendingItem{
			SearchableItem: f.searchable(),
			Reason:         f.Reason,
			Trend:          domain.TrendTag(f.Trend),
		})
	}
	return out
}

// Scorer returns the frequency scorer configured by the catalog weights.
func (c *Catalog) Scorer() ScoreFn {
	return FrequencyScorer(c.Weights.Search.TermWeightDivisor)
}

// LoadCatalog reads a YAML catalog file and merges it over the defaults.
// An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	return loadCatalog(file.Provider(path), path)
}

// ObjectGetter fetches raw object bytes by key.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// LoadCatalogFromS3 reads a YAML catalog object and merges it over the defaults.
func LoadCatalogFromS3(ctx context.Context, getter ObjectGetter, key string) (*Catalog, error) {
	return loadCatalog(&objectProvider{ctx: ctx, getter: getter, key: key}, "s3://"+key)
}

func loadCatalog(provider koanf.Provider, source string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load catalog from %s: %w", source, err)
	}

	defaults := DefaultCatalog()
	catalog := DefaultCatalog()

	// Lists replace the defaults wholesale; weights merge key by key.
	var lists Catalog
	if err := k.Unmarshal("", &lists); err != nil {
		return nil, fmt.Errorf("failed to decode catalog from %s: %w", source, err)
	}
	if k.Exists("popular_terms") {
		catalog.PopularTerms = lists.PopularTerms
	}
	if k.Exists("preparation_categories") {
		catalog.PreparationCategories = lists.PreparationCategories
	}
	if k.Exists("fallback_recommendations") {
		catalog.FallbackRecommendations = lists.FallbackRecommendations
	}
	if k.Exists("fallback_trending") {
		catalog.FallbackTrending = lists.FallbackTrending
	}
	if err := k.Unmarshal("weights", &catalog.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode catalog weights from %s: %w", source, err)
	}

	if err := catalog.Weights.Validate(); err != nil {
		slog.Warn("invalid ranking weights in catalog, using defaults",
			"source", source,
			"error", err)
		catalog.Weights = defaults.Weights
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", source, err)
	}

	logCatalogOverrides(source, defaults, catalog)
	return catalog, nil
}

func logCatalogOverrides(source string, defaults, loaded *Catalog) {
	var overrides []string
	if len(loaded.PopularTerms) != len(defaults.PopularTerms) {
		overrides = append(overrides, fmt.Sprintf("popular_terms: %d -> %d",
			len(defaults.PopularTerms), len(loaded.PopularTerms)))
	}
	if len(loaded.PreparationCategories) != len(defaults.PreparationCategories) {
		overrides = append(overrides, fmt.Sprintf("preparation_categories: %d -> %d",
			len(defaults.PreparationCategories), len(loaded.PreparationCategories)))
	}
	if loaded.Weights != defaults.Weights {
		overrides = append(overrides, "weights")
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking catalog with overrides",
			"source", source,
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking catalog (no overrides)", "source", source)
	}
}

// objectProvider adapts an ObjectGetter to koanf.Provider.
type objectProvider struct {
	ctx    context.Context
	getter ObjectGetter
	key    string
}

func (p *objectProvider) ReadBytes() ([]byte, error) {
	return p.getter.GetObject(p.ctx, p.key)
}

func (p *objectProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("s3 provider does not support this method")
}
