package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/telemetry"
)

// TrackedSearch captures a completed search for the usage log.
type TrackedSearch struct {
	ID        string
	UserID    string
	Query     string
	Terms     []string
	Filters   domain.SearchFilters
	Results   []domain.SearchableItem
	Total     int
	Limit     int
	Offset    int
	Duration  time.Duration
	CreatedAt time.Time
}

// HistoryEntry is one past search in a user's history.
type HistoryEntry struct {
	SearchID  string               `json:"search_id"`
	Query     string               `json:"query"`
	Filters   domain.SearchFilters `json:"filters"`
	Total     int                  `json:"total"`
	CreatedAt time.Time            `json:"created_at"`
}

// SearchSink persists tracked searches.
type SearchSink interface {
	Name() string
	RecordSearch(ctx context.Context, search TrackedSearch) error
}

// SearchHistoryReader lists a user's recent searches, newest first.
type SearchHistoryReader interface {
	RecentSearches(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
}

// SearchFeedbackRecorder stores which result a user selected for a search.
type SearchFeedbackRecorder interface {
	RecordSearchSelection(ctx context.Context, searchID, selectedID string, kind domain.ItemKind) error
}

// UsageTrackerConfig controls tracking behavior.
type UsageTrackerConfig struct {
	Timeout     time.Duration
	HistorySize int
}

// UsageTracker fans tracked searches out to sinks without blocking the read path.
type UsageTracker struct {
	sinks    []SearchSink
	history  SearchHistoryReader
	feedback SearchFeedbackRecorder
	metrics  *Metrics
	logger   *slog.Logger
	cfg      UsageTrackerConfig
	wg       sync.WaitGroup
}

// NewUsageTracker creates a tracker. history and feedback may be nil.
func NewUsageTracker(
	sinks []SearchSink,
	history SearchHistoryReader,
	feedback SearchFeedbackRecorder,
	metrics *Metrics,
	logger *slog.Logger,
	cfg UsageTrackerConfig,
) *UsageTracker {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return &UsageTracker{
		sinks:    sinks,
		history:  history,
		feedback: feedback,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// TrackSearch writes search to every sink in the background. Failures are
// logged and counted, never returned.
func (t *UsageTracker) TrackSearch(ctx context.Context, search TrackedSearch) {
	if len(t.sinks) == 0 {
		return
	}

	bg := context.WithoutCancel(ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		ctx, cancel := context.WithTimeout(bg, t.cfg.Timeout)
		defer cancel()

		for _, sink := range t.sinks {
			if err := sink.RecordSearch(ctx, search); err != nil {
				t.logger.WarnContext(ctx, "failed to track search",
					"sink", sink.Name(),
					"search_id", search.ID,
					"error", err)
				t.metrics.incTrackingFailure(sink.Name())
				telemetry.AddBreadcrumb(ctx, "tracking", "sink "+sink.Name()+" failed")
			}
		}
	}()
}

// Wait blocks until in-flight tracking writes finish.
func (t *UsageTracker) Wait() {
	t.wg.Wait()
}

// RecordSelection stores the result a user picked for a previous search.
func (t *UsageTracker) RecordSelection(ctx context.Context, searchID, selectedID string, kind domain.ItemKind) error {
	ctx, span := telemetry.StartSpan(ctx, "UsageTracker.RecordSelection", telemetry.SpanAttributes{
		Collection: string(kind),
		Operation:  "feedback",
	})
	defer span.End()

	if strings.TrimSpace(searchID) == "" || strings.TrimSpace(selectedID) == "" {
		return domain.ErrMissingRequiredField
	}
	if kind != "" && !kind.IsValid() {
		return domain.InvalidFilterf("unknown kind %q", kind)
	}
	if t.feedback == nil {
		return domain.ErrHistoryUnavailable
	}

	if err := t.feedback.RecordSearchSelection(ctx, searchID, selectedID, kind); err != nil {
		span.SetError(err)
		return err
	}
	return nil
}

// RecentSearches returns the user's most recent searches, newest first.
func (t *UsageTracker) RecentSearches(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	ctx, span := telemetry.StartSpan(ctx, "UsageTracker.RecentSearches", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "history",
	})
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if t.history == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	if limit <= 0 || limit > t.cfg.HistorySize {
		limit = t.cfg.HistorySize
	}

	entries, err := t.history.RecentSearches(ctx, userID, limit)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeCollaboratorUnavailable, domain.ErrHistoryUnavailable.Message, err)
	}
	if entries == nil {
		entries = []HistoryEntry{}
	}
	return entries, nil
}
