package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type SearchLogStore interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchLogPruner deletes search logs past the retention window.
type SearchLogPruner struct {
	store     SearchLogStore
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewSearchLogPruner returns a pruner. A zero retention keeps logs forever.
func NewSearchLogPruner(store SearchLogStore, retention time.Duration, logger *slog.Logger) *SearchLogPruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchLogPruner{
		store:     store,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (p *SearchLogPruner) Run(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}

	cutoff := p.now().UTC().Add(-p.retention)
	deleted, err := p.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune search logs: %w", err)
	}
	if deleted > 0 {
		p.logger.Info("pruned search logs", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}
