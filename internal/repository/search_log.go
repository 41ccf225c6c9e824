package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloo-solutions/prepwise/internal/domain"
	"github.com/cloo-solutions/prepwise/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogRepository stores search logs for history and feedback loops.
type SearchLogRepository struct {
	pool *pgxpool.Pool
}

func NewSearchLogRepository(pool *pgxpool.Pool) *SearchLogRepository {
	return &SearchLogRepository{pool: pool}
}

type searchLogResult struct {
	ID    string          `json:"id"`
	Kind  domain.ItemKind `json:"kind"`
	Score float64         `json:"score"`
}

func (r *SearchLogRepository) Name() string {
	return "postgres"
}

func (r *SearchLogRepository) RecordSearch(ctx context.Context, search service.TrackedSearch) error {
	results := make([]searchLogResult, len(search.Results))
	for i, item := range search.Results {
		results[i] = searchLogResult{ID: item.ID, Kind: item.Kind, Score: item.Score}
	}

	filtersJSON, err := json.Marshal(search.Filters)
	if err != nil {
		return err
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return err
	}

	terms := search.Terms
	if terms == nil {
		terms = []string{}
	}
	createdAt := search.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO search_logs (id, user_id, query, terms, filters, results, result_count, page_limit, page_offset, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		search.ID,
		nullableString(search.UserID),
		search.Query,
		terms,
		filtersJSON,
		resultsJSON,
		search.Total,
		search.Limit,
		search.Offset,
		search.Duration.Milliseconds(),
		createdAt,
	)
	return err
}

func (r *SearchLogRepository) RecordSearchSelection(ctx context.Context, searchID, selectedID string, kind domain.ItemKind) error {
	if _, err := uuid.Parse(searchID); err != nil {
		return domain.ErrSearchLogNotFound
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE search_logs
		 SET chosen_id = $1, chosen_kind = $2, chosen_at = $3
		 WHERE id = $4`,
		selectedID,
		string(kind),
		time.Now().UTC(),
		searchID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSearchLogNotFound
	}
	return nil
}

func (r *SearchLogRepository) RecentSearches(ctx context.Context, userID string, limit int) ([]service.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, query, filters, result_count, created_at
		 FROM search_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []service.HistoryEntry{}
	for rows.Next() {
		var e service.HistoryEntry
		var filtersJSON []byte
		if err := rows.Scan(&e.SearchID, &e.Query, &filtersJSON, &e.Total, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(filtersJSON, &e.Filters); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteOlderThan removes logs created before cutoff and returns how many were removed.
func (r *SearchLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
