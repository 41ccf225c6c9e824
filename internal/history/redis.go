// Package history keeps a short per-user list of recent searches in Redis.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/prepwise/internal/service"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "prepwise:history:"
	DefaultSize      = 50
	DefaultTTL       = 30 * 24 * time.Hour
)

// RedisHistory is a search sink and history reader backed by a capped Redis list.
type RedisHistory struct {
	client *redis.Client
	prefix string
	size   int
	ttl    time.Duration
}

// NewRedisHistory creates a history store. Zero size or ttl fall back to defaults.
func NewRedisHistory(client *redis.Client, size int, ttl time.Duration) *RedisHistory {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisHistory{
		client: client,
		prefix: DefaultKeyPrefix,
		size:   size,
		ttl:    ttl,
	}
}

func (h *RedisHistory) key(userID string) string {
	return h.prefix + userID
}

func (h *RedisHistory) Name() string {
	return "redis"
}

// RecordSearch prepends the search to the user's list. Anonymous searches are skipped.
func (h *RedisHistory) RecordSearch(ctx context.Context, search service.TrackedSearch) error {
	if search.UserID == "" {
		return nil
	}

	payload, err := json.Marshal(service.HistoryEntry{
		SearchID:  search.ID,
		Query:     search.Query,
		Filters:   search.Filters,
		Total:     search.Total,
		CreatedAt: search.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	key := h.key(search.UserID)
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(h.size-1))
	pipe.Expire(ctx, key, h.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// RecentSearches returns up to limit entries, newest first.
func (h *RedisHistory) RecentSearches(ctx context.Context, userID string, limit int) ([]service.HistoryEntry, error) {
	if limit <= 0 || limit > h.size {
		limit = h.size
	}

	raw, err := h.client.LRange(ctx, h.key(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]service.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var e service.HistoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
