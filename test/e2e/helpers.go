//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/prepwise/internal/api/handlers"
	"github.com/cloo-solutions/prepwise/internal/api/middleware"
	"github.com/cloo-solutions/prepwise/internal/health"
	"github.com/cloo-solutions/prepwise/internal/history"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/cloo-solutions/prepwise/internal/repository"
	"github.com/cloo-solutions/prepwise/internal/server"
	"github.com/cloo-solutions/prepwise/internal/service"
	"github.com/cloo-solutions/prepwise/internal/storage"
	"github.com/cloo-solutions/prepwise/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog/e2e.yaml"

const catalogYAML = `
popular_terms:
  - closures
  - javascript
  - system design
  - rate limiter
`

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Tracker    *service.UsageTracker
	Server     *httptest.Server
	HTTPClient *http.Client
}

// SetupE2EEnv starts Postgres, Redis and RustFS, loads the ranking catalog
// from object storage and serves the full router.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	redisC := testutil.NewRedisContainer(ctx, t)
	t.Cleanup(func() { _ = redisC.Terminate(ctx) })
	s3C := testutil.NewRustFSContainer(ctx, t)
	t.Cleanup(func() { _ = s3C.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")
	t.Cleanup(pool.Close)

	opts, err := redis.ParseURL(redisC.URL())
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}
	redisClient := redis.NewClient(opts)
	t.Cleanup(func() { _ = redisClient.Close() })

	catalog := publishCatalog(ctx, t, s3C.Endpoint())
	seed(ctx, t, pool)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := service.NewMetrics()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("failed to register metrics: %v", err)
	}

	stores := repository.NewStores(pool)
	searchLogs := repository.NewSearchLogRepository(pool)
	redisHistory := history.NewRedisHistory(redisClient, 20, time.Hour)

	tracker := service.NewUsageTracker(
		[]service.SearchSink{searchLogs, redisHistory},
		redisHistory,
		searchLogs,
		metrics,
		logger,
		service.UsageTrackerConfig{Timeout: 5 * time.Second, HistorySize: 20},
	)

	searchSvc := service.NewSearchService(service.NewCollectionSearchers(stores, catalog), catalog, tracker, metrics, logger, service.DefaultSearchServiceConfig())
	recommendationSvc := service.NewRecommendationService(stores, repository.NewProfileRepository(pool), catalog, metrics, logger)
	trendingSvc := service.NewTrendingService(stores, catalog, metrics, logger)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(searchSvc, tracker),
		FeedHandler:   handlers.NewFeedHandler(recommendationSvc, trendingSvc),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"database": health.NewDBChecker(pool),
			"redis":    health.NewRedisChecker(redisClient),
		}),
		Logger:      logger,
		HTTPMetrics: middleware.NewHTTPMetrics(),
		Gatherer:    registry,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		Pool:       pool,
		Redis:      redisClient,
		Tracker:    tracker,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func publishCatalog(ctx context.Context, t *testing.T, endpoint string) *ranking.Catalog {
	t.Helper()
	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "prepwise-config",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}
	if err := s3Client.PutObject(ctx, catalogKey, []byte(catalogYAML), "application/yaml"); err != nil {
		t.Fatalf("failed to upload catalog: %v", err)
	}

	catalog, err := ranking.LoadCatalogFromS3(ctx, s3Client, catalogKey)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	return catalog
}

func seed(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	now := time.Now().UTC()
	statements := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO questions (id, title, content, tags, difficulty, company, author_id, upvotes, views, answer_count, has_accepted_answer, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			[]any{"q1", "Explain JavaScript closures", "Scope and lexical environments", []string{"javascript"}, "beginner", "Acme", "u2", 12, 140, 4, true, now.Add(-2 * time.Hour)}},
		{`INSERT INTO questions (id, title, content, tags, difficulty, company, author_id, upvotes, views, answer_count, has_accepted_answer, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			[]any{"q2", "Design a rate limiter", "Token bucket versus sliding window", []string{"system-design"}, "advanced", "Globex", nil, 4, 30, 1, false, now.Add(-72 * time.Hour)}},
		{`INSERT INTO experiences (id, title, content, company, role, tags, outcome, difficulty, author_id, upvotes, views, comment_count, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			[]any{"e1", "Onsite at Acme", "Closures came up twice", "Acme", "backend", []string{"javascript"}, "offer", "intermediate", "u2", 6, 40, 2, now.Add(-24 * time.Hour)}},
		{`INSERT INTO materials (id, name, description, category, tags, difficulty, access_count, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			[]any{"m1", "Arrays 101", "Intro to arrays", "data-structures", []string{"arrays"}, "beginner", 40, now}},
		{`INSERT INTO companies (id, name, description, industry, location, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{"c1", "Acme", "Rockets and anvils", "manufacturing", "Remote", now}},
		{`INSERT INTO users (id, name, username, bio, focus_areas, target_companies, preparation_level, created_at)
		  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			[]any{"u1", "Ada", "ada", "Loves javascript", []string{"javascript"}, []string{"Acme"}, "beginner", now}},
	}
	for _, st := range statements {
		if _, err := pool.Exec(ctx, st.sql, st.args...); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
}

// Get performs a GET request as userID (empty for anonymous)
func (e *E2ETestEnv) Get(path, userID string) *APIResponse {
	return e.doRequest(http.MethodGet, path, nil, userID)
}

// Post performs a POST request as userID (empty for anonymous)
func (e *E2ETestEnv) Post(path string, body any, userID string) *APIResponse {
	return e.doRequest(http.MethodPost, path, body, userID)
}

func (e *E2ETestEnv) doRequest(method, path string, body any, userID string) *APIResponse {
	e.T.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			e.T.Fatalf("failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.Server.URL+path, reqBody)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response: %v", err)
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(respBody, apiResp); err != nil {
			e.T.Fatalf("failed to parse response %q: %v", string(respBody), err)
		}
	}
	return apiResp
}

// Decode unmarshals the data envelope into v
func (r *APIResponse) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
}

func (r *APIResponse) String() string {
	return fmt.Sprintf("status=%d error=%q code=%q", r.StatusCode, r.Error, r.Code)
}
