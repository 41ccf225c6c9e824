package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/prepwise/internal/api/handlers"
	"github.com/cloo-solutions/prepwise/internal/api/middleware"
	"github.com/cloo-solutions/prepwise/internal/config"
	"github.com/cloo-solutions/prepwise/internal/database"
	"github.com/cloo-solutions/prepwise/internal/health"
	"github.com/cloo-solutions/prepwise/internal/history"
	"github.com/cloo-solutions/prepwise/internal/jobs"
	"github.com/cloo-solutions/prepwise/internal/repository"
	"github.com/cloo-solutions/prepwise/internal/server"
	"github.com/cloo-solutions/prepwise/internal/service"
	"github.com/cloo-solutions/prepwise/internal/storage"
	"github.com/cloo-solutions/prepwise/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	pruneInterval = time.Hour
	pruneTimeout  = 5 * time.Minute
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the prepwise search and recommendation API on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	shutdownTelemetry := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     "prepwised@" + Version,
		Debug:       cfg.Debug,
	}, logger)
	defer shutdownTelemetry()

	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetString("port")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolConfig{
		MaxConns:         cfg.DBMaxConns,
		ApplicationName:  "prepwised",
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL, database.DefaultMigrationsURL, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	var s3Client *storage.S3Client
	if cfg.HasS3() {
		s3Client, err = newS3Client(ctx, cfg)
		if err != nil {
			return err
		}
	}
	catalog, err := loadCatalog(ctx, cfg, s3Client, "")
	if err != nil {
		return err
	}

	var (
		metrics     *service.Metrics
		httpMetrics *middleware.HTTPMetrics
		jobMetrics  *jobs.Metrics
		gatherer    prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = service.NewMetrics()
		if err := metrics.Register(registry); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		httpMetrics = middleware.NewHTTPMetrics()
		if err := httpMetrics.Register(registry); err != nil {
			return fmt.Errorf("failed to register http metrics: %w", err)
		}
		jobMetrics = jobs.NewMetrics()
		if err := jobMetrics.Register(registry); err != nil {
			return fmt.Errorf("failed to register job metrics: %w", err)
		}
		gatherer = registry
	}

	stores := repository.NewStores(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)

	sinks := []service.SearchSink{searchLogRepo}
	var historyReader service.SearchHistoryReader = searchLogRepo
	checks := map[string]handlers.HealthChecker{
		"database": health.NewDBChecker(pool),
	}

	if cfg.HasRedis() {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable at startup, history reads will fail until it recovers", "error", err)
		}

		redisHistory := history.NewRedisHistory(redisClient, cfg.HistorySize, 0)
		sinks = append(sinks, redisHistory)
		historyReader = redisHistory
		checks["redis"] = health.NewRedisChecker(redisClient)
		logger.Info("search history backed by redis")
	}

	tracker := service.NewUsageTracker(sinks, historyReader, searchLogRepo, metrics, logger, service.UsageTrackerConfig{
		Timeout:     cfg.TrackTimeout,
		HistorySize: cfg.HistorySize,
	})

	searchCfg := service.DefaultSearchServiceConfig()
	searchCfg.CollectionTimeout = cfg.CollectionTimeout
	searchSvc := service.NewSearchService(service.NewCollectionSearchers(stores, catalog), catalog, tracker, metrics, logger, searchCfg)
	recommendationSvc := service.NewRecommendationService(stores, repository.NewProfileRepository(pool), catalog, metrics, logger)
	trendingSvc := service.NewTrendingService(stores, catalog, metrics, logger)

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(searchSvc, tracker),
		FeedHandler:   handlers.NewFeedHandler(recommendationSvc, trendingSvc),
		HealthHandler: handlers.NewHealthHandler(checks),
		Logger:        logger,
		HTTPMetrics:   httpMetrics,
		Gatherer:      gatherer,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if cfg.SearchLogRetention > 0 {
		pruner := jobs.NewSearchLogPruner(searchLogRepo, cfg.SearchLogRetention, logger)
		worker := jobs.NewWorker(pruner, jobs.WorkerConfig{
			Name:     "search-log-pruner",
			Interval: pruneInterval,
			Timeout:  pruneTimeout,
			Metrics:  jobMetrics,
		}, logger)
		g.Go(func() error {
			worker.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		tracker.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}
