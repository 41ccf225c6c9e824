package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloo-solutions/prepwise/internal/config"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/cloo-solutions/prepwise/internal/storage"
)

// Version is stamped into Sentry releases; main overrides it at link time.
var Version = "dev"

func newS3Client(ctx context.Context, cfg *config.Config) (*storage.S3Client, error) {
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return client, nil
}

// loadCatalog resolves the ranking catalog: an explicit file wins, then the
// configured S3 object, then CATALOG_FILE, then the built-in defaults.
func loadCatalog(ctx context.Context, cfg *config.Config, s3Client *storage.S3Client, file string) (*ranking.Catalog, error) {
	switch {
	case file != "":
		return ranking.LoadCatalog(file)
	case cfg.HasCatalogS3() && s3Client != nil:
		catalog, err := ranking.LoadCatalogFromS3(ctx, s3Client, cfg.CatalogS3Key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			slog.Warn("ranking catalog object missing, using local catalog",
				"bucket", s3Client.Bucket(),
				"key", cfg.CatalogS3Key)
			return ranking.LoadCatalog(cfg.CatalogFile)
		}
		if err != nil {
			return nil, err
		}
		slog.Info("ranking catalog loaded from object storage",
			"bucket", s3Client.Bucket(),
			"key", cfg.CatalogS3Key)
		return catalog, nil
	default:
		return ranking.LoadCatalog(cfg.CatalogFile)
	}
}
