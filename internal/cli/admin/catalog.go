package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloo-solutions/prepwise/internal/config"
	"github.com/cloo-solutions/prepwise/internal/ranking"
	"github.com/cloo-solutions/prepwise/internal/storage"
	"github.com/spf13/cobra"
)

func CatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and publish the ranking catalog",
		Long:  "Show, validate and publish the ranking weights, popular terms and fallback items",
	}

	cmd.PersistentFlags().StringP("file", "f", "", "Catalog YAML file (overrides CATALOG_FILE and CATALOG_S3_KEY)")

	cmd.AddCommand(CatalogShowCmd())
	cmd.AddCommand(CatalogValidateCmd())
	cmd.AddCommand(CatalogPushCmd())

	return cmd
}

func CatalogShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromCmd(cmd)
			if err != nil {
				return err
			}

			output, err := json.MarshalIndent(catalog, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode catalog: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}
}

func CatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the catalog loads and passes validation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := catalogFromCmd(cmd)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "catalog OK: %d popular terms, %d preparation categories, %d+%d fallback items\n",
				len(catalog.PopularTerms),
				len(catalog.PreparationCategories),
				len(catalog.FallbackRecommendations),
				len(catalog.FallbackTrending))
			return nil
		},
	}
}

func CatalogPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Validate a catalog file and upload it to CATALOG_S3_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			cfg, err := config.LoadWithoutDatabase()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.HasCatalogS3() {
				return fmt.Errorf("CATALOG_S3_KEY and S3 credentials must be set")
			}

			if _, err := ranking.LoadCatalog(file); err != nil {
				return err
			}
			body, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read catalog file: %w", err)
			}

			client, err := newS3Client(ctx, cfg)
			if err != nil {
				return err
			}
			meta, err := pushCatalog(ctx, client, cfg.CatalogS3Key, body)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s to s3://%s/%s (%d bytes, etag %s)\n",
				file, client.Bucket(), cfg.CatalogS3Key, meta.ContentLength, meta.ETag)
			return nil
		},
	}
}

// pushCatalog uploads body and reads back the stored object's metadata.
func pushCatalog(ctx context.Context, client *storage.S3Client, key string, body []byte) (*storage.ObjectMetadata, error) {
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	if err := client.PutObject(ctx, key, body, "application/yaml"); err != nil {
		return nil, fmt.Errorf("failed to upload catalog: %w", err)
	}
	meta, err := client.HeadObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to verify uploaded catalog: %w", err)
	}
	return meta, nil
}

func catalogFromCmd(cmd *cobra.Command) (*ranking.Catalog, error) {
	ctx := cmd.Context()
	file, _ := cmd.Flags().GetString("file")

	cfg, err := config.LoadWithoutDatabase()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var s3Client *storage.S3Client
	if file == "" && cfg.HasCatalogS3() {
		s3Client, err = newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	return loadCatalog(ctx, cfg, s3Client, file)
}
