package admin

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/prepwise/internal/config"
	"github.com/cloo-solutions/prepwise/internal/database"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.PersistentFlags().String("source", database.DefaultMigrationsURL, "Migration source URL")

	cmd.AddCommand(MigrateUpCmd())
	cmd.AddCommand(MigrateDownCmd())

	return cmd
}

func MigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			source, _ := cmd.Flags().GetString("source")
			return database.MigrateUp(cfg.DatabaseURL, source, cfg.NewLogger(os.Stderr))
		},
	}
}

func MigrateDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			source, _ := cmd.Flags().GetString("source")
			steps, _ := cmd.Flags().GetInt("steps")
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return database.MigrateDown(cfg.DatabaseURL, source, steps, cfg.NewLogger(os.Stderr))
		},
	}

	cmd.Flags().Int("steps", 1, "Number of migrations to roll back")

	return cmd
}
