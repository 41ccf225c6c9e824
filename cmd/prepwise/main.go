package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/prepwise/internal/cli"
	"github.com/cloo-solutions/prepwise/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "prepwise",
		Short: "Prepwise CLI - interview preparation search",
		Long: `Prepwise CLI searches interview questions, experiences, materials and
companies, and shows recommendations and trending items.

Environment variables:
  PREPWISE_API_URL   API base URL (default: http://localhost:8080)
  PREPWISE_USER_ID   User id for personalized results and history`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	client.AddClientFlags(rootCmd)
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.FeedbackCmd())
	rootCmd.AddCommand(client.RecommendCmd())
	rootCmd.AddCommand(client.TrendingCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.ConfigCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
