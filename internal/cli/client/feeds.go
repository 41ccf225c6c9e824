package client

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type itemsResponse struct {
	Items []Item `json:"items"`
}

// RecommendCmd creates the recommend command.
func RecommendCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Show personalized recommendations",
		Long: `Shows recommendations based on the profile of --user.
Without a user the popular defaults are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return runFeed(cmd, "/recommendations", query, "No recommendations yet.")
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of recommendations")

	return cmd
}

// TrendingCmd creates the trending command.
func TrendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trending",
		Short: "Show what is trending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(cmd, "/trending", nil, "Nothing is trending.")
		},
	}
}

func runFeed(cmd *cobra.Command, path string, query url.Values, empty string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(cmd.Context(), path, query)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var feed itemsResponse
	if err := decodeData(resp, &feed); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		return printJSON(out, feed)
	}
	printFeed(out, feed.Items, empty)
	return nil
}

func printFeed(w io.Writer, items []Item, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	printItems(w, items)
}
