package client

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// HistoryEntry is one recorded search.
type HistoryEntry struct {
	SearchID  string         `json:"search_id"`
	Query     string         `json:"query"`
	Filters   map[string]any `json:"filters,omitempty"`
	Total     int            `json:"total"`
	CreatedAt time.Time      `json:"created_at"`
}

type historyResponse struct {
	Searches []HistoryEntry `json:"searches"`
}

// HistoryCmd creates the history command.
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			if api.userID == "" {
				return fmt.Errorf("history requires a user (set --user or %s)", envUserID)
			}

			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			resp, err := api.Get(cmd.Context(), "/search/history", query)
			if err != nil {
				return fmt.Errorf("history failed: %w", err)
			}

			var history historyResponse
			if err := decodeData(resp, &history); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(out, history)
			}

			if len(history.Searches) == 0 {
				fmt.Fprintln(out, "No searches yet.")
				return nil
			}
			for _, entry := range history.Searches {
				text := entry.Query
				if strings.TrimSpace(text) == "" {
					text = "(filters only)"
				}
				fmt.Fprintf(out, "%s  %-40s %d results  %s\n",
					entry.CreatedAt.Local().Format(time.DateTime), text, entry.Total, entry.SearchID)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of searches")

	return cmd
}
