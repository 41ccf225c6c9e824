package client

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query        string   `json:"query"`
	Kinds        []string `json:"kinds,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Difficulties []string `json:"difficulties,omitempty"`
	Companies    []string `json:"companies,omitempty"`
	DateFrom     string   `json:"date_from,omitempty"`
	DateTo       string   `json:"date_to,omitempty"`
	Limit        int      `json:"limit,omitempty"`
	Offset       int      `json:"offset,omitempty"`
}

// Item is the shared shape of search, recommendation and trending results.
type Item struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url"`
	Score       float64        `json:"score"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Trend       string         `json:"trend,omitempty"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	SearchID    string         `json:"search_id"`
	Results     []Item         `json:"results"`
	Total       int            `json:"total"`
	Suggestions []string       `json:"suggestions"`
	KindCounts  map[string]int `json:"kind_counts"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var req SearchRequest

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search questions, experiences, materials and companies",
		Long: `Searches every collection and returns relevance-ranked results.
An empty query with filters lists the newest matching items.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Query = args[0]
			}
			return runSearch(cmd, req)
		},
	}

	cmd.Flags().StringSliceVarP(&req.Kinds, "kind", "k", nil, "Restrict to item kinds (question, experience, material, company)")
	cmd.Flags().StringSliceVarP(&req.Tags, "tag", "t", nil, "Require any of these tags")
	cmd.Flags().StringSliceVarP(&req.Difficulties, "difficulty", "d", nil, "Require any of these difficulties")
	cmd.Flags().StringSliceVarP(&req.Companies, "company", "c", nil, "Require any of these companies")
	cmd.Flags().StringVar(&req.DateFrom, "from", "", "Created on or after (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&req.DateTo, "to", "", "Created on or before (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "Number of results to skip")

	return cmd
}

func runSearch(cmd *cobra.Command, req SearchRequest) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post(cmd.Context(), "/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := decodeData(resp, &searchResp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
		return printJSON(out, searchResp)
	}
	printSearch(out, req, searchResp)
	return nil
}

func printSearch(w io.Writer, req SearchRequest, resp SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		if len(resp.Suggestions) > 0 {
			fmt.Fprintf(w, "Try: %s\n", strings.Join(resp.Suggestions, ", "))
		}
		return
	}

	fmt.Fprintf(w, "Showing %d-%d of %d results (%s)\n\n",
		req.Offset+1, req.Offset+len(resp.Results), resp.Total, formatKindCounts(resp.KindCounts))
	printItems(w, resp.Results)

	if len(resp.Suggestions) > 0 {
		fmt.Fprintf(w, "\nRelated: %s\n", strings.Join(resp.Suggestions, ", "))
	}
	if req.Offset+len(resp.Results) < resp.Total {
		fmt.Fprintf(w, "More results available. Use --offset %d\n", req.Offset+len(resp.Results))
	}
	fmt.Fprintf(w, "Search ID: %s\n", resp.SearchID)
}

func formatKindCounts(counts map[string]int) string {
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s: %d", kind, counts[kind]))
	}
	return strings.Join(parts, ", ")
}

func printItems(w io.Writer, items []Item) {
	for i, item := range items {
		label := item.Kind
		if item.Trend != "" {
			label += ", " + item.Trend
		}
		fmt.Fprintf(w, "%d. %s [%s] (%.2f)\n", i+1, item.Title, label, item.Score)
		if item.Description != "" {
			description := item.Description
			if len(description) > 100 {
				description = description[:97] + "..."
			}
			fmt.Fprintf(w, "   %s\n", description)
		}
		if item.Reason != "" {
			fmt.Fprintf(w, "   Why: %s\n", item.Reason)
		}
		fmt.Fprintf(w, "   %s\n", item.URL)
		if i < len(items)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 40))
		}
	}
}
