package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// SearchFeedbackRequest reports which result of a prior search was opened.
type SearchFeedbackRequest struct {
	SearchID   string `json:"search_id"`
	SelectedID string `json:"selected_id"`
	Kind       string `json:"kind"`
}

// FeedbackCmd creates the feedback command.
func FeedbackCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "feedback <search-id> <item-id>",
		Short: "Record which search result was chosen",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			req := SearchFeedbackRequest{SearchID: args[0], SelectedID: args[1], Kind: kind}
			if _, err := api.Post(cmd.Context(), "/search/feedback", req); err != nil {
				return fmt.Errorf("feedback failed: %w", err)
			}

			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"recorded": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Feedback recorded.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Kind of the chosen item")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}
