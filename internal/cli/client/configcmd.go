package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCmd creates the config command with subcommands.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored client defaults",
	}

	cmd.AddCommand(configSetCmd())
	cmd.AddCommand(configShowCmd())

	return cmd
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store --api-url and --user as defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, _ := cmd.Flags().GetString("api-url")
			userID, _ := cmd.Flags().GetString("user")
			if apiURL == "" && userID == "" {
				return fmt.Errorf("nothing to set: pass --api-url and/or --user")
			}

			config, err := LoadGlobalConfig()
			if err != nil {
				return err
			}
			if config == nil {
				config = &GlobalConfig{}
			}
			if apiURL != "" {
				config.APIURL = apiURL
			}
			if userID != "" {
				config.UserID = userID
			}

			if err := SaveGlobalConfig(config); err != nil {
				return err
			}
			path, _ := GetConfigPath()
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", path)
			return nil
		},
	}
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective client configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, _ := cmd.Flags().GetString("api-url")
			userID, _ := cmd.Flags().GetString("user")

			resolved, err := ResolveConfig(apiURL, userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON, _ := cmd.Flags().GetBool("output"); outputJSON {
				return printJSON(out, map[string]string{
					"api_url":        resolved.APIURL,
					"api_url_source": string(resolved.APIURLSource),
					"user_id":        resolved.UserID,
					"user_id_source": string(resolved.UserIDSource),
				})
			}
			fmt.Fprintf(out, "API URL: %s (%s)\n", resolved.APIURL, resolved.APIURLSource)
			if resolved.UserID == "" {
				fmt.Fprintln(out, "User:    anonymous")
			} else {
				fmt.Fprintf(out, "User:    %s (%s)\n", resolved.UserID, resolved.UserIDSource)
			}
			return nil
		},
	}
}
