package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/prepwise/internal/cli"
	"github.com/cloo-solutions/prepwise/internal/cli/admin"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	admin.Version = version

	rootCmd := &cobra.Command{
		Use:     "prepwised",
		Short:   "Prepwise daemon and admin CLI",
		Long:    "Prepwise daemon for running the search API, managing migrations and the ranking catalog",
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.CatalogCmd())
	rootCmd.AddCommand(admin.MigrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
