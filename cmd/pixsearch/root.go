package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pixsearch/internal/config"
	"github.com/kailas-cloud/pixsearch/internal/version"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pixsearch",
		Short: "Search Pixabay images from the browser or the terminal",
		Long: `pixsearch searches the Pixabay image API.

"serve" runs the web gallery with its JSON API, "search" prints results to the terminal.
Settings come from config/<ENV>.yaml; a .env file in the working directory is loaded first.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: config/<ENV>.yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the --config file if given, otherwise the file for ENV.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	env := config.GetEnv()

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, env, err
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, env, fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pixsearch %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
			return err
		},
	}
}
