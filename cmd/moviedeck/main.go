package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moviedeck",
		Short: "Browse movies from TMDb",
		Long: "MovieDeck browses the TMDb movie catalog: curated lists, search,\n" +
			"genres and movie details, in the terminal, over Telegram or as MCP tools.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default "+defaultConfigHint+")")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newListCmd(),
		newSearchCmd(),
		newMovieCmd(),
		newGenresCmd(),
		newGenreCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MovieDeck v%s\n", version)
		},
	}
}
