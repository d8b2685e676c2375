package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
)

// newConfigCmd returns the "config" subcommand group for configuration management.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

// newConfigValidateCmd returns the "config validate" subcommand that checks config file validity.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ResolvePath(configPath)
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			out := cmd.OutOrStdout()
			if path == "" {
				fmt.Fprintln(out, styleDim.Render("No config file found; using environment and defaults."))
			}
			printWarnings(out, cfg.Warnings())
			fmt.Fprintln(out, styleSuccess.Render("✓ Configuration is valid"))
			fmt.Fprintln(out, styleDim.Render("  tmdb: "+sanitizeURL(cfg.TMDb.BaseURL)))
			fmt.Fprintln(out, styleDim.Render("  log file: "+cfg.App.LogFile))
			return nil
		},
	}
}
