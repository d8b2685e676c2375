package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MovieDeck/internal/config"
	mcpserver "github.com/vadimtrunov/MovieDeck/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand. It exposes the catalog
// as MCP tools over stdin/stdout for assistants that speak the protocol.
func newMCPServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol; logs go to stderr.
			logger := config.SetupLogger(cfg.App.LogLevel, os.Stderr)

			client := newCatalog(cfg, logger)
			srv := mcpserver.NewServer(mcpserver.Deps{
				Catalog: client,
				Images:  client,
				AppURL:  cfg.App.URL,
				Version: version,
			}, logger)
			return srv.ServeStdio(cmd.Context())
		},
	}
}
