package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/MovieDeck/internal/catalog"
	"github.com/vadimtrunov/MovieDeck/internal/config"
	"github.com/vadimtrunov/MovieDeck/internal/httpclient"
)

const defaultConfigHint = config.DefaultPath + " if present"

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleTitle  = lipgloss.NewStyle().Bold(true)
	styleRating = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration file. Warnings are
// printed to stderr and do not fail the command.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	printWarnings(os.Stderr, cfg.Warnings())
	return cfg, nil
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintln(w, styleWarn.Render("! "+msg))
	}
}

// newFileLogger routes logs to app.log_file so they stay out of the terminal.
// The returned close func is safe to call when opening failed.
func newFileLogger(cfg *config.Config) (*slog.Logger, func()) {
	f, err := config.OpenLogFile(cfg.App.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, styleWarn.Render("! logging disabled: "+err.Error()))
		return config.SetupLogger(cfg.App.LogLevel, io.Discard), func() {}
	}
	return config.SetupLogger(cfg.App.LogLevel, f), func() { _ = f.Close() }
}

// newCatalog creates the TMDb client from configuration.
func newCatalog(cfg *config.Config, logger *slog.Logger) *catalog.Client {
	opts := catalog.DefaultOptions(cfg.TMDb.APIKey)
	opts.BaseURL = cfg.TMDb.BaseURL
	opts.ImageBaseURL = cfg.TMDb.ImageBaseURL
	opts.Language = cfg.TMDb.Language
	opts.HTTP = httpConfig(cfg.TMDb)

	logger.Debug("catalog client initialized",
		slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)),
		slog.Int("max_attempts", opts.HTTP.Attempts),
	)
	return catalog.New(opts, logger)
}

// httpConfig maps the tmdb section onto transport settings.
func httpConfig(tc config.TMDbConfig) httpclient.Config {
	hc := httpclient.DefaultConfig()
	if tc.Timeout > 0 {
		hc.Timeout = tc.Timeout
	}
	if tc.MaxAttempts > 0 {
		hc.Attempts = tc.MaxAttempts
	}
	hc.RequestsPerSecond = tc.RequestsPerSecond
	return hc
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
